//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package api exposes a Group over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"trpc.group/trpc-go/trpc-agent-group/group"
	"trpc.group/trpc-go/trpc-agent-group/handoff"
	"trpc.group/trpc-go/trpc-agent-group/log"
	"trpc.group/trpc-go/trpc-agent-group/message"
	"trpc.group/trpc-go/trpc-agent-group/planner"
)

// Server serves one group.
type Server struct {
	group  *group.Group
	router *mux.Router
	opts   options
}

// Option configures the Server.
type Option func(*options)

type options struct {
	allowedOrigins []string
}

// WithAllowedOrigins restricts CORS origins, "*" by default.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) { o.allowedOrigins = origins }
}

// New creates a server for g.
func New(g *group.Group, opts ...Option) *Server {
	s := &Server{
		group:  g,
		router: mux.NewRouter(),
		opts:   options{allowedOrigins: []string{"*"}},
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Length", "Content-Type"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/task", s.handleTask).Methods(http.MethodPost)
	s.router.HandleFunc("/messages", s.handleMessages).Methods(http.MethodGet)
	s.router.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)
	s.router.HandleFunc("/structure", s.handleStructure).Methods(http.MethodGet)

	s.router.HandleFunc("/members", s.handleListMembers).Methods(http.MethodGet)
	s.router.HandleFunc("/members/{name}", s.handleDeleteMember).Methods(http.MethodDelete)

	s.router.HandleFunc("/threads/{thread}/current", s.handleGetCurrent).Methods(http.MethodGet)
	s.router.HandleFunc("/threads/{thread}/current", s.handleSetCurrent).Methods(http.MethodPut)
}

type chatRequest struct {
	Thread         string `json:"thread,omitempty"`
	Text           string `json:"text"`
	Agent          string `json:"agent,omitempty"`
	Mode           string `json:"mode,omitempty"`
	CutOff         *int   `json:"cut_off,omitempty"`
	ExcludeCurrent bool   `json:"exclude_current,omitempty"`
}

type chatResponse struct {
	Messages  []message.Message `json:"messages"`
	NextAgent string            `json:"next_agent"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleChat called: path=%s", r.URL.Path)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := handoff.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}
	opts := []group.ChatOption{group.WithMode(mode)}
	if req.Agent != "" {
		opts = append(opts, group.WithAgent(req.Agent))
	}
	if req.CutOff != nil {
		opts = append(opts, group.WithCutOff(*req.CutOff))
	}
	if req.ExcludeCurrent {
		opts = append(opts, group.WithExcludeCurrent())
	}
	reply, err := s.group.ChatReply(r.Context(), req.Thread, req.Text, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, chatResponse{Messages: reply.Messages, NextAgent: reply.Agent})
}

type taskRequest struct {
	Task            string `json:"task"`
	Strategy        string `json:"strategy,omitempty"`
	RevisePlan      *bool  `json:"revise_plan,omitempty"`
	InTransitRevise *bool  `json:"in_transit_revise,omitempty"`
}

type taskResponse struct {
	Messages []message.Message `json:"messages"`
	Plan     planner.Plan      `json:"plan,omitempty"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleTask called: path=%s", r.URL.Path)
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	strategy := group.Strategy(req.Strategy)
	if strategy == "" {
		strategy = group.StrategyAuto
	}
	var opts []group.TaskOption
	if req.RevisePlan != nil {
		opts = append(opts, group.WithPlanRevise(*req.RevisePlan))
	}
	if req.InTransitRevise != nil {
		opts = append(opts, group.WithInTransitRevise(*req.InTransitRevise))
	}
	msgs, err := s.group.Task(r.Context(), req.Task, strategy, opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := taskResponse{Messages: msgs}
	if strategy == group.StrategyAuto {
		resp.Plan = s.group.Plan()
	}
	writeJSON(w, resp)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	log.Debugf("handleMessages called: path=%s", r.URL.Path)
	writeJSON(w, s.group.Protocol())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	log.Infof("handleReset called: path=%s", r.URL.Path)
	s.group.Reset()
	w.WriteHeader(http.StatusNoContent)
}

type structureResponse struct {
	Structure string `json:"structure"`
	Error     string `json:"error,omitempty"`
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	log.Debugf("handleStructure called: path=%s", r.URL.Path)
	st, err := s.group.Structure()
	resp := structureResponse{Structure: string(st)}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, resp)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	log.Debugf("handleListMembers called: path=%s", r.URL.Path)
	writeJSON(w, s.group.Members())
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	log.Infof("handleDeleteMember called: name=%s", name)
	if err := s.group.DeleteMember(name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type currentAgent struct {
	Agent string `json:"agent"`
}

func (s *Server) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, currentAgent{Agent: s.group.CurrentAgent(mux.Vars(r)["thread"])})
}

func (s *Server) handleSetCurrent(w http.ResponseWriter, r *http.Request) {
	thread := mux.Vars(r)["thread"]
	var req currentAgent
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.group.SetCurrentAgent(thread, req.Agent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, req)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps group errors to status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, group.ErrMemberNotFound):
		status = http.StatusNotFound
	case errors.Is(err, group.ErrNotImplemented):
		status = http.StatusNotImplemented
	case errors.Is(err, group.ErrUnknownStrategy),
		errors.Is(err, handoff.ErrUnknownMode),
		errors.Is(err, group.ErrNoMembers):
		status = http.StatusBadRequest
	case errors.Is(err, group.ErrDuplicateMember):
		status = http.StatusConflict
	}
	log.Errorf("request failed: %v", err)
	http.Error(w, err.Error(), status)
}

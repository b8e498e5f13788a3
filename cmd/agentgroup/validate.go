//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-agent-group/env"
	"trpc.group/trpc-go/trpc-agent-group/graph"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the environment file and report the relationship structure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := env.Load(v.GetString(keyEnv))
			if err != nil {
				return err
			}
			return validate(cmd.OutOrStdout(), cfg)
		},
	}
}

// validate checks cfg without building any member.
func validate(w io.Writer, cfg *env.Config) error {
	names := make([]string, len(cfg.Members))
	for i, m := range cfg.Members {
		if m.Name == "" {
			return fmt.Errorf("member %d has no name", i+1)
		}
		names[i] = m.Name
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no members", env.ErrInvalidEnv)
	}
	g, err := graph.Build(names, cfg.Relationships)
	if err != nil {
		return err
	}
	s, err := graph.Classify(g, cfg.Entry, cfg.Exit)
	fmt.Fprintf(w, "members: %d\nstructure: %s\n", len(names), s)
	if err != nil {
		fmt.Fprintf(w, "sequence check: %v\n", err)
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(w, "  %s -> %s\n", e[0], e[1])
	}
	return nil
}

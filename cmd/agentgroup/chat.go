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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-agent-group/group"
	"trpc.group/trpc-go/trpc-agent-group/handoff"
	"trpc.group/trpc-go/trpc-agent-group/message"
)

func newChatCmd(v *viper.Viper) *cobra.Command {
	var (
		thread string
		mode   string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the group, one line per user turn",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := handoff.ParseMode(mode)
			if err != nil {
				return err
			}
			g, clean, err := buildGroup(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer clean()
			return chatLoop(cmd, g, thread, m)
		},
	}
	cmd.Flags().StringVar(&thread, "thread", group.DefaultThread, "conversation thread")
	cmd.Flags().StringVar(&mode, "mode", string(handoff.ModeAuto2), "handoff mode: order, random, auto or auto2")
	return cmd
}

func chatLoop(cmd *cobra.Command, g *group.Group, thread string, mode handoff.Mode) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
		case "/exit", "/quit":
			return nil
		case "/reset":
			g.Reset()
		default:
			msgs, err := g.Chat(cmd.Context(), thread, text, group.WithMode(mode))
			if err != nil {
				return err
			}
			printMessages(out, msgs)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printMessages(w io.Writer, msgs []message.Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "[%s] %s\n", m.Sender, m.Result)
	}
}

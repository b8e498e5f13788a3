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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-agent-group/group"
)

func newTaskCmd(v *viper.Viper) *cobra.Command {
	var (
		strategy    string
		noRevise    bool
		noInTransit bool
	)
	cmd := &cobra.Command{
		Use:   "task [description]",
		Short: "Run one task with the group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, clean, err := buildGroup(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer clean()
			s := group.Strategy(strategy)
			msgs, err := g.Task(cmd.Context(), strings.Join(args, " "), s,
				group.WithPlanRevise(!noRevise),
				group.WithInTransitRevise(!noInTransit),
			)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s == group.StrategyAuto {
				fmt.Fprintf(out, "Plan:\n%s\n", g.Plan())
			}
			printMessages(out, msgs)
			return nil
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(group.StrategyAuto), "task strategy: sequential or auto")
	cmd.Flags().BoolVar(&noRevise, "no-revise", false, "skip the member critique of the plan")
	cmd.Flags().BoolVar(&noInTransit, "no-in-transit", false, "skip extra steps proposed while the plan runs")
	return cmd
}

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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"trpc.group/trpc-go/trpc-agent-group/log"
)

// config keys
const (
	keyConfig            = "config"
	keyEnv               = "env"
	keyOracleProvider    = "oracle.provider"
	keyOracleModel       = "oracle.model"
	keyOracleAPIKey      = "oracle.api_key"
	keyOracleBaseURL     = "oracle.base_url"
	keyPlanningModel     = "oracle.planning_model"
	keyLogLevel          = "log.level"
	keyTelemetryEndpoint = "telemetry.endpoint"
	keyTelemetryProtocol = "telemetry.protocol"
	keyWorkspace         = "workspace"
	keyServerAddr        = "server.addr"
	keyHandoffMaxTurns   = "handoff.max_turns"
	keyMessageCutOff     = "handoff.message_cut_off"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:   "agentgroup",
		Short: "Run a group of agents that hand off and plan together",
		Long: `agentgroup loads an environment file describing the members of a group
and their relationships, then chats with the group, runs tasks or serves
the group over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(v); err != nil {
				return err
			}
			log.SetLevel(v.GetString(keyLogLevel))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "config file (default is ./agentgroup.yaml)")
	flags.StringP(keyEnv, "e", "env.yaml", "environment file describing the group")
	flags.String("provider", "", "decision oracle provider: openai, anthropic or gemini")
	flags.String("model", "", "decision oracle model")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String(keyWorkspace, "", "workspace root directory")
	_ = v.BindPFlag(keyConfig, flags.Lookup(keyConfig))
	_ = v.BindPFlag(keyEnv, flags.Lookup(keyEnv))
	_ = v.BindPFlag(keyOracleProvider, flags.Lookup("provider"))
	_ = v.BindPFlag(keyOracleModel, flags.Lookup("model"))
	_ = v.BindPFlag(keyLogLevel, flags.Lookup("log-level"))
	_ = v.BindPFlag(keyWorkspace, flags.Lookup(keyWorkspace))

	root.AddCommand(
		newChatCmd(v),
		newTaskCmd(v),
		newServeCmd(v),
		newValidateCmd(v),
	)
	return root
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyOracleProvider, providerOpenAI)
	v.SetDefault(keyLogLevel, log.LevelInfo)
	v.SetDefault(keyTelemetryProtocol, "grpc")
	v.SetDefault(keyServerAddr, ":8080")
	v.SetDefault(keyHandoffMaxTurns, 3)
	v.SetDefault(keyMessageCutOff, 3)
}

// initConfig reads the optional config file and AGENTGROUP_* variables,
// e.g. AGENTGROUP_ORACLE_API_KEY for oracle.api_key.
func initConfig(v *viper.Viper) error {
	setDefaults(v)
	if cfgFile := v.GetString(keyConfig); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("agentgroup")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/agentgroup")
	}
	v.SetEnvPrefix("AGENTGROUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || v.GetString(keyConfig) != "" {
			return err
		}
	}
	return nil
}

// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the coursekit command-line application.
package app

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datastudies/coursekit/pkg/logger"
)

// EnvPrefix is prepended to viper keys read from the environment.
const EnvPrefix = "COURSEKIT"

// NewRootCmd creates a new root command for the coursekit CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "coursekit",
		DisableAutoGenTag: true,
		Short:             "coursekit connects course notebooks to the Reddit API",
		Long: `coursekit sets up Reddit API access for data collection exercises.

It resolves credentials from the environment or an encrypted config file,
logs in when it can, and otherwise falls back to read-only access.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Initialize()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				logger.Errorf("Error displaying help: %v", err)
			}
		},
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(newRedditCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

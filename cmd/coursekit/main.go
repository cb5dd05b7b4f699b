// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the coursekit CLI.
package main

import (
	"os"

	"github.com/datastudies/coursekit/cmd/coursekit/app"
	"github.com/datastudies/coursekit/pkg/logger"
)

func main() {
	// Initialize the logger
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

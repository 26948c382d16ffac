// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"io"

	"github.com/google/uuid"
	"github.com/joeycumines/go-mainloop/internal/config"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
)

// version is set at build time, via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mainloop",
		Short: "Run an interactive application main loop",
		Long: `Runs a demonstration main loop, which dispatches events from an in-memory
queue, and runs a periodic task at a fixed rate (optionally synchronised to a
simulated display refresh rate). Press Ctrl+C to post a quit event.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newRunCmd(), newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("mainloop version %s\n", version)
		},
	}
}

// newLogger returns a JSON logger writing to w, at the given level. Every
// entry carries a "run" field, unique to the invocation.
func newLogger(w io.Writer, level string) (*logiface.Logger[logiface.Event], error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(lvl),
	).Clone().
		Str("run", uuid.NewString()).
		Logger().
		Logger(), nil
}

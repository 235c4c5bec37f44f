package main

import (
	"log/slog"
	"os"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

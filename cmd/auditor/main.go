package main

import (
	"fmt"
	"os"

	"budget-auditor/internal/cli"
	"budget-auditor/internal/config"
	"budget-auditor/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := ""
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configDir = os.Args[i+1]
		}
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:      cfg.Logging.Level,
		Console:    cfg.Logging.Console,
		File:       cfg.Logging.File,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    100,
		MaxBackups: 7,
		MaxAge:     30,
	})

	return cli.NewRootCmd(cfg, logger).Execute()
}

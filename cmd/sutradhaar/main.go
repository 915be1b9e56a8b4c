package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/sutradhaar/internal/config"
	"github.com/dukerupert/sutradhaar/internal/logging"
)

var CLI struct {
	LogLevel string `help:"Override SUTRADHAAR_LOG_LEVEL." placeholder:"LEVEL"`
	DBPath   string `help:"Override SUTRADHAAR_DB_PATH." type:"path"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP server." default:"1"`
	Calc    CalcCmd    `cmd:"" help:"Evaluate an arithmetic expression."`
	Convert ConvertCmd `cmd:"" help:"Convert a value between units."`
	Premium PremiumCmd `cmd:"" help:"Grant or revoke premium for an account."`
}

// Context is handed to every command's Run.
type Context struct {
	Config config.Config
	Logger *slog.Logger
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sutradhaar"),
		kong.Description("Notes, calculator and unit converter"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if CLI.DBPath != "" {
		cfg.DBPath = CLI.DBPath
	}
	if CLI.LogLevel != "" {
		cfg.LogLevel = CLI.LogLevel
	}
	logger := logging.Setup(cfg.LogLevel)

	if err := ctx.Run(&Context{Config: cfg, Logger: logger}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

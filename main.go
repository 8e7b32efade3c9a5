package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/vexxhost/dbadmin/internal/cli"
	"github.com/vexxhost/dbadmin/templates"
)

func main() {
	logLevel := log.DebugLevel
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "INFO":
		logLevel = log.InfoLevel
	case "ERROR":
		logLevel = log.ErrorLevel
	}

	log.SetLevel(logLevel)
	log.SetReportTimestamp(true)
	log.SetReportCaller(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(templates.FS)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

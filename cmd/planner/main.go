package main

import (
	"context"
	"log"
	"os"

	"erp-planning/internal/adapters/cli"
	"erp-planning/internal/bootstrap"
	"erp-planning/internal/config"
	"erp-planning/internal/logging"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("Usage: planner <materials|purchasing|transfer|schema> [args...]")
	}

	cfg, err := config.Load(os.Getenv("PLANNER_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	svc, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	runErr := cli.Run(ctx, svc, os.Args[1:], os.Stdin, os.Stdout)
	_ = svc.Close()
	if runErr != nil {
		log.Fatal(runErr)
	}
}

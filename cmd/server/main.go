package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/audioscribe/internal/buildinfo"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server"
	"github.com/dmitrijs2005/audioscribe/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("error loading .env: %v", err)
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

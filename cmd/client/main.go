package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/qarzkitob/qarzkitob/internal/buildinfo"
	"github.com/qarzkitob/qarzkitob/internal/client/cli"
	"github.com/qarzkitob/qarzkitob/internal/client/config"
	"github.com/qarzkitob/qarzkitob/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}

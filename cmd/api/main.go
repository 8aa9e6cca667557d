package main

import (
	"context"
	"flag"
	"log"

	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/api"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/app"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/config"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/loader"
	"github.com/ghosthapper/Flexpwr-data-DataEngineeringChallenge/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to pipeline config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	zlog := logger.New()
	pipeline := app.PipelineHandler{
		Config: cfg,
		Loader: loader.Handler{Log: zlog},
		Log:    zlog,
	}

	// The API serves one completed run from memory.
	ctx := logger.AddToContext(context.Background(), zlog)
	result, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	apiHandler := api.ApiHandler{Result: result, Log: zlog}
	if err := apiHandler.StartApi(cfg.API.Port); err != nil {
		log.Fatal(err)
	}
}

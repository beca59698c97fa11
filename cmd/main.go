package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yungbote/neurobridge-backend/internal/app"
	"github.com/yungbote/neurobridge-backend/internal/platform/envutil"
)

func main() {
	pipelineFlag := flag.String("pipeline", "gazette_texts", "pipeline to run: gazette_texts | aggregates")
	flag.Parse()

	a, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Start(ctx)

	runServer := envutil.Bool("RUN_SERVER", true)
	if runServer {
		go func() {
			a.Log.Info("operational http surface listening", "addr", a.Cfg.MetricsAddr)
			if err := a.Run(a.Cfg.MetricsAddr); err != nil {
				a.Log.Warn("operational http surface stopped", "error", err)
			}
		}()
	}

	switch strings.ToLower(strings.TrimSpace(*pipelineFlag)) {
	case "gazette_texts":
		if err := a.RunPipeline(ctx, ""); err != nil {
			a.Log.Error("pipeline run failed", "error", err)
			os.Exit(1)
		}
	case "aggregates":
		a.Log.Warn("aggregates pipeline is owned by the sibling packaging job; nothing to run here")
	default:
		fmt.Printf("unknown --pipeline value %q\n", *pipelineFlag)
		os.Exit(1)
	}

	a.Log.Info("pipeline run complete", "summary", a.Summary.Snapshot())
}

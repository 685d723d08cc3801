package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ivr-report/config"
	"ivr-report/logging"
	"ivr-report/metrics"
	"ivr-report/store"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

func main() {
	// Define flags
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")
	envFile := flag.String("env-file", ".env", "Optional .env file to load before reading the environment")
	flag.Usage = usage

	// Parse command-line flags
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logger.Info().Str("addr", *metricsAddr).Msg("metrics server listening")
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error().Err(err).Str("backend", cfg.Store.Backend).Msg("failed to open store")
		os.Exit(1)
	}

	app := newApp(kv, cfg, logger, os.Stdout)
	code := app.run(ctx, flag.Arg(0), flag.Args()[1:])

	if err := kv.Close(); err != nil {
		logger.Warn().Err(err).Msg("failed to close store")
	}

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		jobName := "ivr_report"
		if err := push.New(*pushGateway, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			logger.Error().Err(err).Msg("error pushing to Pushgateway")
		} else {
			logger.Info().Msg("metrics successfully pushed to Pushgateway")
		}
	}

	if *wait && *metricsAddr != "" {
		logger.Info().Msg("process kept alive for metric scraping, press Ctrl+C to exit")
		<-ctx.Done()
	} else if *metricsAddr != "" && *pushGateway == "" {
		// Small delay to allow final scrape if not waiting explicitly
		time.Sleep(100 * time.Millisecond)
	}

	os.Exit(code)
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, `Usage: ivr-report [global flags] <command> [flags]

Commands:
  import  [-concurrency N] FILE...          import export files
  files   [-pending] [-format text|json]    list stored files
  resolve -id ID -date YYYY-MM-DD           set the date of an undated file
  remove  -id ID                            delete a stored file
  report  [-from D] [-to D] [-queues a,b] [-agents x,y] [-format text|json|csv|yaml]
  export  [-out FILE]                       write data and report cache as JSON
  restore -in FILE                          replace data and report cache

Global flags:
`)
	flag.PrintDefaults()
}

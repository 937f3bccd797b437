// Command digestd runs a demonstration HTTP server that protects a
// handler with HTTP Digest Access Authentication, backed by the
// self-authenticating nonce lifecycle and replay-defense engine in
// internal/digest.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/zurustar/digestd/internal/config"
	"github.com/zurustar/digestd/internal/digest"
	"github.com/zurustar/digestd/internal/httpserver"
	"github.com/zurustar/digestd/internal/logging"
	"github.com/zurustar/digestd/internal/metrics"
)

// slotGaugeSampleInterval controls how often the occupied-slots gauge is
// refreshed; the table is small enough that a cheap periodic scan beats
// updating the gauge on every insert/expiry.
const slotGaugeSampleInterval = 10 * time.Second

var configFile string

func main() {
	root := &cobra.Command{
		Use:   "digestd",
		Short: "HTTP Digest Access Authentication demonstration server",
		RunE:  run,
	}
	root.Flags().StringVar(&configFile, "config", "config.yaml", "configuration file path")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	manager := config.NewManager()

	cfg, err := manager.Load(configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := logging.NewLoggerFromConfig(logging.LoggerConfig{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	algo, err := digest.ParseAlgorithm(cfg.Authentication.Algorithm)
	if err != nil {
		return fmt.Errorf("configure algorithm: %w", err)
	}

	seed, err := loadRandomSeed(cfg.Authentication.RandomSeedFile)
	if err != nil {
		return fmt.Errorf("load random seed: %w", err)
	}

	table := digest.NewTable(cfg.Authentication.NonceNCSize)

	srv := httpserver.NewServer(httpserver.Options{
		Table:          table,
		Realm:          cfg.Authentication.Realm,
		Algorithm:      algo,
		RandomSeed:     seed,
		NonceTimeoutMS: uint64(cfg.Authentication.NonceTimeoutSeconds) * 1000,
		Credentials:    noCredentials{},
		Logger:         logger,
		Protected:      http.HandlerFunc(defaultProtectedHandler),
	})

	logger.Info(fmt.Sprintf("digestd starting, nonce table holds %s slots",
		humanize.Comma(int64(table.Size()))),
		logging.StringField("realm", cfg.Authentication.Realm),
		logging.StringField("listen", cfg.Server.Listen))

	if err := srv.Start(cfg.Server.Listen); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	stopSampler := sampleTableOccupancy(table)
	defer close(stopSampler)

	waitForShutdownSignal()

	return srv.Stop()
}

// sampleTableOccupancy periodically refreshes the occupied-slots gauge in
// the background, returning a channel the caller closes to stop it.
func sampleTableOccupancy(table *digest.Table) chan struct{} {
	stop := make(chan struct{})
	ticker := time.NewTicker(slotGaugeSampleInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.Auth().SetTableSlotsUsed(table.Occupied())
			case <-stop:
				return
			}
		}
	}()

	return stop
}

// noCredentials is the zero-value CredentialStore used until a real user
// backend is wired in; every lookup reports "unknown" so the verifier
// pipeline still runs to completion without ever authenticating anyone.
type noCredentials struct{}

func (noCredentials) Lookup(username string) (digest.Credentials, bool) {
	return digest.Credentials{}, false
}

func defaultProtectedHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("authenticated\n"))
}

func loadRandomSeed(path string) (string, error) {
	if path == "" {
		return "digestd-default-seed", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func waitForShutdownSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

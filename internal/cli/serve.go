package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brendadeeznuts1111/lattice/internal/config"
	"github.com/brendadeeznuts1111/lattice/internal/engine"
	"github.com/brendadeeznuts1111/lattice/internal/params"
	"github.com/brendadeeznuts1111/lattice/internal/reload"
	"github.com/brendadeeznuts1111/lattice/internal/server"
)

var (
	serveBind       string
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP server with live config reload",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "address to bind (default 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default 37111)")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "config payload path (default ~/.lattice/lattice.yaml)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if serveBind != "" {
		cfg.Server.Bind = serveBind
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	reloadPath := serveConfigPath
	if reloadPath == "" {
		reloadPath = cfg.Reload.Path
	}
	if reloadPath == "" {
		var err error
		reloadPath, err = config.DefaultReloadPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	store := params.New(logger)
	eng := engine.New(store, logger)
	defer eng.Destroy()

	channel := reload.New(store, logger, reloadPath)
	if err := os.MkdirAll(filepath.Dir(reloadPath), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := channel.Start(); err != nil {
		return fmt.Errorf("start config channel: %w", err)
	}
	defer channel.Stop()

	srv := server.New(store, eng, channel, logger, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown. SIGHUP/SIGUSR1 belong to the reload channel; only
	// interrupt and SIGTERM stop the process.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("lattice serving",
			zap.String("addr", addr),
			zap.String("config", reloadPath),
			zap.String("strategy", eng.Strategy().String()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

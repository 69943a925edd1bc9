// Package main provides the entry point for snapwatch-server.
//
// snapwatch-server polls the configured sources, reports new and changed
// entries as change sets, and serves them over HTTP:
//
//	snapwatch-server -config /etc/snapwatch/snapwatch.yaml
//
// Every setting can be overridden from the environment, e.g.
// SNAPWATCH_SERVER__HTTP__ADDR=0.0.0.0:5480.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yndnr/snapwatch-go/internal/core/service"
	"github.com/yndnr/snapwatch-go/internal/infra/buildinfo"
	"github.com/yndnr/snapwatch-go/internal/infra/confloader"
	"github.com/yndnr/snapwatch-go/internal/infra/shutdown"
	"github.com/yndnr/snapwatch-go/internal/infra/tlsroots"
	"github.com/yndnr/snapwatch-go/internal/server/config"
	"github.com/yndnr/snapwatch-go/internal/server/httpserver"
	"github.com/yndnr/snapwatch-go/internal/server/localserver"
	"github.com/yndnr/snapwatch-go/internal/telemetry/logger"
	"github.com/yndnr/snapwatch-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("snapwatch-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting snapwatch-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile,
		"sources", len(cfg.Sources))
	log.Debug("effective configuration", "config", fmt.Sprintf("%+v", *config.Sanitize(cfg)))

	var keyPair *tlsroots.KeyPair
	if cfg.Server.HTTP.TLSCertFile != "" {
		keyPair, err = tlsroots.LoadKeyPair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(slogLogger))
		if err != nil {
			return fmt.Errorf("load TLS certificate: %w", err)
		}
	}

	metrics := metric.NewRegistry()

	manager, err := service.NewManager(cfg, service.ManagerOptions{
		Logger:  slogLogger,
		Metrics: metrics,
		Sinks:   []service.Sink{service.NewLogSink(slogLogger)},
	})
	if err != nil {
		return fmt.Errorf("init sources: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Watcher:   manager,
		Logger:    slogLogger,
		Metrics:   metrics,
		RateLimit: cfg.Server.HTTP.RateLimit,
		RateBurst: cfg.Server.HTTP.RateBurst,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout)

	// Hooks run in reverse order of registration.
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping pollers")
		return manager.Stop()
	})
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	var localServer *localserver.Server
	if socket := cfg.Server.Local.Socket; socket != "" {
		localServer = localserver.New(socket, router, slogLogger)
		if err := localServer.Listen(); err != nil {
			manager.Stop()
			return fmt.Errorf("local socket: %w", err)
		}
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down local socket")
			return localServer.Shutdown(ctx)
		})
	}

	if *configFile != "" || keyPair != nil {
		watcher, err := watchFiles(*configFile, keyPair, slogLogger)
		if err != nil {
			log.Warn("file watching disabled", "error", err)
		} else {
			shutdownHandler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	if err := manager.Start(context.Background()); err != nil {
		return fmt.Errorf("start pollers: %w", err)
	}

	go func() {
		var err error
		if keyPair != nil {
			log.Info("HTTPS server listening", "addr", cfg.Server.HTTP.Addr, "cert_expires", keyPair.NotAfter())
			err = httpServer.ListenAndServeTLS(keyPair.ServerConfig())
		} else {
			log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)
			err = httpServer.ListenAndServe()
		}
		if err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger()
		}
	}()

	if localServer != nil {
		go func() {
			if err := localServer.Serve(); err != nil {
				log.Error("local socket error", "error", err)
				shutdownHandler.Trigger()
			}
		}()
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// initLogger initializes the structured logger.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}

	logger.SetDefault(log)
	return log, log.Slog(), nil
}

// watchFiles starts one file watcher for the configuration file and the
// TLS key pair. Configuration edits are re-verified and the log level is
// applied immediately; other edits take effect on restart. Certificate
// edits are picked up by the key pair.
func watchFiles(configPath string, keyPair *tlsroots.KeyPair, log *slog.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}

	if keyPair != nil {
		if err := keyPair.Watch(w); err != nil {
			w.Stop()
			return nil, err
		}
	}

	if configPath != "" {
		if err := w.Watch(configPath); err != nil {
			w.Stop()
			return nil, err
		}
		configAbs, _ := filepath.Abs(configPath)
		w.OnChange(func(path string) {
			if path != configAbs {
				return
			}
			reloadConfig(configPath, log)
		})
	}

	w.StartAsync()
	return w, nil
}

func reloadConfig(path string, log *slog.Logger) {
	cfg, err := config.Load(path)
	if err != nil {
		log.Error("configuration change rejected", "file", path, "error", err)
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		log.Error("log level not applied", "level", cfg.Log.Level, "error", err)
	}
	log.Warn("configuration changed, restart to apply source and server settings",
		"file", path,
		"sources", len(cfg.Sources),
		"log_level", logger.GetLevel())
}

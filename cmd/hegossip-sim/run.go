package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hsiuhsiu/hegossip-go/internal/appconfig"
	"github.com/hsiuhsiu/hegossip-go/internal/experiment"
	"github.com/hsiuhsiu/hegossip-go/internal/metrics"
	"github.com/hsiuhsiu/hegossip-go/internal/store"
	"github.com/hsiuhsiu/hegossip-go/pkg/hegossip/logging"
)

// loadConfig parses args against the shared flags plus any registered by
// extra, then resolves the configuration.
func loadConfig(name string, args []string, extra func(*pflag.FlagSet)) (appconfig.AppConfig, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	appconfig.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return appconfig.AppConfig{}, nil, err
	}
	path, _ := fs.GetString("config")
	cfg, err := appconfig.Load(path, fs)
	return cfg, fs, err
}

func runCommand(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, _, err := loadConfig("run", args, nil)
	if err != nil {
		return err
	}

	zl, closeLog, err := cfg.Log.NewLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	reg := metrics.DefaultRegistry()
	if cfg.Metrics.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           metrics.NewRouter(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		zl.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
	}

	derived := cfg.Consensus.Derive()
	pk, sk, err := experiment.Keys(derived, cfg.Experiment)
	if err != nil {
		return err
	}

	runner, err := experiment.NewRunner(cfg.Consensus, cfg.Experiment, pk, sk,
		experiment.WithLogger(logging.NewZap(zl)),
		experiment.WithObserver(reg),
	)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Store.Path != "" {
		reports, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer reports.Close()
		id, err := reports.Put(report)
		if err != nil {
			return err
		}
		report.ID = id
		zl.Info("report stored", zap.String("id", id), zap.String("path", cfg.Store.Path))
	}

	out, err := report.Encode()
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = stdout.Write(out)
	return err
}

package main

import (
	"fmt"
	"os"

	"github.com/atinylittleshell/cmdsieve/internal/bash"
	"github.com/atinylittleshell/cmdsieve/internal/core"
	"github.com/atinylittleshell/cmdsieve/internal/history"
	"github.com/atinylittleshell/cmdsieve/internal/sieve"
	"github.com/atinylittleshell/cmdsieve/internal/settings"
	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// app holds the components shared by all subcommands.
type app struct {
	settings  *settings.Settings
	logger    *zap.Logger
	templates *templates.Manager
	history   *history.HistoryManager
	service   *sieve.Service
}

func (a *app) init(v *viper.Viper) error {
	s, err := settings.Load(v)
	if err != nil {
		return err
	}
	a.settings = s

	logger, err := initializeLogger(s.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.logger.Info("-------- new cmdsieve session --------", zap.Any("args", os.Args))

	a.templates = templates.NewManager(templates.ManagerOptions{
		Logger:     logger,
		CacheTTL:   s.CacheTTL,
		ConfigFile: s.ConfigFile,
	})

	opts := sieve.Options{
		Logger:    logger,
		Executor:  bash.NewExecutor(logger, bash.NewLoggingExecMiddleware(logger)),
		Templates: a.templates,
	}

	if s.History {
		historyManager, err := history.NewHistoryManager(core.HistoryFile())
		if err != nil {
			// History is a convenience; keep running without it.
			logger.Warn("history disabled", zap.Error(err))
		} else {
			a.history = historyManager
			opts.History = historyManager
		}
	}

	service, err := sieve.NewService(opts)
	if err != nil {
		return err
	}
	a.service = service

	return nil
}

// requireHistory returns the history manager, opening it even when recording
// is disabled so past entries can still be listed.
func (a *app) requireHistory() (*history.HistoryManager, error) {
	if a.history != nil {
		return a.history, nil
	}
	historyManager, err := history.NewHistoryManager(core.HistoryFile())
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.history = historyManager
	return historyManager, nil
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("failed to close history", zap.Error(err))
		}
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

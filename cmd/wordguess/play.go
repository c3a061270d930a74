package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriscow/wordguess/pkg/config"
	"github.com/chriscow/wordguess/pkg/game"
	"github.com/chriscow/wordguess/pkg/history"
	"github.com/chriscow/wordguess/pkg/plugin"
	"github.com/chriscow/wordguess/pkg/telemetry"
	"github.com/chriscow/wordguess/pkg/transcribe"
	"github.com/chriscow/wordguess/pkg/version"
)

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play one game (the default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := applyPlayFlags(cmd, &cfg); err != nil {
				return err
			}

			logger := setupLogger(cfg.Log, cmd.ErrOrStderr())
			logger.Info("Starting game",
				slog.String("service", "wordguess"),
				slog.String("version", version.Version),
				slog.String("recognizer", cfg.Recognizer.Name),
				slog.String("microphone", cfg.Microphone.Name))

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runPlay(ctx, cmd, cfg, logger)
		},
	}

	cmd.Flags().String("recognizer", "", "Recognizer plugin to use (overrides config)")
	cmd.Flags().String("microphone", "", "Microphone plugin to use (overrides config)")
	cmd.Flags().Uint64("seed", 0, "Seed for the word choice (0 picks a random seed)")
	cmd.Flags().Bool("no-history", false, "Do not record this game")
	cmd.Flags().Bool("reveal", false, "Print the secret word before play")
	return cmd
}

func applyPlayFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if name, _ := flags.GetString("recognizer"); name != "" {
		cfg.Recognizer.Name = name
	}
	if name, _ := flags.GetString("microphone"); name != "" {
		cfg.Microphone.Name = name
	}
	if flags.Changed("seed") {
		seed, err := flags.GetUint64("seed")
		if err != nil {
			return err
		}
		cfg.Game.Seed = seed
	}
	if off, _ := flags.GetBool("no-history"); off {
		cfg.History.Enabled = false
	}
	if reveal, _ := flags.GetBool("reveal"); reveal {
		cfg.Game.RevealWord = true
	}
	return nil
}

func runPlay(ctx context.Context, cmd *cobra.Command, cfg config.Config, logger *slog.Logger) error {
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	rec, err := plugin.NewRecognizer(cfg.Recognizer.Name, cfg.Recognizer.Options)
	if err != nil {
		return err
	}
	m, err := plugin.NewMicrophone(cfg.Microphone.Name, cfg.Microphone.Options)
	if err != nil {
		return err
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(ctx, cfg.History.Path, logger)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	opts := transcribe.Options{
		Listener: cfg.Listener,
		Language: cfg.Language,
		Logger:   logger,
	}
	g, err := game.New(game.Config{
		Settings: cfg.Game,
		Transcribe: func(ctx context.Context) transcribe.Result {
			return transcribe.FromMicrophone(ctx, m, rec, opts)
		},
		Out:    cmd.OutOrStdout(),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	report, playErr := g.Play(ctx)

	metrics := g.Metrics()
	logger.Debug("Game metrics",
		slog.Int64("prompts", metrics.Prompts.Value()),
		slog.String("phase_transitions", metrics.PhaseTransitions.String()))

	if playErr != nil {
		if errors.Is(playErr, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Interrupted.")
			return &statusError{code: exitInterrupted}
		}
		return playErr
	}

	if store != nil {
		id, err := store.Record(context.Background(), report)
		if err != nil {
			logger.Warn("Failed to record game", slog.String("error", err.Error()))
		} else {
			logger.Info("Game recorded", slog.String("id", id))
		}
		if cfg.History.Keep > 0 {
			if _, err := store.Prune(context.Background(), cfg.History.Keep); err != nil {
				logger.Warn("Failed to prune history", slog.String("error", err.Error()))
			}
		}
	}

	switch report.Outcome {
	case game.OutcomeLost:
		return &statusError{code: exitLost}
	case game.OutcomeAborted:
		return &statusError{code: exitAborted}
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chriscow/wordguess/pkg/audio"
	"github.com/chriscow/wordguess/pkg/history"
	"github.com/chriscow/wordguess/pkg/plugin"
	"github.com/chriscow/wordguess/pkg/speech"
	"github.com/chriscow/wordguess/pkg/transcribe"
	"github.com/chriscow/wordguess/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersionInfo())
		},
	}
}

// recognizeOutput is the printed form of a transcribe.Result.
type recognizeOutput struct {
	File          string `yaml:"file"`
	Success       bool   `yaml:"success"`
	Error         string `yaml:"error,omitempty"`
	Transcription string `yaml:"transcription,omitempty"`
}

func newRecognizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Transcribe a WAV file with the configured recognizer",
		RunE: func(cmd *cobra.Command, args []string) error {
			filePath, _ := cmd.Flags().GetString("file")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if name, _ := cmd.Flags().GetString("recognizer"); name != "" {
				cfg.Recognizer.Name = name
			}
			if lang, _ := cmd.Flags().GetString("language"); lang != "" {
				cfg.Language = lang
			}

			logger := setupLogger(cfg.Log, cmd.ErrOrStderr())
			logger.Info("Starting recognition",
				slog.String("file", filePath),
				slog.String("recognizer", cfg.Recognizer.Name))

			clip, err := audio.ReadWAVFile(filePath)
			if err != nil {
				return err
			}
			rec, err := plugin.NewRecognizer(cfg.Recognizer.Name, cfg.Recognizer.Options)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result := transcribe.Recognize(ctx, rec, speech.Request{Clip: clip, Language: cfg.Language}, logger)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(recognizeOutput{
				File:          filePath,
				Success:       result.Success,
				Error:         result.Error,
				Transcription: result.Transcription,
			}); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if result.Fatal() {
				return &statusError{code: exitError}
			}
			return nil
		},
	}

	cmd.Flags().String("file", "", "Path to WAV file to transcribe")
	cmd.Flags().String("recognizer", "", "Recognizer plugin to use (overrides config)")
	cmd.Flags().String("language", "", "Language tag such as en-US (overrides config)")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins [kind]",
		Short: "List registered plugins",
		Long: `List all registered plugins or plugins of a specific kind.
Available kinds: recognizer, microphone`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Dynamic plugins from the configured directory show up here too.
			if _, err := loadConfig(cmd); err != nil {
				return err
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			out := cmd.OutOrStdout()

			kind := ""
			if len(args) > 0 {
				kind = args[0]
			}

			plugins := plugin.List(kind)
			if len(plugins) == 0 {
				if kind == "" {
					fmt.Fprintln(out, "No plugins registered")
				} else {
					fmt.Fprintf(out, "No plugins registered for kind: %s\n", kind)
				}
				return nil
			}

			fmt.Fprintf(out, "%-11s %-10s %-8s %s\n", "KIND", "NAME", "VERSION", "DESCRIPTION")
			fmt.Fprintln(out, strings.Repeat("-", 70))
			for _, p := range plugins {
				ver := p.Version
				if ver == "" {
					ver = "N/A"
				}
				description := p.Description
				if description == "" {
					description = "No description"
				}
				fmt.Fprintf(out, "%-11s %-10s %-8s %s\n", p.Kind, p.Name, ver, description)

				if verbose && len(p.Config) > 0 {
					keys := make([]string, 0, len(p.Config))
					for k := range p.Config {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						fmt.Fprintf(out, "%32s %s: %v\n", "", k, p.Config[k])
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolP("verbose", "v", false, "Show default options")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently played games",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.Log, cmd.ErrOrStderr())

			if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "No games recorded yet")
				return nil
			}

			store, err := history.Open(cmd.Context(), cfg.History.Path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			return printHistory(cmd.Context(), cmd, store, limit)
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of games to show")
	return cmd
}

func printHistory(ctx context.Context, cmd *cobra.Command, store *history.Store, limit int) error {
	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No games recorded yet")
		return nil
	}

	fmt.Fprintf(out, "%-19s %-8s %-10s %-7s %s\n", "STARTED", "OUTCOME", "WORD", "ROUNDS", "GUESSES")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, e := range entries {
		guesses := make([]string, 0, len(e.Guesses))
		for _, g := range e.Guesses {
			switch {
			case g.Transcription != "":
				guesses = append(guesses, fmt.Sprintf("%q", g.Transcription))
			case g.Error != "":
				guesses = append(guesses, "("+g.Error+")")
			default:
				guesses = append(guesses, "-")
			}
		}
		fmt.Fprintf(out, "%-19s %-8s %-10s %-7d %s\n",
			e.StartedAt.Local().Format(time.DateTime),
			e.Outcome, e.Target, len(e.Guesses), strings.Join(guesses, ", "))
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/chriscow/wordguess/pkg/config"
	"github.com/chriscow/wordguess/pkg/plugin"
	_ "github.com/chriscow/wordguess/pkg/plugin/exec"      // Import to register the exec recognizer
	_ "github.com/chriscow/wordguess/pkg/plugin/fake"      // Import to register fake recognizer and tone microphone
	_ "github.com/chriscow/wordguess/pkg/plugin/google"    // Import to register the Google recognizer
	_ "github.com/chriscow/wordguess/pkg/plugin/openai"    // Import to register the Whisper recognizer
	_ "github.com/chriscow/wordguess/pkg/plugin/portaudio" // Import to register the portaudio microphone
	_ "github.com/chriscow/wordguess/pkg/plugin/vosk"      // Import to register the Vosk recognizer
	_ "github.com/chriscow/wordguess/pkg/plugin/wavfile"   // Import to register the WAV microphone
)

// Process exit statuses.
const (
	exitWon         = 0
	exitError       = 1
	exitLost        = 2
	exitAborted     = 3
	exitInterrupted = 130
)

// statusError carries a non-zero status out of a command without printing a
// usage error.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error { return e.err }

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "wordguess",
		Short: "Guess the word the computer is thinking of, out loud",
		Long: `wordguess picks a word from a short list and gives you a few rounds to
guess it by speaking into the microphone. Speech is transcribed by a
pluggable recognizer (google, openai, vosk, exec or fake).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (default ./"+config.DefaultPath+" when present)")
	root.PersistentFlags().String("env-file", ".env", "Environment file loaded before the config")

	play := newPlayCmd()
	root.RunE = play.RunE
	root.Flags().AddFlagSet(play.Flags())

	root.AddCommand(
		play,
		newRecognizeCmd(),
		newPluginsCmd(),
		newHistoryCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the .env file, the YAML config and any dynamic plugins.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if cfg.PluginDir != "" {
		n, err := plugin.LoadDynamicPlugins(cfg.PluginDir)
		if err != nil {
			return config.Config{}, fmt.Errorf("load plugins from %s: %w", cfg.PluginDir, err)
		}
		slog.Debug("Dynamic plugins loaded", slog.String("directory", cfg.PluginDir), slog.Int("count", n))
	}
	return cfg, nil
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{}

	switch strings.ToLower(cfg.Level) {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelWarn
	}

	// Logs stay off stdout, which belongs to the game.
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func execute(args []string, stdout, stderr io.Writer) int {
	return executeContext(context.Background(), args, stdout, stderr)
}

// executeContext runs the CLI until it finishes or ctx is cancelled, which
// play treats like an interrupt.
func executeContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitWon
	}

	var exit *statusError
	if errors.As(err, &exit) {
		if exit.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", exit.err)
		}
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

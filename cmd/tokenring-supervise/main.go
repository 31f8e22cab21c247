// Command tokenring-supervise runs the TokenRing Coder backend without a
// window, under the same supervision rules as the desktop app.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenring-ai/coder-desktop/internal/config"
	"github.com/tokenring-ai/coder-desktop/internal/instance"
	"github.com/tokenring-ai/coder-desktop/internal/logging"
	"github.com/tokenring-ai/coder-desktop/internal/notify"
	"github.com/tokenring-ai/coder-desktop/internal/supervisor"
	"github.com/tokenring-ai/coder-desktop/internal/version"
)

// errBackendFailed makes the command exit non-zero when the backend dies on its own.
var errBackendFailed = errors.New("backend stopped unexpectedly")

type flags struct {
	configFile string
	envFile    string
	dataDir    string
	notify     bool
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "tokenring-supervise",
		Short:         "Run the " + version.Name + " backend without the desktop window",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, f)
		},
	}
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Configuration file (default: ~/.tokenring/desktop.yaml if present)")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "Dotenv file loaded before the environment")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Backend data directory (overrides configuration)")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "Show a desktop notification when the backend fails")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging")
	return cmd
}

func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(config.LoadOptions{ConfigFile: f.configFile, EnvFile: f.envFile})
	if err != nil {
		return err
	}
	if f.dataDir != "" {
		cfg.Backend.DataDirectory = f.dataDir
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}

	logs, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File, Console: true})
	if err != nil {
		return err
	}
	defer logs.Close()
	log := logs.Component("supervise")

	lock, err := instance.Acquire(cfg.Backend.DataDirectory)
	if err != nil {
		return err
	}
	defer lock.Release()

	var notifier supervisor.Notifier = supervisor.NotifierFunc(func(message string) {
		log.Error().Msg(message)
	})
	if f.notify {
		desktop := notify.NewNotifier(logs.Component("notify"))
		notifier = supervisor.NotifierFunc(func(message string) {
			log.Error().Msg(message)
			desktop.BackendError(message)
		})
	}

	sup := supervisor.New(supervisor.Options{
		Command:     cfg.Backend.Command,
		Script:      cfg.Backend.Script,
		Args:        cfg.Backend.Args(),
		Listen:      cfg.Backend.Address(),
		GracePeriod: cfg.Backend.GracePeriod,
		Notifier:    notifier,
		Logger:      logs.Component("supervisor"),
	})

	log.Info().Str("version", version.Full()).Str("listen", cfg.Backend.Address()).Str("lock", lock.Path()).Msg("Starting backend")
	if err := sup.Start(ctx); err != nil {
		return err
	}

	select {
	case <-sup.Done():
		rec := sup.Record()
		log.Warn().Int("code", rec.ExitCode).Str("signal", rec.Signal).Msg("Backend exited")
		if rec.ExitCode != 0 {
			return fmt.Errorf("%w (exit code %d)", errBackendFailed, rec.ExitCode)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Signal received, stopping backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.GracePeriod+supervisor.DefaultKillWait+time.Second)
	defer cancel()
	return sup.Shutdown(shutdownCtx)
}

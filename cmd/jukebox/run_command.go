package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"jukebox/internal/config"
	"jukebox/internal/daemon"
	"jukebox/internal/logging"
	"jukebox/internal/preflight"
)

const logHubCapacity = 4096

func newRunCommand(ctx *commandContext) *cobra.Command {
	var diagnostic bool
	var skipPreflight bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the jukebox player in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !skipPreflight {
				if err := preflight.Error(preflight.RunAll(cfg)); err != nil {
					return err
				}
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			sessionID := uuid.NewString()
			hub := logging.NewStreamHub(logHubCapacity)
			logger, err := logging.NewFromConfig(cfg, sessionID, hub, keyboardOwnsTerminal(cfg))
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if diagnostic {
				logger = attachDiagnosticLog(logger, cfg, sessionID)
			}
			if err := ensureCurrentLogPointer(cfg.Paths.LogDir); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: unable to update jukebox.log link: %v\n", err)
			}
			logDependencySnapshot(logger, cfg, ctx.configPath)

			d, err := daemon.New(cfg, logger, hub, sessionID)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			err = d.Run(signalCtx)
			if errors.Is(err, daemon.ErrAlreadyRunning) {
				return fmt.Errorf("%w (lock %s)", err, cfg.LockPath())
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&diagnostic, "diagnostic", false, "Also write DEBUG logs as JSON to the debug log directory")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Start even when directory or dependency checks fail")
	return cmd
}

// keyboardOwnsTerminal reports whether the keyboard frontend will read the
// controlling terminal, in which case console logging would garble it.
func keyboardOwnsTerminal(cfg *config.Config) bool {
	if cfg == nil || !cfg.Frontend.Keyboard {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func attachDiagnosticLog(logger *slog.Logger, cfg *config.Config, sessionID string) *slog.Logger {
	debugPath := logging.DiagnosticLogPath(cfg.Paths.LogDir, sessionID)
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to create debug log directory: %v\n", err)
		return logger
	}
	debugLogger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{debugPath},
		Development: true,
		SessionID:   sessionID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", err)
		return logger
	}
	logger = logging.TeeLogger(logger, debugLogger.Handler())
	logger.Info("diagnostic mode enabled",
		logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		logging.String("debug_log_path", debugPath))
	return logger
}

// ensureCurrentLogPointer points jukebox.log at today's log file.
func ensureCurrentLogPointer(logDir string) error {
	if logDir == "" {
		return nil
	}
	target := logging.LogFileName(time.Now())
	current := filepath.Join(logDir, "jukebox.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config, configPath string) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("config_path", configPath),
		logging.String("albums_dir", cfg.Paths.AlbumsDir),
		logging.Bool("clips_enabled", cfg.Paths.ClipsDir != ""),
		logging.Bool("history_enabled", cfg.History.Enabled),
		logging.Bool("keyboard", cfg.Frontend.Keyboard),
		logging.Bool("evdev", cfg.Frontend.Evdev),
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		attrs = append(attrs,
			logging.Bool("engine_available", dep.Available),
			logging.String("engine_binary", dep.Command))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
}

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/skygen/skydesk/internal/authbridge"
	"github.com/skygen/skydesk/internal/config"
	"github.com/skygen/skydesk/internal/daemon"
	"github.com/skygen/skydesk/internal/hotkeys"
	"github.com/skygen/skydesk/internal/ipc"
	"github.com/skygen/skydesk/internal/outline"
	"github.com/skygen/skydesk/internal/overlay"
	"github.com/skygen/skydesk/internal/platform"
	"github.com/skygen/skydesk/internal/runtimepath"
)

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// launchPalette runs "skydesk palette" as a separate process so the launcher
// never blocks the event loop.
func launchPalette(logger *slog.Logger) {
	exe, err := os.Executable()
	if err != nil {
		logger.Error("palette: failed to find executable", "error", err)
		return
	}
	cmd := exec.Command(exe, "palette")
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		logger.Error("palette: failed to launch", "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("palette exited with error", "error", err)
		}
	}()
}

func runDaemon() int {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var level slog.LevelVar
	level.Set(parseLevel(cfg.Logging.Level))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level}))
	logger.Info("configuration loaded", "hotkey", cfg.Hotkey, "display", cfg.Display)

	backend, err := platform.New(cfg.Display, logger.With("component", "platform"))
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}

	supervisor := outline.NewSupervisor(outline.Options{
		Locator:      outline.NewLocator(cfg.HelperPath(), cfg.Outline.RelativePath, cfg.Outline.InstallRelativePath),
		HelperName:   cfg.Outline.HelperName,
		Sweep:        cfg.SweepMode(),
		WriteTimeout: cfg.WriteTimeout(),
		KillTimeout:  cfg.KillTimeout(),
		Logger:       logger.With("component", "outline"),
	})
	windows := overlay.NewWindowManager(backend, overlay.WindowOptions{
		MainTitle:  cfg.MainWindowTitle,
		DimOpacity: cfg.Dim.Opacity,
	})
	controller := overlay.NewController(windows, supervisor, overlay.Options{
		PanelWidth:  cfg.Panel.Width,
		PanelHeight: cfg.Panel.Height,
		Logger:      logger.With("component", "overlay"),
	})
	logger.Info("overlay controller ready", "backend", backend.Capabilities().Backend)

	if handler, err := hotkeys.NewHandler(backend, logger.With("component", "hotkeys")); err != nil {
		logger.Warn("global hotkeys unavailable", "error", err)
	} else {
		if err := handler.RegisterToggle(cfg.Hotkey, controller); err != nil {
			logger.Warn("failed to register toggle hotkey", "hotkey", cfg.Hotkey, "error", err)
		} else {
			logger.Info("toggle hotkey registered", "hotkey", cfg.Hotkey)
		}
		if cfg.Palette.Hotkey != "" {
			if err := handler.RegisterFunc(cfg.Palette.Hotkey, func() { launchPalette(logger) }); err != nil {
				logger.Warn("failed to register palette hotkey", "hotkey", cfg.Palette.Hotkey, "error", err)
			} else {
				logger.Info("palette hotkey registered", "hotkey", cfg.Palette.Hotkey)
			}
		}
	}

	bridge := authbridge.New(authbridge.Options{
		Python:        cfg.Auth.Python,
		Script:        cfg.Auth.Script,
		InstallScript: cfg.Auth.InstallScript,
		Timeout:       cfg.AuthTimeout(),
		Logger:        logger.With("component", "auth"),
	})

	// Only the log level applies live; everything else is read at startup.
	reload := func() error {
		newCfg, err := config.Load()
		if err != nil {
			logger.Error("config reload failed", "error", err)
			return err
		}
		level.Set(parseLevel(newCfg.Logging.Level))
		if newCfg.Hotkey != cfg.Hotkey || newCfg.Display != cfg.Display {
			logger.Warn("hotkey and display changes take effect after restart")
		}
		logger.Info("config reloaded", "log_level", newCfg.Logging.Level)
		return nil
	}

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}
	ipcServer := ipc.NewServer(socketPath, controller, bridge, reload, ipc.WithLogger(logger.With("component", "ipc")))
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	logger.Info("ipc server listening", "socket", socketPath)

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval(),
		Logger:   logger.With("component", "reconciler"),
	}, controller)
	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	go reconciler.Run(reconcilerCtx)

	done := make(chan struct{})
	var shutdownOnce sync.Once
	shutdown := func() {
		shutdownOnce.Do(func() {
			logger.Info("shutting down skydesk daemon")
			reconcilerCancel()
			ipcServer.Stop()
			controller.Shutdown()
			backend.Shutdown()
			close(done)
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				logger.Info("received SIGHUP, reloading config")
				_ = reload()
				continue
			}
			shutdown()
			return
		}
	}()

	if looper, ok := backend.(platform.EventLooper); ok {
		logger.Info("entering event loop")
		looper.EventLoop()
		// The loop also ends when the X connection drops.
		shutdown()
	}
	<-done
	return 0
}

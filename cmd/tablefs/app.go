package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/desertwitch/tablefs/internal/mount"
	"github.com/desertwitch/tablefs/internal/ui"
	"github.com/lmittmann/tint"
)

const (
	terminalLogHandler = "terminal"
	uiLogHandler       = "ui"

	uiPollInterval = 10 * time.Millisecond
)

// App mounts a filesystem and optionally shows the dashboard while it is
// mounted.
type App struct {
	mountpoint string
	fsys       *mount.FS
	uiHandler  *ui.Handler
	logs       *SlogManager
	logLevel   slog.Level
}

func NewApp(mountpoint string, fsys *mount.FS, uiHandler *ui.Handler, logs *SlogManager, logLevel slog.Level) *App {
	return &App{
		mountpoint: mountpoint,
		fsys:       fsys,
		uiHandler:  uiHandler,
		logs:       logs,
		logLevel:   logLevel,
	}
}

// Launch serves the filesystem until it is unmounted or the context is
// cancelled.
func (app *App) Launch(ctx context.Context) error {
	if err := mount.Serve(ctx, app.mountpoint, app.fsys); err != nil {
		return fmt.Errorf("(app) %w", err)
	}

	return nil
}

// LaunchUI shows the dashboard until it is closed. Logs are written into the
// dashboard instead of the terminal meanwhile.
func (app *App) LaunchUI() error {
	app.logs.AddHandler(uiLogHandler, tint.NewHandler(app.uiHandler.LogWriter, &tint.Options{
		Level:      app.logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    true,
	}))
	app.logs.RemoveHandler(terminalLogHandler)

	defer func() {
		app.logs.AddHandler(terminalLogHandler, newTerminalHandler(app.logLevel))
		app.logs.RemoveHandler(uiLogHandler)
	}()

	if err := app.uiHandler.Launch(); err != nil {
		return fmt.Errorf("(app-ui) %w", err)
	}

	return nil
}

// waitForUI blocks until the dashboard has started or failed to start.
func (app *App) waitForUI(ctx context.Context) {
	if app.uiHandler == nil {
		return
	}

	ticker := time.NewTicker(uiPollInterval)
	defer ticker.Stop()

	for {
		if app.uiHandler.Initialized.Load() || app.uiHandler.Failed.Load() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Command tablefs mounts an in-memory filesystem backed by a fixed-size inode
// table, which is saved to a snapshot file and restored on the next mount.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/desertwitch/tablefs/internal/configuration"
	"github.com/desertwitch/tablefs/internal/filesystem"
	"github.com/desertwitch/tablefs/internal/mount"
	"github.com/desertwitch/tablefs/internal/schema"
	"github.com/desertwitch/tablefs/internal/ui"
	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
)

const (
	stackTraceBufMax = 1 << 24
)

//nolint:gochecknoglobals
var (
	ExitCode = 0
	Version  string

	fileDisk   = flag.String("filedisk", configuration.DefaultFileDisk, "snapshot file to restore from and save to")
	configFile = flag.String("config", "", "optional env file with the filesystem configuration")
	uiEnabled  = flag.Bool("ui", true, "enable the UI")
	debug      = flag.Bool("debug", false, "enable debug logs")
)

func newTerminalHandler(level slog.Level) slog.Handler {
	return tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
}

func setupLogging(level slog.Level) *SlogManager {
	logs := NewSlogManager()
	logs.AddHandler(terminalLogHandler, newTerminalHandler(level))

	slog.SetDefault(slog.New(logs))

	return logs
}

func setupSignalHandlers(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	sigChan2 := make(chan os.Signal, 1)
	signal.Notify(sigChan2, syscall.SIGUSR1)
	go func() {
		for range sigChan2 {
			buf := make([]byte, stackTraceBufMax)
			stacklen := runtime.Stack(buf, true)
			os.Stderr.Write(buf[:stacklen])
		}
	}()
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] MOUNTPOINT\n\n", os.Args[0])
	flag.PrintDefaults()
}

// loadConfig reads the env file, if any, and applies the flags given on the
// command line on top of it.
func loadConfig() (configuration.Config, error) {
	configHandler := configuration.NewHandler(&configuration.GodotenvProvider{})

	var files []string
	if *configFile != "" {
		files = append(files, *configFile)
	}

	config, err := configHandler.Load(files...)
	if err != nil {
		return config, fmt.Errorf("(main-config) %w", err)
	}

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "filedisk" {
			config.FileDisk = *fileDisk
		}
	})

	return config, nil
}

func startApp(ctx context.Context, cancel context.CancelFunc, wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	// An unmount from outside also ends the UI.
	defer cancel()

	app.waitForUI(ctx)

	if err := app.Launch(ctx); err != nil {
		slog.Error("Failed to serve filesystem.",
			"mountpoint", app.mountpoint,
			"err", err,
		)
		ExitCode = 1
	}
}

func startUI(wg *sync.WaitGroup, app *App) {
	defer wg.Done()

	if app.uiHandler != nil {
		if err := app.LaunchUI(); err != nil {
			slog.Error("UI failure: falling back to terminal.", "err", err)
		}
	}
}

func main() {
	defer func() {
		os.Exit(ExitCode)
	}()

	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		ExitCode = 2

		return
	}
	mountpoint := flag.Arg(0)

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logs := setupLogging(logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setupSignalHandlers(cancel)

	if Version != "" {
		slog.Info("Starting tablefs", "version", Version)
	}

	config, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration.",
			"path", *configFile,
			"err", err,
		)
		ExitCode = 1

		return
	}

	owner := schema.Caller{UID: uint32(os.Getuid()), GID: uint32(os.Getgid())} //nolint:gosec

	engine, err := filesystem.NewHandler(config.Limits, owner)
	if err != nil {
		slog.Error("Failed to establish filesystem engine.",
			"err", err,
		)
		ExitCode = 1

		return
	}

	storage := afero.NewOsFs()

	if err := engine.Restore(storage, config.FileDisk, owner); err != nil {
		slog.Error("Failed to restore filesystem.",
			"path", config.FileDisk,
			"err", err,
		)
		ExitCode = 1

		return
	}

	fsys := mount.NewFS(engine, mount.Options{
		Storage:     storage,
		FileDisk:    config.FileDisk,
		SaveOnFlush: config.SaveOnFlush,
	})

	var uiHandler *ui.Handler
	if *uiEnabled {
		uiHandler = ui.NewHandler(ctx, cancel, fsys, mountpoint)
	}

	app := NewApp(mountpoint, fsys, uiHandler, logs, logLevel)

	var wg sync.WaitGroup

	wg.Add(1)
	go startUI(&wg, app)

	wg.Add(1)
	go startApp(ctx, cancel, &wg, app)

	wg.Wait()
}

// Package ui implements a command-line dashboard for a mounted filesystem
// using [tea].
package ui

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertwitch/tablefs/internal/mount"
)

type statsProvider interface {
	Stats() mount.Stats
}

// Handler is the principal implementation of a user interface [Handler].
type Handler struct {
	stats      statsProvider
	mountpoint string
	program    *tea.Program

	LogWriter *TeaLogWriter

	Initialized atomic.Bool
	Failed      atomic.Bool
}

// NewHandler returns a pointer to a new user interface [Handler], showing the
// statistics of the filesystem mounted at mountpoint.
func NewHandler(ctx context.Context, cancel context.CancelFunc, stats statsProvider, mountpoint string) *Handler {
	handler := &Handler{
		stats:      stats,
		mountpoint: mountpoint,
	}

	model := NewTeaModel(handler, cancel)
	handler.program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	handler.LogWriter = NewTeaLogWriter(handler.program)

	return handler
}

// Launch starts the command-line user interface (the [tea.Program]) and
// blocks until it has ended.
func (uiHandler *Handler) Launch() error {
	defer uiHandler.LogWriter.Stop()

	if _, err := uiHandler.program.Run(); err != nil {
		uiHandler.Failed.Store(true)

		return fmt.Errorf("(ui) %w", err)
	}

	return nil
}

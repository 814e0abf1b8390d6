package mount

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("device or resource busy")

// TestUnmountOnCancel_Success_Retry verifies that a busy mountpoint is
// unmounted again until it succeeds.
func TestUnmountOnCancel_Success_Retry(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	defer close(done)

	var calls atomic.Int32
	unmount := func(mountpoint string) error {
		assert.Equal(t, "/mnt/test", mountpoint)

		if calls.Add(1) < 3 {
			return errBusy
		}

		return nil
	}

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		unmountOnCancel(ctx, done, "/mnt/test", unmount, time.Millisecond)
	}()

	cancel()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("unmount was not retried until success")
	}

	assert.Equal(t, int32(3), calls.Load())
}

// TestUnmountOnCancel_Success_Done verifies that nothing is unmounted when
// serving ends on its own, and that retries stop once it has ended.
func TestUnmountOnCancel_Success_Done(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cancel    bool
		wantCalls bool
	}{
		{"Success_EndedBeforeCancel", false, false},
		{"Success_EndedWhileRetrying", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			done := make(chan struct{})

			var calls atomic.Int32
			unmount := func(string) error {
				calls.Add(1)

				return errBusy
			}

			finished := make(chan struct{})
			go func() {
				defer close(finished)
				unmountOnCancel(ctx, done, "/mnt/test", unmount, time.Millisecond)
			}()

			if tt.cancel {
				cancel()
				require.Eventually(t, func() bool { return calls.Load() > 1 }, 5*time.Second, time.Millisecond)
			}

			close(done)

			select {
			case <-finished:
			case <-time.After(5 * time.Second):
				t.Fatal("unmount loop did not end")
			}

			if !tt.wantCalls {
				assert.Zero(t, calls.Load())
			}
		})
	}
}

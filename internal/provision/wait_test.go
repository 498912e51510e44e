package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestWaitForDirAlreadyExists(t *testing.T) {
	defer goleak.VerifyNone(t)

	require.NoError(t, WaitForDir(context.Background(), t.TempDir(), time.Second, zap.NewNop()))
}

func TestWaitForDirAppearsLater(t *testing.T) {
	defer goleak.VerifyNone(t)

	base := t.TempDir()
	target := filepath.Join(base, "unpack", "usr")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.MkdirAll(target, 0755)
	}()

	require.NoError(t, WaitForDir(context.Background(), target, 5*time.Second, zap.NewNop()))
}

func TestWaitForDirTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := filepath.Join(t.TempDir(), "never")
	err := WaitForDir(context.Background(), target, 100*time.Millisecond, zap.NewNop())
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestWaitForDirCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	// Zero timeout means wait indefinitely; cancellation must end it.
	err := WaitForDir(ctx, filepath.Join(t.TempDir(), "never"), 0, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}

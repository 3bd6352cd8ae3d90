package infra

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMonitorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o755))

	ch := monitorFile(path, 10*time.Millisecond)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("modification was not reported")
	}
}

func TestMonitorFileSeesImmediateChange(t *testing.T) {
	for i := 0; i < 5; i++ {
		path := filepath.Join(t.TempDir(), "bot")
		require.NoError(t, os.WriteFile(path, []byte("v1"), 0o755))

		ch := monitorFile(path, time.Millisecond)
		later := time.Now().Add(time.Duration(i+1) * time.Hour)
		require.NoError(t, os.Chtimes(path, later, later))

		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d: modification right after start was not reported", i)
		}
	}
}

func TestMonitorFileMissing(t *testing.T) {
	ch := monitorFile(filepath.Join(t.TempDir(), "missing"), time.Millisecond)

	select {
	case <-ch:
		t.Fatal("missing file reported as modified")
	case <-time.After(20 * time.Millisecond):
	}
}

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		size     int64
		wantErr  error
		wantWarn bool
	}{
		{name: "pdf ok", file: "holerite.pdf", size: 200 << 10},
		{name: "upper-case ext", file: "SCAN.JPG", size: 1 << 20},
		{name: "small png", file: "a.png", size: 10 << 10, wantWarn: true},
		{name: "unsupported", file: "notes.txt", size: 1 << 20, wantErr: common.ErrUnsupportedFormat},
		{name: "no ext", file: "README", size: 1 << 20, wantErr: common.ErrUnsupportedFormat},
		{name: "too large", file: "big.pdf", size: constants.MaxUploadBytes + 1, wantErr: common.ErrInvalidInput},
		{name: "empty", file: "e.pdf", size: 0, wantErr: common.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warns, err := ValidateUpload(tt.file, tt.size, 0)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			if tt.wantWarn {
				assert.Equal(t, []string{WarnSmallFile}, warns)
			} else {
				assert.Empty(t, warns)
			}
		})
	}
}

func TestValidateUploadCustomLimit(t *testing.T) {
	_, err := ValidateUpload("a.pdf", 2<<20, 1<<20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.pdf"), "pdf")
	writeFile(t, filepath.Join(root, "a.PNG"), "png")
	writeFile(t, filepath.Join(root, "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "sub", "c.jpeg"), "jpeg")
	writeFile(t, filepath.Join(root, ".hidden", "d.pdf"), "hidden")
	writeFile(t, filepath.Join(root, ".e.pdf"), "hidden")

	res, stats, err := ScanDirectory(root, true)
	require.NoError(t, err)

	var names []string
	for _, r := range res {
		assert.Empty(t, r.Err)
		assert.Len(t, r.HashHex, 64)
		names = append(names, strings.TrimPrefix(r.Path, root+string(filepath.Separator)))
	}
	assert.Equal(t, []string{"a.PNG", "b.pdf", filepath.Join("sub", "c.jpeg")}, names)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Zero(t, stats.Failed)

	all, _, err := ScanDirectory(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestScanDirectoryErrors(t *testing.T) {
	_, _, err := ScanDirectory("  ", false)
	assert.Error(t, err)

	_, _, err = ScanDirectory(filepath.Join(t.TempDir(), "missing"), false)
	assert.Error(t, err)
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "existing.pdf"), p)
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit existing file")
	}

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "new.png"), "x")

	select {
	case p := <-events:
		assert.Equal(t, filepath.Join(root, "new.png"), p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not emit new file")
	}

	cancel()
	for range events {
	}
}

func TestStartWatcherNoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}

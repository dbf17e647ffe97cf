package eqr

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestWatchDirSeesNewFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.csv", "already here\n")

	w, err := WatchDir(dir)
	require.NoError(t, err)

	go func() {
		time.Sleep(200 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "report.csv"), []byte("seller,mwh\n"), 0644)
	}()

	files, err := w.Wait(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"report.csv"}, files)
}

func TestWatchDirWaitsOutPartialDownload(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchDir(dir)
	require.NoError(t, err)

	go func() {
		partial := filepath.Join(dir, "report.csv.crdownload")
		os.WriteFile(partial, []byte("half"), 0644)
		time.Sleep(400 * time.Millisecond)
		os.Rename(partial, filepath.Join(dir, "report.csv"))
	}()

	files, err := w.Wait(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"report.csv"}, files)
}

func TestWatchDirTimeout(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchDir(dir)
	require.NoError(t, err)

	_, err = w.Wait(context.Background(), 300*time.Millisecond)
	assert.ErrorIs(t, err, ErrDownloadTimeout)
}

func TestWatchDirIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()

	w, err := WatchDir(dir)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "debug"), 0755))

	_, err = w.Wait(context.Background(), 300*time.Millisecond)
	assert.ErrorIs(t, err, ErrDownloadTimeout)
}

func TestIsPartialDownload(t *testing.T) {
	assert.True(t, isPartialDownload("transactions.csv.crdownload"))
	assert.True(t, isPartialDownload("x.tmp"))
	assert.False(t, isPartialDownload("transactions.csv"))
}

// Package fsx replaces files so that readers observe either the old complete
// content or the new complete content, never a partial write.
package fsx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// renameFunc is swapped out by tests to simulate a failing rename.
var renameFunc = os.Rename

// PendingFile is a temp file created next to its destination. Write to it,
// then Commit to rename it into place, or Abort to discard it.
type PendingFile struct {
	*os.File
	dst  string
	done bool
}

// Create opens a hidden temp file in dst's directory, creating the directory
// if needed. The temp file lives on the same filesystem so Commit's rename is atomic.
func Create(dst string) (*PendingFile, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &PendingFile{File: tmp, dst: dst}, nil
}

// Commit flushes the temp file to disk and renames it over the destination.
func (p *PendingFile) Commit() error {
	if p.done {
		return errors.New("pending file already finished")
	}
	p.done = true
	tmpName := p.Name()
	if err := p.Sync(); err != nil {
		_ = p.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := p.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := renameFunc(tmpName, p.dst); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	_ = syncDirBestEffort(filepath.Dir(p.dst))
	return nil
}

// Abort closes and removes the temp file. It is safe to call after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	_ = p.Close()
	_ = os.Remove(p.Name())
}

// WriteFile atomically replaces path with data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	p, err := Create(path)
	if err != nil {
		return err
	}
	defer p.Abort()

	if _, err := p.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := p.Chmod(perm); err != nil && runtime.GOOS != "windows" {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	return p.Commit()
}

func syncDirBestEffort(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

package wallpaper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/apodwall/internal/fault"
)

type fakeSetter struct {
	got []string
	err error
}

func (f *fakeSetter) setWallpaper(_ context.Context, imagePath string) error {
	f.got = append(f.got, imagePath)
	return f.err
}

func TestSystem_ApplyPassesAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "apod_image.jpg")
	if err := os.WriteFile(img, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Chdir(dir)

	fake := &fakeSetter{}
	s := &System{os: fake}
	if err := s.Apply(context.Background(), "apod_image.jpg"); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if len(fake.got) != 1 || !filepath.IsAbs(fake.got[0]) {
		t.Fatalf("setter got %v, want one absolute path", fake.got)
	}
}

func TestSystem_ApplyMissingFile(t *testing.T) {
	fake := &fakeSetter{}
	s := &System{os: fake}
	err := s.Apply(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	if got := fault.KindOf(err); got != fault.ApplyFailed {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, fault.ApplyFailed)
	}
	if len(fake.got) != 0 {
		t.Fatalf("setter called with %v, want no calls", fake.got)
	}
}

func TestSystem_ApplyDirectoryRejected(t *testing.T) {
	s := &System{os: &fakeSetter{}}
	err := s.Apply(context.Background(), t.TempDir())
	if got := fault.KindOf(err); got != fault.ApplyFailed {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, fault.ApplyFailed)
	}
}

func TestSystem_ApplySetterError(t *testing.T) {
	img := filepath.Join(t.TempDir(), "apod_image.png")
	if err := os.WriteFile(img, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s := &System{os: &fakeSetter{err: errors.New("gsettings: exit status 1")}}
	err := s.Apply(context.Background(), img)
	if got := fault.KindOf(err); got != fault.ApplyFailed {
		t.Fatalf("KindOf(%v) = %v, want %v", err, got, fault.ApplyFailed)
	}
}

func TestApplierFunc(t *testing.T) {
	var got string
	var a Applier = ApplierFunc(func(_ context.Context, path string) error {
		got = path
		return nil
	})
	if err := a.Apply(context.Background(), "/tmp/x.jpg"); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got != "/tmp/x.jpg" {
		t.Fatalf("got %q, want /tmp/x.jpg", got)
	}
}

// Package wallpaper is the boundary to the platform call that paints the
// desktop background.
package wallpaper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/five82/apodwall/internal/fault"
)

// Applier makes the image at path the desktop background. Re-applying the same
// path must be harmless.
type Applier interface {
	Apply(ctx context.Context, path string) error
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(ctx context.Context, path string) error

func (f ApplierFunc) Apply(ctx context.Context, path string) error { return f(ctx, path) }

// setter is implemented once per platform.
type setter interface {
	setWallpaper(ctx context.Context, imagePath string) error
}

// System applies wallpapers with the current platform's mechanism.
type System struct {
	os setter
}

// NewSystem returns the applier for the running platform.
func NewSystem() *System {
	return &System{os: getOS()}
}

// Apply resolves path to an absolute file and hands it to the platform.
func (s *System) Apply(ctx context.Context, path string) error {
	const op = "apply wallpaper"

	abs, err := filepath.Abs(path)
	if err != nil {
		return fault.Wrap(fault.ApplyFailed, op, fmt.Errorf("resolve path: %w", err))
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fault.Wrap(fault.ApplyFailed, op, err)
	}
	if !info.Mode().IsRegular() {
		return fault.New(fault.ApplyFailed, op, fmt.Sprintf("%s is not a regular file", abs))
	}
	if err := s.os.setWallpaper(ctx, abs); err != nil {
		return fault.Wrap(fault.ApplyFailed, op, err)
	}
	return nil
}

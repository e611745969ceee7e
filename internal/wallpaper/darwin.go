//go:build darwin

package wallpaper

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

type macOS struct{}

func getOS() setter {
	return &macOS{}
}

// setWallpaper asks System Events to update every desktop (all displays and spaces).
func (m *macOS) setWallpaper(ctx context.Context, imagePath string) error {
	script := `tell application "System Events" to tell every desktop to set picture to ` + strconv.Quote(imagePath)
	if out, err := exec.CommandContext(ctx, "osascript", "-e", script).CombinedOutput(); err != nil {
		return fmt.Errorf("osascript: %w: %s", err, out)
	}
	return nil
}

//go:build !linux && !darwin && !windows

package wallpaper

import (
	"context"
	"fmt"
	"runtime"
)

type unsupportedOS struct{}

func getOS() setter {
	return unsupportedOS{}
}

func (unsupportedOS) setWallpaper(context.Context, string) error {
	return fmt.Errorf("setting the wallpaper is not supported on %s", runtime.GOOS)
}

//go:build windows

package wallpaper

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	systemParametersInfo = user32.NewProc("SystemParametersInfoW")
)

const (
	spiSetDeskWallpaper = 0x0014
	spifUpdateIniFile   = 0x01
	spifSendChange      = 0x02
)

type windowsOS struct{}

func getOS() setter {
	return &windowsOS{}
}

func (w *windowsOS) setWallpaper(ctx context.Context, imagePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := windows.UTF16PtrFromString(imagePath)
	if err != nil {
		return err
	}
	if err := systemParametersInfo.Find(); err != nil {
		return fmt.Errorf("load SystemParametersInfoW: %w", err)
	}
	ret, _, callErr := systemParametersInfo.Call(
		uintptr(spiSetDeskWallpaper),
		0,
		uintptr(unsafe.Pointer(path)),
		uintptr(spifUpdateIniFile|spifSendChange),
	)
	if ret == 0 {
		return fmt.Errorf("SystemParametersInfoW: %w", callErr)
	}
	return nil
}

//go:build linux

package wallpaper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// linuxOS supports the common X11 desktops and a few Wayland compositors.
type linuxOS struct{}

func getOS() setter {
	return &linuxOS{}
}

func (l *linuxOS) setWallpaper(ctx context.Context, imagePath string) error {
	desktopEnv := os.Getenv("XDG_CURRENT_DESKTOP")
	if desktopEnv == "" {
		desktopEnv = os.Getenv("DESKTOP_SESSION")
	}
	desktopEnv = strings.ToLower(desktopEnv)

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		switch {
		case strings.Contains(desktopEnv, "gnome") || strings.Contains(desktopEnv, "mutter"):
			return l.setWallpaperGNOME(ctx, imagePath)
		case strings.Contains(desktopEnv, "kde"):
			return l.setWallpaperKDE(ctx, imagePath)
		case strings.Contains(desktopEnv, "sway"):
			return l.setWallpaperSway(ctx, imagePath)
		default:
			return fmt.Errorf("unsupported Wayland compositor: %q", desktopEnv)
		}
	}

	switch {
	case strings.Contains(desktopEnv, "gnome") || strings.Contains(desktopEnv, "unity") || strings.Contains(desktopEnv, "cinnamon"):
		return l.setWallpaperGNOME(ctx, imagePath)
	case strings.Contains(desktopEnv, "kde"):
		return l.setWallpaperKDE(ctx, imagePath)
	case strings.Contains(desktopEnv, "xfce"):
		return l.setWallpaperXFCE(ctx, imagePath)
	default:
		return fmt.Errorf("unsupported X11 desktop environment: %q", desktopEnv)
	}
}

// GNOME 42+ reads picture-uri-dark when the dark style is active, so set both.
func (l *linuxOS) setWallpaperGNOME(ctx context.Context, imagePath string) error {
	uri := "file://" + imagePath
	if err := run(ctx, "gsettings", "set", "org.gnome.desktop.background", "picture-uri", uri); err != nil {
		return err
	}
	// Older GNOME versions lack the key; that is not a failure.
	_ = run(ctx, "gsettings", "set", "org.gnome.desktop.background", "picture-uri-dark", uri)
	return nil
}

func (l *linuxOS) setWallpaperKDE(ctx context.Context, imagePath string) error {
	script := fmt.Sprintf(`var allDesktops = desktops();
for (i = 0; i < allDesktops.length; i++) {
    d = allDesktops[i];
    d.wallpaperPlugin = "org.kde.image";
    d.currentConfigGroup = Array("Wallpaper", "org.kde.image", "General");
    d.writeConfig("Image", "file://%s");
}`, imagePath)
	return run(ctx, "dbus-send", "--session", "--dest=org.kde.plasmashell", "--type=method_call",
		"/PlasmaShell", "org.kde.PlasmaShell.evaluateScript", "string:"+script)
}

func (l *linuxOS) setWallpaperXFCE(ctx context.Context, imagePath string) error {
	return run(ctx, "xfconf-query",
		"--channel", "xfce4-desktop",
		"--property", "/backdrop/screen0/monitor0/workspace0/last-image",
		"--set", imagePath)
}

func (l *linuxOS) setWallpaperSway(ctx context.Context, imagePath string) error {
	return run(ctx, "swaymsg", "output", "*", "bg", imagePath, "fill")
}

func run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %w: %s", name, err, msg)
	}
	return nil
}

// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// AppDataDir returns an operating system specific directory to be used for
// storing application data for an application with the given name. It
// follows each platform's convention:
//
//   - Windows: %LOCALAPPDATA%\<AppName>
//   - macOS:   $HOME/Library/Application Support/<AppName>
//   - Plan9:   $home/<appName> (lowercased, no leading dot)
//   - Unix:    $HOME/.<appName> (lowercased, per the XDG basedir spec
//     convention most btcsuite-lineage daemons follow)
//
// Set roaming to true on Windows to use %APPDATA% instead of
// %LOCALAPPDATA%, for data that should follow a roaming user profile.
func AppDataDir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}
	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := strings.ToUpper(appName[:1]) + appName[1:]
	appNameLower := strings.ToLower(appName[:1]) + appName[1:]

	switch runtime.GOOS {
	case "windows":
		env := "LOCALAPPDATA"
		if roaming {
			env = "APPDATA"
		}
		appData := os.Getenv(env)
		if appData == "" {
			if home, err := os.UserHomeDir(); err == nil {
				appData = filepath.Join(home, "AppData", "Local")
				if roaming {
					appData = filepath.Join(home, "AppData", "Roaming")
				}
			}
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			return filepath.Join(home, "Library", "Application Support", appNameUpper)
		}

	case "plan9":
		if home := os.Getenv("home"); home != "" {
			return filepath.Join(home, appNameLower)
		}

	default:
		home, err := os.UserHomeDir()
		if err == nil && home != "" {
			return filepath.Join(home, "."+appNameLower)
		}
	}

	return "."
}

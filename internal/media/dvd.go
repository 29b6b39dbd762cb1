// Package media inspects the local inputs of a burn: DVD folder trees,
// disc images and optical media capacities.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotDVDTree is returned when a folder has neither a usable VIDEO_TS nor
// AUDIO_TS layout.
var ErrNotDVDTree = errors.New("not a DVD folder tree")

const (
	videoDir  = "VIDEO_TS"
	audioDir  = "AUDIO_TS"
	videoInfo = "VIDEO_TS.IFO"
	audioInfo = "AUDIO_TS.IFO"
)

// DVDMode is the mastering flag that matches a DVD folder tree.
type DVDMode string

const (
	DVDVideo  DVDMode = "-dvd-video"
	DVDAudio  DVDMode = "-dvd-audio"
	DVDHybrid DVDMode = "-dvd-hybrid"
)

// String returns the mastering flag.
func (m DVDMode) String() string {
	return string(m)
}

// Valid reports whether m is one of the known modes.
func (m DVDMode) Valid() bool {
	switch m {
	case DVDVideo, DVDAudio, DVDHybrid:
		return true
	default:
		return false
	}
}

// DetectDVDMode resolves the root of a DVD folder tree and picks its mode.
//
// dir may be the root itself or its VIDEO_TS/AUDIO_TS subfolder. When the
// root holds either subfolder the missing sibling is created, since the
// mastering tool expects both. The mode is hybrid when both info files are
// present, audio or video when only one is, and ErrNotDVDTree otherwise.
func DetectDVDMode(dir string) (root string, mode DVDMode, err error) {
	root, err = dvdRoot(dir)
	if err != nil {
		return "", "", err
	}

	if isDir(filepath.Join(root, videoDir)) || isDir(filepath.Join(root, audioDir)) {
		for _, sub := range []string{videoDir, audioDir} {
			if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
				return "", "", fmt.Errorf("create %s: %w", sub, err)
			}
		}
	}

	return modeOf(root)
}

// ReadDVDMode is DetectDVDMode without touching the filesystem. It returns
// the same root and mode, since the mode depends only on the info files.
func ReadDVDMode(dir string) (root string, mode DVDMode, err error) {
	root, err = dvdRoot(dir)
	if err != nil {
		return "", "", err
	}
	return modeOf(root)
}

func dvdRoot(dir string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", dir, ErrNotDVDTree)
	}

	root := filepath.Clean(dir)
	if base := filepath.Base(root); base == videoDir || base == audioDir {
		root = filepath.Dir(root)
	}
	return root, nil
}

func modeOf(root string) (string, DVDMode, error) {
	hasVideo := isFile(filepath.Join(root, videoDir, videoInfo))
	hasAudio := isFile(filepath.Join(root, audioDir, audioInfo))

	switch {
	case hasAudio && hasVideo:
		return root, DVDHybrid, nil
	case hasAudio:
		return root, DVDAudio, nil
	case hasVideo:
		return root, DVDVideo, nil
	default:
		return "", "", fmt.Errorf("%s: %w", root, ErrNotDVDTree)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

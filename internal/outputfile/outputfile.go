// Package outputfile saves raw command output next to a filtered response.
package outputfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is used to name files generated inside a directory.
const TimestampLayout = "20060102-150405.000"

// FileName returns the generated file name for output captured at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("cmdsieve-output-%s.log", t.Format(TimestampLayout))
}

// Write saves content according to target:
//   - an existing directory receives a new timestamped file;
//   - a missing path is created as a directory and receives a timestamped file;
//   - an existing file is overwritten.
//
// It returns the path of the file written.
func Write(target, content string, now time.Time) (string, error) {
	if target == "" {
		return "", errors.New("output file path is empty")
	}

	path, err := resolve(target, now)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

func resolve(target string, now time.Time) (string, error) {
	info, err := os.Stat(target)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(target, FileName(now)), nil
	case err == nil:
		return target, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(target, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		return filepath.Join(target, FileName(now)), nil
	default:
		return "", fmt.Errorf("failed to inspect output path: %w", err)
	}
}

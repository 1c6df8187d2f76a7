// Package export writes the ContextMap layer store to SVG, HTML, JSON and CSV
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// Version is stamped into every JSON export
const Version = "1.0"

// GenerateFilename creates a timestamped filename
func GenerateFilename(prefix, extension, directory string) string {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", prefix, timestamp, extension)
	if directory != "" {
		return filepath.Join(directory, filename)
	}
	return filename
}

// writeFile creates the parent directory when needed and writes data
func writeFile(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrap(err, "failed to create directory")
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return eris.Wrap(err, "failed to write file")
	}
	return nil
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// SaveAsText saves a rendered terminal frame as plain text, stripping ANSI
// codes. An empty filename gets a generated one in the working directory.
func SaveAsText(content string, filename string) (string, error) {
	if filename == "" {
		filename = GenerateFilename("contextmap_screen", "txt", "")
	}
	if err := writeFile(filename, []byte(ansiRegex.ReplaceAllString(content, ""))); err != nil {
		return "", err
	}
	return filename, nil
}

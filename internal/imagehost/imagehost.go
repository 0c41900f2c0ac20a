// Package imagehost persists generated images under the home files
// directory and hands out URLs the HTTP server serves back.
package imagehost

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Host writes image bytes into a served directory.
type Host struct {
	dir     string
	baseURL string
}

// New creates a host writing into dir, serving under baseURL/files/.
func New(dir, baseURL string) *Host {
	return &Host{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Upload writes data under the files directory and returns its public URL.
// The stored filename keeps the caller's name but gets a short unique prefix
// so repeated labels never clobber earlier images.
func (h *Host) Upload(data []byte, name string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty image data")
	}

	name = sanitizeName(name)
	name = uuid.New().String()[:8] + "-" + name

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create files directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	return h.baseURL + "/files/" + name, nil
}

// Dir returns the served directory.
func (h *Host) Dir() string {
	return h.dir
}

// sanitizeName strips path separators and characters unsafe in URLs.
func sanitizeName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "image.png"
	}
	return b.String()
}

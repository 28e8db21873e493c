package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pkgz/lgr"
)

// FileArchive writes newsletters as html files named by timestamp
type FileArchive struct {
	dir string
	now func() time.Time
}

// NewFileArchive makes archive storing files in dir
func NewFileArchive(dir string) *FileArchive {
	if dir == "" {
		dir = "."
	}
	return &FileArchive{dir: dir, now: time.Now}
}

// Save writes html to newsletter_YYYYmmdd_HHMMSS.html and returns the file path.
// A numeric suffix is added if the file already exists.
func (a *FileArchive) Save(_ context.Context, html, title string) (string, error) {
	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		return "", fmt.Errorf("make archive dir: %w", err)
	}

	base := "newsletter_" + a.now().Format("20060102_150405")
	for i := 0; i < 100; i++ {
		name := base + ".html"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.html", base, i)
		}
		path := filepath.Join(a.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // path made of dir and timestamp
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.WriteString(html); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close %s: %w", path, err)
		}
		lgr.Printf("[INFO] newsletter %q saved to %s", title, path)
		return path, nil
	}
	return "", fmt.Errorf("too many archived newsletters named %s", base)
}

package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore writes reports under a local directory.
type DirStore struct {
	Root string
}

func (d DirStore) Put(_ context.Context, key string, body []byte, _ string) (string, error) {
	full := filepath.Join(d.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return full, nil
}

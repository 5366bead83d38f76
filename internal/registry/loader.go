package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"chempredd/internal/common/fsutil"
	"chempredd/pkg/types"
)

// Required files inside a model directory. Subdirectories missing either one
// are skipped, not errors; the predictor validates again on construction.
var requiredFiles = []string{"hyperparameters.json", "network.json"}

// Scanner discovers model directories under a base dir.
type Scanner struct{}

// NewScanner returns a model directory scanner.
func NewScanner() *Scanner { return &Scanner{} }

// Scan walks the immediate children of dir and returns one Model per
// subdirectory that carries the required files. ID and Name are the
// subdirectory name; Path is absolute.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(abs, e.Name())
		if !hasModelFiles(p) {
			continue
		}
		models = append(models, types.Model{ID: e.Name(), Name: e.Name(), Path: p})
	}
	return models, nil
}

func hasModelFiles(dir string) bool {
	for _, f := range requiredFiles {
		if !fsutil.PathExists(filepath.Join(dir, f)) {
			return false
		}
	}
	return true
}

// LoadDir scans dir with a default Scanner.
func LoadDir(dir string) ([]types.Model, error) {
	return NewScanner().Scan(dir)
}

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"modelbridge/internal/common/fsutil"
	"modelbridge/pkg/types"
)

// Formats maps a lower-cased file extension to the model format reported
// for files carrying it.
var Formats = map[string]string{
	".dmod":   "dense",
	".onnx":   "onnx",
	".tflite": "tflite",
}

// Scanner discovers model files in a directory.
type Scanner struct {
	formats map[string]string
}

// NewScanner returns a Scanner recognising the extensions in Formats.
func NewScanner() *Scanner {
	return &Scanner{formats: Formats}
}

// Scan lists recognised model files directly under dir, sorted by ID.
// ID is the full filename; Path is absolute. Subdirectories are not walked.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		format, ok := s.formats[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			Path:      filepath.Join(abs, name),
			Format:    format,
			SizeBytes: info.Size(),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir scans dir with the default formats.
func LoadDir(dir string) ([]types.Model, error) {
	return NewScanner().Scan(dir)
}

// Find returns the model with the given ID from models.
func Find(models []types.Model, id string) (types.Model, bool) {
	for _, m := range models {
		if m.ID == id {
			return m, true
		}
	}
	return types.Model{}, false
}

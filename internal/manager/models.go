package manager

import (
	"path/filepath"
	"strings"

	"modelbridge/internal/common/fsutil"
	"modelbridge/internal/registry"
	"modelbridge/pkg/types"
)

// ListModels scans the models directory. A missing or unreadable directory
// yields an empty list; the error is logged.
func (m *Manager) ListModels() []types.Model {
	if m.modelsDir == "" {
		return []types.Model{}
	}
	models, err := registry.LoadDir(m.modelsDir)
	if err != nil {
		m.log.Warn().Str("dir", m.modelsDir).Err(err).Msg("scan models dir")
		return []types.Model{}
	}
	if models == nil {
		models = []types.Model{}
	}
	return models
}

// ResolvePath maps a request's model reference to a file path. A bare file
// name (no directory part) is looked up in the models directory; anything
// else is used as given after '~' expansion.
func (m *Manager) ResolvePath(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if m.modelsDir != "" && !filepath.IsAbs(ref) && !strings.ContainsAny(ref, `/\`) && ref != "~" {
		dir, err := fsutil.ExpandHome(m.modelsDir)
		if err == nil {
			return filepath.Join(dir, ref)
		}
	}
	p, err := fsutil.ExpandHome(ref)
	if err != nil {
		return ref
	}
	return p
}

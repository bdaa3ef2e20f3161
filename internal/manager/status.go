package manager

import (
	"modelbridge/internal/common/fsutil"
	"modelbridge/pkg/types"
)

// Status reports bridge counters plus the current queue depth.
func (m *Manager) Status() types.StatusResponse {
	st := m.bridge.Status()
	st.QueueDepth = m.QueueDepth()
	return st
}

// Ready reports whether calls can be served: the bridge is usable and the
// models directory, when configured, exists.
func (m *Manager) Ready() bool {
	if !m.bridge.Ready() {
		return false
	}
	if m.modelsDir == "" {
		return true
	}
	dir, err := fsutil.ExpandHome(m.modelsDir)
	if err != nil {
		return false
	}
	return fsutil.IsDir(dir)
}

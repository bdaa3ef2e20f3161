// Package loader acquires model artifacts from disk as read-only byte views.
//
// On unix the whole file is memory-mapped (zero copy). Elsewhere, or when
// Options.DisableMmap is set, the file is read into an owned buffer with the
// same contract: the full length, read-only, valid until Release.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
)

// Options configures a Loader.
type Options struct {
	// DisableMmap forces the buffered read path even where mmap is available.
	DisableMmap bool
}

// Stats reports handle accounting for a Loader.
type Stats struct {
	Acquired int64 `json:"acquired"`
	Released int64 `json:"released"`
	Open     int64 `json:"open"`
}

// Loader opens model files. It is safe for concurrent use; it holds no
// per-call state beyond atomic counters.
type Loader struct {
	useMmap  bool
	acquired atomic.Int64
	released atomic.Int64
}

// New returns a Loader configured by opts.
func New(opts Options) *Loader {
	return &Loader{useMmap: mmapSupported && !opts.DisableMmap}
}

// Mmap reports whether this loader maps files rather than reading them.
func (l *Loader) Mmap() bool { return l.useMmap }

// Stats returns a snapshot of acquisition/release counters.
func (l *Loader) Stats() Stats {
	a := l.acquired.Load()
	r := l.released.Load()
	return Stats{Acquired: a, Released: r, Open: a - r}
}

// Handle is an immutable view over a model's bytes. The slice returned by
// Bytes must not be written to and must not be used after Release.
type Handle struct {
	path   string
	data   []byte
	file   *os.File
	mapped bool

	once   sync.Once
	relErr error
	onRel  func()
}

// Path returns the path the handle was loaded from.
func (h *Handle) Path() string { return h.path }

// Bytes returns the model bytes.
func (h *Handle) Bytes() []byte { return h.data }

// Len returns the byte length of the model.
func (h *Handle) Len() int { return len(h.data) }

// Mapped reports whether the bytes are a memory mapping.
func (h *Handle) Mapped() bool { return h.mapped }

// Release unmaps the bytes and closes the file. Only the first call has any
// effect; later calls return the first call's result.
func (h *Handle) Release() error {
	h.once.Do(func() {
		var err error
		if h.mapped && h.data != nil {
			err = munmapFile(h.data)
		}
		h.data = nil
		if cerr := h.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		h.relErr = err
		if h.onRel != nil {
			h.onRel()
		}
	})
	return h.relErr
}

// Load opens path and returns a handle over its full contents.
func (l *Loader) Load(path string) (*Handle, error) {
	//nolint:gosec // G304: the model path is caller supplied by contract
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Kind: KindNotFound, Path: path, Err: err}
		}
		return nil, &LoadError{Kind: KindIOFailure, Path: path, Err: err}
	}
	h, err := l.acquire(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return h, nil
}

// acquire builds a handle from an open file. On error the caller closes f.
func (l *Loader) acquire(f *os.File, path string) (*Handle, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, &LoadError{Kind: KindIOFailure, Path: path, Err: fmt.Errorf("stat: %w", err)}
	}
	if !st.Mode().IsRegular() {
		return nil, &LoadError{Kind: KindNotFound, Path: path}
	}
	size := st.Size()
	if size == 0 {
		return nil, &LoadError{Kind: KindEmpty, Path: path}
	}
	if int64(int(size)) != size {
		return nil, &LoadError{Kind: KindIOFailure, Path: path, Err: fmt.Errorf("file too large: %d bytes", size)}
	}

	var (
		data   []byte
		mapped bool
	)
	if l.useMmap {
		data, err = mmapFile(f, size)
		if err != nil {
			return nil, &LoadError{Kind: KindIOFailure, Path: path, Err: fmt.Errorf("mmap: %w", err)}
		}
		mapped = true
	} else {
		data = make([]byte, size)
		if _, err := io.ReadFull(f, data); err != nil {
			return nil, &LoadError{Kind: KindIOFailure, Path: path, Err: fmt.Errorf("read: %w", err)}
		}
	}

	l.acquired.Add(1)
	mode := modeRead
	if mapped {
		mode = modeMmap
	}
	recordAcquire(mode, size)
	return &Handle{
		path:   path,
		data:   data,
		file:   f,
		mapped: mapped,
		onRel: func() {
			l.released.Add(1)
			recordRelease()
		},
	}, nil
}

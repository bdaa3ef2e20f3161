//go:build !unix

package loader

import (
	"errors"
	"os"
)

// No mapping on this platform; Loader falls back to buffered reads.
const mmapSupported = false

var errNoMmap = errors.New("mmap not supported on this platform")

func mmapFile(*os.File, int64) ([]byte, error) { return nil, errNoMmap }

func munmapFile([]byte) error { return nil }

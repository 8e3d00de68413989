package bitio

import (
	"os"

	"github.com/edsrzf/mmap-go"
)

// MmapSource memory-maps a file read-only and exposes it as a Source,
// letting the bit reader operate directly on the kernel page cache
// instead of copying the whole `.graph` file into the Go heap. This is
// how Graph.Load implements offset_step < -1 ("graph stays on disk").
type MmapSource struct {
	f *os.File
	m mmap.MMap
}

// OpenMmapSource opens path and maps it read-only.
func OpenMmapSource(path string) (*MmapSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &MmapSource{f: f, m: m}, nil
}

func (s *MmapSource) Len() int          { return len(s.m) }
func (s *MmapSource) ByteAt(i int) byte { return s.m[i] }

// Close unmaps the file and closes the descriptor.
func (s *MmapSource) Close() error {
	if s == nil || s.m == nil {
		return nil
	}
	err := s.m.Unmap()
	s.m = nil
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

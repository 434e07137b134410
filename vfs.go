package midisynth

import (
	"fmt"
	"io"
	"sync"
)

// VirtualFile and the process-wide VirtualFileSystem, grounded on the
// teacher's wav.Writer (an io.WriteSeeker-backed finalize-by-seeking-back
// pattern) generalized to spec.md §3/§4.11's named in-memory byte buffer
// with read/write/seek/tell/size.

// VirtualFile is an in-memory growable byte buffer addressed by name
// (spec.md §3).
type VirtualFile struct {
	name     string
	data     []byte
	position int64
}

func newVirtualFile(name string) *VirtualFile {
	return &VirtualFile{name: name}
}

func (f *VirtualFile) Name() string { return f.name }

func (f *VirtualFile) Size() int64 { return int64(len(f.data)) }

func (f *VirtualFile) Tell() int64 { return f.position }

// Read implements io.Reader.
func (f *VirtualFile) Read(p []byte) (int, error) {
	if f.position >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.position:])
	f.position += int64(n)
	return n, nil
}

// Write implements io.Writer, growing the buffer as needed.
func (f *VirtualFile) Write(p []byte) (int, error) {
	end := f.position + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	n := copy(f.data[f.position:end], p)
	f.position += int64(n)
	return n, nil
}

// Seek implements io.Seeker.
func (f *VirtualFile) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.position + offset
	case io.SeekEnd:
		newPos = int64(len(f.data)) + offset
	default:
		return 0, fmt.Errorf("VirtualFile.Seek: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("VirtualFile.Seek: negative position")
	}
	f.position = newPos
	return newPos, nil
}

// Bytes returns the file's current contents without copying.
func (f *VirtualFile) Bytes() []byte { return f.data }

// VirtualFileSystem is the process-wide name->file registry (spec.md §9
// "a process-wide VirtualFileSystem with explicit init/teardown").
type VirtualFileSystem struct {
	mu    sync.Mutex
	files map[string]*VirtualFile
}

// NewVirtualFileSystem creates an empty registry. Tests and independent
// Player sessions each get their own instance rather than sharing global
// state (spec.md §9 "tests can instantiate multiple independent Players
// without interference").
func NewVirtualFileSystem() *VirtualFileSystem {
	return &VirtualFileSystem{files: make(map[string]*VirtualFile)}
}

// Create registers a new, empty VirtualFile under name, replacing any
// existing file of the same name.
func (vfs *VirtualFileSystem) Create(name string) *VirtualFile {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	f := newVirtualFile(name)
	vfs.files[name] = f
	return f
}

// Open returns the named file, or nil if it doesn't exist.
func (vfs *VirtualFileSystem) Open(name string) *VirtualFile {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	return vfs.files[name]
}

// Remove deletes the named file, freeing it for garbage collection; used by
// the conversion cache's LRU eviction (spec.md §5).
func (vfs *VirtualFileSystem) Remove(name string) {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	delete(vfs.files, name)
}

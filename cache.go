package midisynth

import "container/list"

// Conversion cache and audio-buffer cache, per spec.md §5's resource
// policy: a fingerprint->virtual-WAV-name cache evicted LRU under a byte
// budget, and a path-keyed decoded-PCM LRU under a megabyte cap. Grounded
// on the teacher's explicit-ownership style (no package-level globals,
// everything hangs off an owned session object per spec.md §9) — both
// caches are plain structs a Player owns, not process-wide state.

// fileFingerprint identifies a source file's content without rereading it:
// path plus modification time plus size (spec.md §5). Volume is not part of
// the spec's fingerprint definition but is folded in at the call site
// (transport.go's RenderToVirtualWAV) since a cached virtual WAV is only
// reusable for the volume it was rendered at.
type fileFingerprint struct {
	Path   string
	Mtime  int64
	Size   int64
	Volume int
}

type conversionCacheEntry struct {
	fingerprint fileFingerprint
	vfName      string
	bytes       int64
}

// ConversionCache maps a source file fingerprint to the name of a
// previously rendered virtual WAV, evicting least-recently-used entries
// once the total byte budget is exceeded. Non-durable: it holds only
// process-lifetime state (spec.md §5).
type ConversionCache struct {
	budgetBytes int64
	usedBytes   int64
	order       *list.List // front = most recently used
	index       map[fileFingerprint]*list.Element
	vfs         *VirtualFileSystem
}

func NewConversionCache(budgetBytes int64, vfs *VirtualFileSystem) *ConversionCache {
	return &ConversionCache{
		budgetBytes: budgetBytes,
		order:       list.New(),
		index:       make(map[fileFingerprint]*list.Element),
		vfs:         vfs,
	}
}

// Lookup returns the cached virtual WAV name for fp, promoting it to
// most-recently-used, or "" if absent.
func (c *ConversionCache) Lookup(fp fileFingerprint) (string, bool) {
	el, ok := c.index[fp]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*conversionCacheEntry).vfName, true
}

// Insert records a new rendered virtual WAV under fp, evicting older
// entries until the byte budget is satisfied. A render whose size alone
// exceeds the budget is never cached (it would otherwise evict itself
// immediately, deleting the virtual file the caller just handed back).
func (c *ConversionCache) Insert(fp fileFingerprint, vfName string, byteSize int64) {
	if el, ok := c.index[fp]; ok {
		c.usedBytes -= el.Value.(*conversionCacheEntry).bytes
		c.order.Remove(el)
		delete(c.index, fp)
	}
	if byteSize > c.budgetBytes {
		c.evictUntilWithinBudget()
		return
	}
	entry := &conversionCacheEntry{fingerprint: fp, vfName: vfName, bytes: byteSize}
	el := c.order.PushFront(entry)
	c.index[fp] = el
	c.usedBytes += byteSize
	c.evictUntilWithinBudget()
}

func (c *ConversionCache) evictUntilWithinBudget() {
	for c.usedBytes > c.budgetBytes {
		back := c.order.Back()
		if back == nil {
			return
		}
		entry := back.Value.(*conversionCacheEntry)
		c.order.Remove(back)
		delete(c.index, entry.fingerprint)
		c.usedBytes -= entry.bytes
		if c.vfs != nil {
			c.vfs.Remove(entry.vfName)
		}
	}
}

type audioBufferCacheEntry struct {
	path string
	pcm  []int16
	size int64
}

// AudioBufferCache is an LRU of decoded PCM keyed by source file path, used
// for non-MIDI sources (e.g. a loaded WAV); an item whose size exceeds the
// cap is never cached (spec.md §5).
type AudioBufferCache struct {
	capBytes  int64
	used      int64
	order     *list.List
	index     map[string]*list.Element
}

func NewAudioBufferCache(capBytes int64) *AudioBufferCache {
	return &AudioBufferCache{
		capBytes: capBytes,
		order:    list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *AudioBufferCache) Get(path string) ([]int16, bool) {
	el, ok := c.index[path]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*audioBufferCacheEntry).pcm, true
}

// Put caches pcm under path unless it exceeds the configured cap.
func (c *AudioBufferCache) Put(path string, pcm []int16) {
	size := int64(len(pcm)) * 2
	if size > c.capBytes {
		return
	}
	if el, ok := c.index[path]; ok {
		c.used -= el.Value.(*audioBufferCacheEntry).size
		c.order.Remove(el)
	}
	entry := &audioBufferCacheEntry{path: path, pcm: pcm, size: size}
	el := c.order.PushFront(entry)
	c.index[path] = el
	c.used += size
	for c.used > c.capBytes {
		back := c.order.Back()
		if back == nil {
			return
		}
		e := back.Value.(*audioBufferCacheEntry)
		c.order.Remove(back)
		delete(c.index, e.path)
		c.used -= e.size
	}
}

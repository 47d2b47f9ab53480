package ncfile

import (
	"fmt"
	"sort"
	"sync"
)

var (
	decodersMu sync.RWMutex
	decoders   = make(map[string]Opener)
)

// Register makes a decoder available under a name, the way database
// drivers register themselves. Decoder builds import their package
// for side effects; this package never decodes files itself.
func Register(name string, open Opener) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if open == nil {
		panic("ncfile: Register with nil opener")
	}
	if _, dup := decoders[name]; dup {
		panic("ncfile: Register called twice for decoder " + name)
	}
	decoders[name] = open
}

// Decoders lists the registered decoder names, sorted.
func Decoders() []string {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	names := make([]string, 0, len(decoders))
	for name := range decoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultOpener returns the sole registered decoder. With none, the
// returned opener fails on first use so the error surfaces where a
// file is actually opened.
func DefaultOpener() Opener {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	if len(decoders) == 1 {
		for _, open := range decoders {
			return open
		}
	}
	count := len(decoders)
	return func(path string) (Dataset, error) {
		if count == 0 {
			return nil, fmt.Errorf("ncfile: open %s: no decoder registered", path)
		}
		return nil, fmt.Errorf("ncfile: open %s: %d decoders registered, pick one with Lookup", path, count)
	}
}

// Lookup returns the decoder registered under name.
func Lookup(name string) (Opener, error) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	open, ok := decoders[name]
	if !ok {
		names := make([]string, 0, len(decoders))
		for n := range decoders {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("ncfile: unknown decoder %q (registered: %v)", name, names)
	}
	return open, nil
}

// Package exiftool wraps the external exiftool binary (C6): a one-shot
// availability probe, and bounded-timeout metadata extraction for media
// files it is worth the subprocess cost for.
package exiftool

import (
	"os/exec"
	"sync"
)

// Probe reports whether exiftool is available on PATH (or at an overridden
// path) and caches the result for the lifetime of the process, so that a
// missing binary is detected once — not once per candidate file.
type Probe struct {
	once sync.Once
	path string
	err  error
}

// NewProbe creates a Probe that resolves override (if non-empty) or the
// default "exiftool" name on PATH the first time Resolve is called.
func NewProbe(override string) *Probe {
	return &Probe{path: override}
}

// Resolve returns the resolved exiftool path, performing the lookup only
// once across however many times it's called.
func (p *Probe) Resolve() (string, error) {
	p.once.Do(func() {
		name := p.path
		if name == "" {
			name = "exiftool"
		}
		resolved, err := exec.LookPath(name)
		if err != nil {
			p.err = err
			return
		}
		p.path = resolved
	})
	return p.path, p.err
}

// Available reports whether exiftool resolved successfully, swallowing the
// error for callers that only need a yes/no gate.
func (p *Probe) Available() bool {
	_, err := p.Resolve()
	return err == nil
}

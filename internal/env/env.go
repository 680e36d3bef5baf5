// Package env mirrors reconciled configuration into environment variables.
//
// Projection is an explicit, in-memory environment owned by the composing
// application; Process writes through to the real process environment.
package env

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/illarion/confvault/internal/schema"
)

// Projector receives set and unset effects from reconciliation
type Projector interface {
	// Project sets one entry per key, overwriting earlier values for those
	// keys and leaving every other entry alone
	Project(cfg schema.ConfigMap) error
	// Unproject removes exactly the given keys
	Unproject(keys ...string) error
}

// Projection is an in-memory environment
type Projection struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewProjection creates an empty projection
func NewProjection() *Projection {
	return &Projection{vars: make(map[string]string)}
}

func (p *Projection) Project(cfg schema.ConfigMap) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, v := range cfg {
		p.vars[k] = v.String()
	}
	return nil
}

func (p *Projection) Unproject(keys ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		delete(p.vars, k)
	}
	return nil
}

// Lookup returns the value for key
func (p *Projection) Lookup(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.vars[key]
	return v, ok
}

// Len returns the number of entries
func (p *Projection) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.vars)
}

// Snapshot returns a copy of all entries
func (p *Projection) Snapshot() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.vars))
	for k, v := range p.vars {
		out[k] = v
	}
	return out
}

// Environ returns KEY=value pairs sorted by key, suitable for exec.Cmd.Env
func (p *Projection) Environ() []string {
	snap := p.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+snap[k])
	}
	return out
}

// Process writes through to the process environment
type Process struct{}

func (Process) Project(cfg schema.ConfigMap) error {
	for _, k := range cfg.Keys() {
		if err := os.Setenv(k, cfg[k].String()); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return nil
}

func (Process) Unproject(keys ...string) error {
	for _, k := range keys {
		if err := os.Unsetenv(k); err != nil {
			return fmt.Errorf("failed to unset %s: %w", k, err)
		}
	}
	return nil
}

// Multi fans effects out to several projectors in order
type Multi []Projector

func (m Multi) Project(cfg schema.ConfigMap) error {
	for _, p := range m {
		if err := p.Project(cfg); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Unproject(keys ...string) error {
	for _, p := range m {
		if err := p.Unproject(keys...); err != nil {
			return err
		}
	}
	return nil
}

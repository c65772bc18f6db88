// Package project holds the cross-file view the expansion engine works
// against: every parsed source file, registered in a stable order, with
// module lookup resolving to the first declaration encountered.
package project

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kirkster96/verible/internal/sv"
)

// Project is an immutable-per-call snapshot of the files the engine can
// see. The buffer under expansion is always searched first; other files
// keep their registration order.
type Project struct {
	mu     sync.RWMutex
	buffer *sv.File
	files  []*sv.File
}

// New creates an empty project.
func New() *Project {
	return &Project{}
}

// SetBuffer installs the file currently being expanded. It replaces any
// previous buffer and takes priority over registered files in lookups.
func (p *Project) SetBuffer(f *sv.File) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer = f
}

// Buffer returns the file currently being expanded.
func (p *Project) Buffer() *sv.File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.buffer
}

// AddFile registers a peer file. Registration order is lookup order.
func (p *Project) AddFile(f *sv.File) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files = append(p.files, f)
}

// Files returns every file in lookup order: the buffer first, then peers.
func (p *Project) Files() []*sv.File {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*sv.File, 0, len(p.files)+1)
	if p.buffer != nil {
		out = append(out, p.buffer)
	}
	return append(out, p.files...)
}

// Lookup resolves a module name to its canonical declaration: the first
// declaration encountered in lookup order. Later declarations of the same
// name are ignored without diagnostics.
func (p *Project) Lookup(name string) *sv.Module {
	for _, f := range p.Files() {
		for _, m := range f.Modules {
			if m.Name == name {
				return m
			}
		}
	}
	return nil
}

// ModulesInFile returns the modules declared in the given file path.
func (p *Project) ModulesInFile(path string) []*sv.Module {
	for _, f := range p.Files() {
		if f.Path == path {
			return f.Modules
		}
	}
	return nil
}

// Modules iterates every module in lookup order.
func (p *Project) Modules() []*sv.Module {
	var out []*sv.Module
	for _, f := range p.Files() {
		out = append(out, f.Modules...)
	}
	return out
}

// InstantiationsOf returns every instance across the project whose target
// module has the given name, in lookup order. Port propagation does not
// use it: it walks each module's own instances.
func (p *Project) InstantiationsOf(name string) []*sv.Instance {
	var out []*sv.Instance
	for _, m := range p.Modules() {
		for _, inst := range m.Instances {
			if inst.ModuleName == name {
				out = append(out, inst)
			}
		}
	}
	return out
}

// LoadFiles parses the given paths in parallel and registers them in path
// order, so lookup order is deterministic regardless of parse timing.
// maxParallel <= 0 means no limit.
func (p *Project) LoadFiles(paths []string, maxParallel int) error {
	parsed := make([]*sv.File, len(paths))
	var g errgroup.Group
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			parsed[i] = sv.ParseFile(path, string(content))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, f := range parsed {
		p.AddFile(f)
	}
	return nil
}

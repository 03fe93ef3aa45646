package graph

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Loader loads flow definitions by name.
type Loader interface {
	Load(name string) (*Flow, error)
}

// FileLoader loads flows from YAML files on disk.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader that searches the given directories for flow YAML files.
func NewFileLoader(dirs ...string) Loader {
	return &FileLoader{dirs: dirs}
}

// Load searches for {name}.yaml or {name}.yml in each directory and its
// immediate subdirectories.
func (l *FileLoader) Load(name string) (*Flow, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if f, err := LoadFile(path); err == nil {
				return f, nil
			}

			matches, _ := filepath.Glob(filepath.Join(dir, "*", name+ext))
			for _, match := range matches {
				if f, err := LoadFile(match); err == nil {
					return f, nil
				}
			}
		}
	}
	return nil, fmt.Errorf("graph: flow %q not found in %v", name, l.dirs)
}

// LoadFile reads and parses a single flow file.
func LoadFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, path)
}

// Parse decodes a flow definition. source names the origin in errors.
func Parse(data []byte, source string) (*Flow, error) {
	var f Flow
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("graph: parsing %s: %w", source, err)
	}
	if f.Name == "" {
		f.Name = trimExt(filepath.Base(source))
	}
	return &f, nil
}

// Marshal encodes a flow as YAML. Virtual edges are dropped.
func Marshal(f *Flow) ([]byte, error) {
	out := *f
	out.Edges = WithoutVirtual(f.Edges)
	return yaml.Marshal(&out)
}

// Resolve merges a flow with its includes into a single flat flow.
// Included nodes come first; on duplicate ids the first definition wins.
func Resolve(f *Flow, loader Loader) (*Flow, error) {
	stack := make(map[string]bool)
	resolved := make(map[string]bool)
	out, err := resolve(f, loader, stack, resolved)
	if err != nil {
		return nil, err
	}
	out.Normalize()
	if err := out.Check(); err != nil {
		return nil, err
	}
	return out, nil
}

func resolve(f *Flow, loader Loader, stack, resolved map[string]bool) (*Flow, error) {
	if stack[f.Name] {
		return nil, fmt.Errorf("graph: circular include detected for flow %q", f.Name)
	}
	stack[f.Name] = true
	defer delete(stack, f.Name)

	out := &Flow{Name: f.Name, Description: f.Description, Inputs: make(map[string]any)}
	ids := make(map[string]bool)
	edgeIDs := make(map[string]bool)

	merge := func(src *Flow, own bool) {
		for _, n := range src.Nodes {
			if ids[n.ID] {
				continue
			}
			ids[n.ID] = true
			out.Nodes = append(out.Nodes, n)
		}
		for _, e := range src.Edges {
			if e.ID != "" {
				if edgeIDs[e.ID] {
					continue
				}
				edgeIDs[e.ID] = true
			}
			out.Edges = append(out.Edges, e)
		}
		for k, v := range src.Inputs {
			if _, exists := out.Inputs[k]; own || !exists {
				out.Inputs[k] = v
			}
		}
	}

	for _, name := range f.Includes {
		if resolved[name] {
			continue // diamond include
		}
		if loader == nil {
			return nil, fmt.Errorf("graph: flow %q includes %q but no loader is configured", f.Name, name)
		}
		sub, err := loader.Load(name)
		if err != nil {
			return nil, fmt.Errorf("graph: loading include %q: %w", name, err)
		}
		subFlow, err := resolve(sub, loader, stack, resolved)
		if err != nil {
			return nil, err
		}
		merge(subFlow, false)
	}
	merge(f, true)

	resolved[f.Name] = true
	return out, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

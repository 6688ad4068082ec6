// Package graphdef loads declarative render pipeline definitions from YAML.
//
// A definition names resources and passes by ref, so it can be written by
// hand and turned into a rendergraph.Pipeline for storage or directly into a
// live Graph:
//
//	id: frame
//	resources:
//	  - ref: backbuffer
//	    kind: render_target
//	    external: true
//	passes:
//	  - ref: clear
//	    writes: [backbuffer]
//	  - ref: ui
//	    read_writes: [backbuffer]
package graphdef

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itsakeyfut/rendergraph"
)

// Definition is the YAML shape of a pipeline.
type Definition struct {
	ID        string        `yaml:"id"`
	Resources []ResourceDef `yaml:"resources"`
	Passes    []PassDef     `yaml:"passes"`
}

// ResourceDef declares one resource. Name defaults to the ref.
type ResourceDef struct {
	Ref      string `yaml:"ref"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	External bool   `yaml:"external"`
}

// PassDef declares one pass. All reference lists use resource/pass refs.
// Enabled defaults to true when omitted.
type PassDef struct {
	Ref        string   `yaml:"ref"`
	Name       string   `yaml:"name"`
	Enabled    *bool    `yaml:"enabled"`
	Reads      []string `yaml:"reads"`
	Writes     []string `yaml:"writes"`
	ReadWrites []string `yaml:"read_writes"`
	DependsOn  []string `yaml:"depends_on"`
}

// DefinitionFile pairs a parsed pipeline with its on-disk source.
type DefinitionFile struct {
	Pipeline rendergraph.Pipeline
	Path     string
}

// Parse decodes and validates a single pipeline definition payload.
func Parse(data []byte) (rendergraph.Pipeline, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return rendergraph.Pipeline{}, fmt.Errorf("graphdef: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return rendergraph.Pipeline{}, fmt.Errorf("graphdef: decode definition: %w", err)
	}
	if err := def.validate(); err != nil {
		return rendergraph.Pipeline{}, err
	}
	return def.pipeline(), nil
}

func (d *Definition) validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("graphdef: definition is missing an id")
	}

	resourceRefs := make(map[string]struct{}, len(d.Resources))
	for i := range d.Resources {
		r := &d.Resources[i]
		if strings.TrimSpace(r.Ref) == "" {
			return fmt.Errorf("graphdef: %s: resource %d is missing a ref", d.ID, i)
		}
		if _, dup := resourceRefs[r.Ref]; dup {
			return fmt.Errorf("graphdef: %s: duplicate resource ref %q", d.ID, r.Ref)
		}
		if _, err := rendergraph.ParseKind(r.Kind); err != nil {
			return fmt.Errorf("graphdef: %s: resource %q: %w", d.ID, r.Ref, err)
		}
		resourceRefs[r.Ref] = struct{}{}
	}

	passRefs := make(map[string]struct{}, len(d.Passes))
	for i := range d.Passes {
		p := &d.Passes[i]
		if strings.TrimSpace(p.Ref) == "" {
			return fmt.Errorf("graphdef: %s: pass %d is missing a ref", d.ID, i)
		}
		if _, dup := passRefs[p.Ref]; dup {
			return fmt.Errorf("graphdef: %s: duplicate pass ref %q", d.ID, p.Ref)
		}
		passRefs[p.Ref] = struct{}{}
	}

	for i := range d.Passes {
		p := &d.Passes[i]
		for _, list := range [][]string{p.Reads, p.Writes, p.ReadWrites} {
			for _, ref := range list {
				if _, ok := resourceRefs[ref]; !ok {
					return fmt.Errorf("graphdef: %s: pass %q references unknown resource %q", d.ID, p.Ref, ref)
				}
			}
		}
		for _, ref := range p.DependsOn {
			if _, ok := passRefs[ref]; !ok {
				return fmt.Errorf("graphdef: %s: pass %q depends on unknown pass %q", d.ID, p.Ref, ref)
			}
		}
	}

	return nil
}

// pipeline converts the validated definition into the storage model.
func (d *Definition) pipeline() rendergraph.Pipeline {
	p := rendergraph.Pipeline{ID: d.ID}
	for _, r := range d.Resources {
		name := r.Name
		if name == "" {
			name = r.Ref
		}
		p.Resources = append(p.Resources, rendergraph.ResourceRecord{
			Ref:      r.Ref,
			Name:     name,
			Kind:     r.Kind,
			External: r.External,
		})
	}
	for _, pd := range d.Passes {
		name := pd.Name
		if name == "" {
			name = pd.Ref
		}
		p.Passes = append(p.Passes, rendergraph.PassRecord{
			Ref:        pd.Ref,
			Name:       name,
			Enabled:    pd.Enabled,
			Reads:      pd.Reads,
			Writes:     pd.Writes,
			ReadWrites: pd.ReadWrites,
			DependsOn:  pd.DependsOn,
		})
	}
	return p
}

// LoadFile reads a YAML file from disk and returns the parsed pipeline.
func LoadFile(path string) (DefinitionFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("graphdef: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DefinitionFile{}, fmt.Errorf("graphdef: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("graphdef: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("graphdef: %s: %w", path, err)
	}
	return DefinitionFile{Pipeline: p, Path: filepath.Clean(path)}, nil
}

// LoadDir scans a directory for *.yaml / *.yml pipelines and returns the
// parsed definitions. Missing directories are treated as "no pipelines" to
// simplify startup.
func LoadDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("graphdef: read %s: %w", trimmed, err)
	}
	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !isYAMLFile(name) {
			continue
		}
		def, err := LoadFile(filepath.Join(trimmed, name))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

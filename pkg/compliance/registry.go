package compliance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/scopewatch/scopewatch/pkg/model"
)

// controlSetFile is the YAML layout of one framework's control set.
type controlSetFile struct {
	Framework string          `yaml:"framework"`
	Controls  []model.Control `yaml:"controls"`
}

// Registry holds the control sets of every known framework. It is
// static reference data used to validate recorded control results.
type Registry struct {
	frameworks map[string]map[string]model.Control
}

func NewRegistry(controls ...model.Control) *Registry {
	r := &Registry{frameworks: make(map[string]map[string]model.Control)}
	for _, c := range controls {
		r.add(c)
	}
	return r
}

func (r *Registry) add(c model.Control) {
	set, ok := r.frameworks[c.Framework]
	if !ok {
		set = make(map[string]model.Control)
		r.frameworks[c.Framework] = set
	}
	set[c.ID] = c
}

// LoadRegistry reads every .yaml/.yml control-set file in dir.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frameworks dir: %w", err)
	}

	r := NewRegistry()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var file controlSetFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if file.Framework == "" {
			return nil, fmt.Errorf("%s: framework name missing", entry.Name())
		}
		for _, c := range file.Controls {
			if c.Framework == "" {
				c.Framework = file.Framework
			}
			r.add(c)
		}
	}
	return r, nil
}

func (r *Registry) HasFramework(framework string) bool {
	_, ok := r.frameworks[framework]
	return ok
}

func (r *Registry) Has(framework, controlID string) bool {
	set, ok := r.frameworks[framework]
	if !ok {
		return false
	}
	_, ok = set[controlID]
	return ok
}

// Controls returns a framework's control set sorted by id.
func (r *Registry) Controls(framework string) []model.Control {
	set := r.frameworks[framework]
	out := make([]model.Control, 0, len(set))
	for _, c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Frameworks() []string {
	out := make([]string, 0, len(r.frameworks))
	for name := range r.frameworks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

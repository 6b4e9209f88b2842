// Package resourcemap provides the ResourceMap collaborator the loader
// package consumes: a read-only index of project files by logical id and by
// path. Building this index (the "Resource Indexer") is out of scope for the
// loader core, but a usable reference implementation lives here so the core
// is exercisable end to end.
package resourcemap

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResourceKind classifies an indexed file.
type ResourceKind int

const (
	// KindSource is a normal, requireable module.
	KindSource ResourceKind = iota
	// KindManualMock is a user-authored mock discovered under the resource
	// map (as opposed to a __mocks__ sibling, which the Resolver finds on
	// its own).
	KindManualMock
	// KindProjectConfig is a package manifest (name + optional main entry).
	KindProjectConfig
	// KindOther is anything else the indexer chose to track.
	KindOther
)

func (k ResourceKind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindManualMock:
		return "manual-mock"
	case KindProjectConfig:
		return "project-config"
	default:
		return "other"
	}
}

// ProjectConfigData is the Data payload for a KindProjectConfig resource.
type ProjectConfigData struct {
	Name string `json:"name"`
	Main string `json:"main,omitempty"`
}

// Resource is one entry in the map.
type Resource struct {
	ID              string
	Type            ResourceKind
	Path            string
	Data            *ProjectConfigData
	RequiredModules []string
}

// Map is the read-only ResourceMap the loader package consumes; it is safe
// to share across Loaders, since nothing about it is mutated after
// construction methods return.
type Map struct {
	byID   map[ResourceKind]map[string]*Resource
	byPath map[string]*Resource
	all    []*Resource
}

// New returns an empty Map ready for programmatic population via Add*.
func New() *Map {
	return &Map{
		byID: map[ResourceKind]map[string]*Resource{
			KindSource:         {},
			KindManualMock:     {},
			KindProjectConfig:  {},
			KindOther:          {},
		},
		byPath: map[string]*Resource{},
	}
}

func (m *Map) add(r *Resource) {
	if m.byID[r.Type] == nil {
		m.byID[r.Type] = map[string]*Resource{}
	}
	m.byID[r.Type][r.ID] = r
	m.byPath[r.Path] = r
	m.all = append(m.all, r)
}

// AddSource registers a Source resource under canonical id id at path.
func (m *Map) AddSource(id, path string, requiredModules ...string) {
	m.add(&Resource{ID: id, Type: KindSource, Path: path, RequiredModules: requiredModules})
}

// AddManualMock registers a ManualMock resource.
func (m *Map) AddManualMock(id, path string) {
	m.add(&Resource{ID: id, Type: KindManualMock, Path: path})
}

// AddProjectConfig registers a package manifest.
func (m *Map) AddProjectConfig(path, name, main string) {
	m.add(&Resource{
		ID:   name,
		Type: KindProjectConfig,
		Path: path,
		Data: &ProjectConfigData{Name: name, Main: main},
	})
}

// AddOther registers a resource of no particular interest to the Resolver.
func (m *Map) AddOther(id, path string) {
	m.add(&Resource{ID: id, Type: KindOther, Path: path})
}

// GetResource looks up a resource by canonical id within one kind.
func (m *Map) GetResource(kind ResourceKind, name string) (*Resource, bool) {
	r, ok := m.byID[kind][name]
	return r, ok
}

// GetResourceByPath looks up a resource by its absolute path.
func (m *Map) GetResourceByPath(path string) (*Resource, bool) {
	r, ok := m.byPath[path]
	return r, ok
}

// GetAllResources returns every indexed resource, in insertion order.
func (m *Map) GetAllResources() []*Resource {
	out := make([]*Resource, len(m.all))
	copy(out, m.all)
	return out
}

// GetAllResourcesByType returns every indexed resource of one kind.
func (m *Map) GetAllResourcesByType(kind ResourceKind) []*Resource {
	byKind := m.byID[kind]
	out := make([]*Resource, 0, len(byKind))
	for _, r := range byKind {
		out = append(out, r)
	}
	return out
}

// ScanOptions configures ScanDir.
type ScanOptions struct {
	ModuleFileExtensions     []string
	ModulePathIgnorePatterns []string
}

// ScanDir builds a Map by walking root, classifying package.json files as
// project manifests, files under any __mocks__ directory as manual mocks,
// and files matching ModuleFileExtensions as sources. Paths matching any
// ModulePathIgnorePatterns glob are pruned before classification.
func ScanDir(root string, opts ScanOptions) (*Map, error) {
	m := New()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		slashRel := filepath.ToSlash(rel)

		for _, pat := range opts.ModulePathIgnorePatterns {
			matched, matchErr := doublestar.Match(pat, slashRel)
			if matchErr == nil && matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		switch {
		case base == "package.json":
			data, readErr := os.ReadFile(path)
			if readErr != nil {
				return readErr
			}
			var manifest ProjectConfigData
			if jsonErr := json.Unmarshal(data, &manifest); jsonErr != nil {
				return fmt.Errorf("resourcemap: parsing %s: %w", path, jsonErr)
			}
			if manifest.Name != "" {
				m.AddProjectConfig(path, manifest.Name, manifest.Main)
			}

		case strings.Contains(slashRel, "__mocks__/"):
			id := strings.TrimSuffix(base, filepath.Ext(base))
			m.AddManualMock(id, path)

		default:
			for _, ext := range opts.ModuleFileExtensions {
				if strings.HasSuffix(path, ext) {
					id := strings.TrimSuffix(rel, ext)
					var required []string
					if ext != ".json" {
						if src, readErr := os.ReadFile(path); readErr == nil {
							required = scanRequireCalls(string(src))
						}
					}
					m.AddSource(filepath.ToSlash(id), path, required...)
					break
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Snapshot is the JSON projection of a Map persisted by cachestore.
type Snapshot struct {
	Resources []*SnapshotResource `json:"resources"`
}

// SnapshotResource is one JSON-serializable resource entry.
type SnapshotResource struct {
	ID              string             `json:"id"`
	Type            ResourceKind       `json:"type"`
	Path            string             `json:"path"`
	Data            *ProjectConfigData `json:"data,omitempty"`
	RequiredModules []string           `json:"requiredModules,omitempty"`
}

// ToSnapshot flattens m into a Snapshot suitable for JSON persistence.
func (m *Map) ToSnapshot() *Snapshot {
	snap := &Snapshot{Resources: make([]*SnapshotResource, 0, len(m.all))}
	for _, r := range m.all {
		snap.Resources = append(snap.Resources, &SnapshotResource{
			ID: r.ID, Type: r.Type, Path: r.Path, Data: r.Data, RequiredModules: r.RequiredModules,
		})
	}
	return snap
}

// FromSnapshot rebuilds a Map from a previously persisted Snapshot.
func FromSnapshot(snap *Snapshot) *Map {
	m := New()
	for _, r := range snap.Resources {
		m.add(&Resource{ID: r.ID, Type: r.Type, Path: r.Path, Data: r.Data, RequiredModules: r.RequiredModules})
	}
	return m
}

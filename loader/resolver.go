package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/exp/slices"

	"github.com/peekjef72/modloader/resourcemap"
)

// Resolution is what the Resolver produces for one (importer, name) pair.
type Resolution struct {
	Kind     ModuleKind
	RealPath string
	MockPath string
	ID       ModuleID
}

// resolverCache memoizes the package-name -> manifest index per Config,
// since the same read-only Config/ResourceMap pair is typically shared
// across many Loaders/workers and rebuilding the index for each would be
// wasted work.
var resolverCache = newConfigCache()

// Resolver implements §4.1: it is a pure function of
// (importerPath, requestedName, config, resourceMap) plus its memo tables.
type Resolver struct {
	cfg              *Config
	resourceMap      ResourceMap
	extraSearchRoots []string
}

// NewResolver builds a Resolver. extraSearchRoots comes from an optional
// NODE_PATH-style environment variable, read once at construction.
func NewResolver(cfg *Config, rm ResourceMap, extraSearchRoots []string) *Resolver {
	return &Resolver{cfg: cfg, resourceMap: rm, extraSearchRoots: extraSearchRoots}
}

// ExtraSearchRootsFromEnv splits a NODE_PATH-style environment variable
// value on the host's path list separator.
func ExtraSearchRootsFromEnv(value string) []string {
	if value == "" {
		return nil
	}
	return filepath.SplitList(value)
}

func (r *Resolver) isBuiltin(name string) bool {
	return slices.Contains(r.cfg.BuiltinModules, name)
}

// Resolve implements the full §4.1 algorithm.
func (r *Resolver) Resolve(importerPath, requestedName string) (*Resolution, error) {
	requestedName = r.applyNameMapper(requestedName)

	if r.isBuiltin(requestedName) {
		return &Resolution{
			Kind:     KindCore,
			RealPath: requestedName,
			ID:       NewModuleID(KindCore, requestedName, ""),
		}, nil
	}

	importerDir := filepath.Dir(importerPath)

	if isPathForm(requestedName) {
		return r.resolveFilesystem(importerDir, requestedName, requestedName)
	}

	hasSource := false
	hasMock := false
	if r.resourceMap != nil {
		_, hasSource = r.resourceMap.GetResource(resourcemap.KindSource, requestedName)
		_, hasMock = r.resourceMap.GetResource(resourcemap.KindManualMock, requestedName)
	}
	if !hasSource && !hasMock {
		if res, err := r.resolveFilesystem(importerDir, requestedName, requestedName); err == nil {
			return res, nil
		}
		return r.resolveViaManifestFallback(importerDir, requestedName)
	}

	return r.resolveViaResourceMap(requestedName)
}

func isPathForm(name string) bool {
	return strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") || strings.HasPrefix(name, "/")
}

func (r *Resolver) applyNameMapper(requested string) string {
	for _, mapping := range r.cfg.ModuleNameMapper {
		re, err := mapping.compile()
		if err != nil {
			continue
		}
		if loc := re.FindStringSubmatchIndex(requested); loc != nil {
			return string(re.ExpandString(nil, mapping.Canonical, requested, loc))
		}
	}
	return requested
}

func (r *Resolver) resolveViaResourceMap(requestedName string) (*Resolution, error) {
	var realPath, mockPath string

	if src, ok := r.resourceMap.GetResource(resourcemap.KindSource, requestedName); ok {
		realPath = src.Path
	}
	if mock, ok := r.resourceMap.GetResource(resourcemap.KindManualMock, requestedName); ok {
		mockPath = mock.Path
	}

	if realPath == "" && mockPath == "" {
		return nil, &ModuleNotFoundError{Name: requestedName}
	}

	if realPath != "" && mockPath == "" {
		if sibling, ok := r.mockSibling(realPath); ok {
			mockPath = sibling
		}
	}

	return &Resolution{
		Kind:     KindUser,
		RealPath: realPath,
		MockPath: mockPath,
		ID:       NewModuleID(KindUser, realPath, mockPath),
	}, nil
}

// resolveFilesystem implements §4.1 step 3: a deterministic search rooted
// at baseDir, honoring configured extensions and extra search roots.
func (r *Resolver) resolveFilesystem(baseDir, requestedName, forID string) (*Resolution, error) {
	roots := append([]string{baseDir}, r.extraSearchRoots...)

	for _, root := range roots {
		candidate := requestedName
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(root, requestedName)
		}

		if path, ok := r.acceptCandidate(candidate); ok {
			return r.finishFilesystemResolution(path, forID)
		}

		for _, ext := range r.cfg.ModuleFileExtensions {
			if path, ok := r.acceptCandidate(candidate + ext); ok {
				return r.finishFilesystemResolution(path, forID)
			}
		}

		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			main := "index"
			if manifestPath := filepath.Join(candidate, "package.json"); fileExists(manifestPath) {
				if data, err := os.ReadFile(manifestPath); err == nil {
					if m := parsePackageMain(data); m != "" {
						main = m
					}
				}
			}
			mainCandidate := filepath.Join(candidate, main)
			if path, ok := r.acceptCandidate(mainCandidate); ok {
				return r.finishFilesystemResolution(path, forID)
			}
			for _, ext := range r.cfg.ModuleFileExtensions {
				if path, ok := r.acceptCandidate(mainCandidate + ext); ok {
					return r.finishFilesystemResolution(path, forID)
				}
			}
		}
	}

	return nil, &ModuleNotFoundError{Name: forID}
}

func (r *Resolver) finishFilesystemResolution(realPath, id string) (*Resolution, error) {
	mockPath := ""
	if sibling, ok := r.mockSibling(realPath); ok {
		mockPath = sibling
	}
	return &Resolution{
		Kind:     KindUser,
		RealPath: realPath,
		MockPath: mockPath,
		ID:       NewModuleID(KindUser, realPath, mockPath),
	}, nil
}

// mockSibling implements §4.1 step 6: a __mocks__/<basename> sibling of a
// filesystem-resolved real path.
func (r *Resolver) mockSibling(realPath string) (string, bool) {
	dir := filepath.Dir(realPath)
	base := filepath.Base(realPath)
	candidate := filepath.Join(dir, "__mocks__", base)
	if _, ok := r.acceptCandidate(candidate); ok {
		return candidate, true
	}
	return "", false
}

// acceptCandidate implements the "regular file or FIFO" acceptance rule.
func (r *Resolver) acceptCandidate(path string) (string, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		info, err = os.Stat(path)
		if err != nil {
			return "", false
		}
	}
	if info.Mode().IsRegular() || info.Mode()&os.ModeNamedPipe != 0 {
		return path, true
	}
	return "", false
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func parsePackageMain(data []byte) string {
	// Decodes the manifest into resourcemap.ProjectConfigData, the same
	// struct resourcemap.ScanDir fills when building a ResourceMap from a
	// manifest directly, and keeps only its main entry.
	var manifest resourcemap.ProjectConfigData
	if err := json.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	return manifest.Main
}

// resolveViaManifestFallback implements §4.1 step 4: a logical name that
// failed filesystem resolution is retried against a project manifest whose
// declared name equals the request's first path segment.
func (r *Resolver) resolveViaManifestFallback(importerDir, requestedName string) (*Resolution, error) {
	if r.resourceMap == nil {
		return nil, &ModuleNotFoundError{Name: requestedName}
	}

	segments := strings.SplitN(requestedName, "/", 2)
	pkgName := segments[0]

	index, err := r.manifestIndex()
	if err != nil {
		return nil, err
	}

	manifest, ok := index.Get(pkgName)
	if !ok {
		return nil, &ModuleNotFoundError{Name: requestedName}
	}

	manifestDir := filepath.Dir(manifest.Path)
	if isDescendant(importerDir, manifestDir) {
		// A package must not shadow a local file: refuse if the manifest's
		// directory is itself inside the importer's directory tree.
		return nil, &ModuleNotFoundError{Name: requestedName}
	}

	rest := ""
	if len(segments) == 2 {
		rest = segments[1]
	}
	if rest == "" {
		rest = "."
		if manifest.Data != nil && manifest.Data.Main != "" {
			rest = manifest.Data.Main
		}
	}

	return r.resolveFilesystem(manifestDir, "./"+strings.TrimPrefix(rest, "./"), requestedName)
}

// isDescendant reports whether child is inside (or equal to) parent.
func isDescendant(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

func (r *Resolver) manifestIndex() (*lru.Cache[string, *resourcemap.Resource], error) {
	v, err := resolverCache.getOrBuild(r.cfg, "manifestIndex", func() (any, error) {
		idx, err := lru.New[string, *resourcemap.Resource](4096)
		if err != nil {
			return nil, err
		}
		for _, res := range r.resourceMap.GetAllResourcesByType(resourcemap.KindProjectConfig) {
			if res.Data != nil && res.Data.Name != "" {
				idx.Add(res.Data.Name, res)
			}
		}
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*lru.Cache[string, *resourcemap.Resource]), nil
}

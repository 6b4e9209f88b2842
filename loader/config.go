package loader

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/imdario/mergo"
	"github.com/spf13/cast"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// NameMapping is one moduleNameMapper rewrite rule: requests matching
// Pattern are replaced by Canonical, which may reference capture groups
// with the usual $1-style syntax.
type NameMapping struct {
	Pattern   string `yaml:"pattern"`
	Canonical string `yaml:"canonical"`

	compiled *regexp.Regexp
}

// Config is the immutable per-test LoaderConfig. Once passed to NewLoader it
// must not be mutated; build a new Config instead.
type Config struct {
	ModuleFileExtensions       []string          `yaml:"moduleFileExtensions"`
	ModuleNameMapper           []NameMapping     `yaml:"moduleNameMapper"`
	ModulePathIgnorePatterns   []string          `yaml:"modulePathIgnorePatterns"`
	UnmockedModulePathPatterns []string          `yaml:"unmockedModulePathPatterns"`
	TestPathDirs               []string          `yaml:"testPathDirs"`
	AutoMock                   bool              `yaml:"autoMock"`
	CollectCoverage            bool              `yaml:"collectCoverage"`
	CollectCoverageOnlyFrom    map[string]bool   `yaml:"collectCoverageOnlyFrom"`
	CacheDirectory             string            `yaml:"cacheDirectory"`
	Name                       string            `yaml:"name"`
	CacheEncryptionKey         string            `yaml:"cacheEncryptionKey"`
	VendorPath                 string            `yaml:"vendorPath"`
	TestEnvData                map[string]any    `yaml:"testEnvData"`
	// BuiltinModules names the platform modules that bypass both registries.
	BuiltinModules []string `yaml:"builtinModules"`

	patternsOnce sync.Once
	patterns     []*regexp.Regexp
	patternsErr  error
}

// DefaultConfig returns the built-in defaults new configs are merged
// against.
func DefaultConfig() *Config {
	return &Config{
		ModuleFileExtensions:   []string{".js", ".mjs", ".jsx", ".json"},
		TestPathDirs:           []string{"."},
		AutoMock:               true,
		CacheDirectory:         os.TempDir(),
		Name:                   "default",
		BuiltinModules:         []string{"console", "process", "url", "buffer", "path", "fs"},
		CollectCoverageOnlyFrom: map[string]bool{},
		TestEnvData:            map[string]any{},
	}
}

// LoadConfigYAML reads a partial config from YAML over DefaultConfig, so
// every field the YAML leaves unset keeps its default while explicit zero
// values (autoMock: false) survive; mergo then fills any field the YAML set
// to an empty value.
func LoadConfigYAML(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("loader: parsing config %s: %w", path, err)
	}

	if err := mergo.Merge(cfg, DefaultConfig()); err != nil {
		return nil, fmt.Errorf("loader: defaulting config %s: %w", path, err)
	}

	return cfg, nil
}

// CoerceExtensions loosely coerces a YAML scalar or list into a string
// slice, tolerating a project that wrote "moduleFileExtensions: .js" instead
// of a list.
func CoerceExtensions(v any) ([]string, error) {
	return cast.ToStringSliceE(v)
}

// unmockPatterns compiles UnmockedModulePathPatterns once per Config
// instance and memoizes the result.
func (c *Config) unmockPatterns() ([]*regexp.Regexp, error) {
	c.patternsOnce.Do(func() {
		c.patterns = make([]*regexp.Regexp, 0, len(c.UnmockedModulePathPatterns))
		for _, p := range c.UnmockedModulePathPatterns {
			re, err := regexp.Compile(p)
			if err != nil {
				c.patternsErr = fmt.Errorf("loader: invalid unmock pattern %q: %w", p, err)
				return
			}
			c.patterns = append(c.patterns, re)
		}
	})
	return c.patterns, c.patternsErr
}

func (m *NameMapping) compile() (*regexp.Regexp, error) {
	if m.compiled != nil {
		return m.compiled, nil
	}
	re, err := regexp.Compile(m.Pattern)
	if err != nil {
		return nil, fmt.Errorf("loader: invalid moduleNameMapper pattern %q: %w", m.Pattern, err)
	}
	m.compiled = re
	return re, nil
}

// configCache deduplicates first-time construction of expensive per-config
// derived state (the project-manifest index built by the Resolver) across
// concurrent workers that happen to share a *Config value.
type configCache struct {
	sf    singleflight.Group
	index *lru.Cache[*Config, any]
}

func newConfigCache() *configCache {
	c, _ := lru.New[*Config, any](runtime.NumCPU() * 4)
	return &configCache{index: c}
}

// getOrBuild returns the cached value for cfg, building it exactly once
// even under concurrent callers. The singleflight key is scoped by both cfg
// (its pointer identity) and key, so concurrent first-builds for two
// different Configs never collide onto the same in-flight call and one
// caller never receives a value built for someone else's Config.
func (cc *configCache) getOrBuild(cfg *Config, key string, build func() (any, error)) (any, error) {
	if v, ok := cc.index.Get(cfg); ok {
		return v, nil
	}
	sfKey := fmt.Sprintf("%p:%s", cfg, key)
	v, err, _ := cc.sf.Do(sfKey, func() (any, error) {
		if v, ok := cc.index.Get(cfg); ok {
			return v, nil
		}
		built, err := build()
		if err != nil {
			return nil, err
		}
		cc.index.Add(cfg, built)
		return built, nil
	})
	return v, err
}

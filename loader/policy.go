package loader

import (
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ShouldMockDecision is a per-ModuleID explicit override (§3).
type ShouldMockDecision int

const (
	DecisionUnset ShouldMockDecision = iota
	DecisionForceMock
	DecisionForceReal
)

// Policy implements the Mock Policy Engine (§4.2). Explicit overrides and
// explicit mock slots are never cleared by Registry.Reset; they are test
// intent, not evaluation state (§4.3, §5, §9 Open Questions).
type Policy struct {
	cfg       *Config
	resolver  *Resolver
	overrides map[ModuleID]ShouldMockDecision
	mockSlots map[ModuleID]interface{}
	decisions *lru.Cache[string, bool]
	autoMock  bool
}

// NewPolicy builds a Policy Engine bound to cfg's initial AutoMock setting.
func NewPolicy(cfg *Config, resolver *Resolver) *Policy {
	decisions, _ := lru.New[string, bool](4096)
	return &Policy{
		cfg:       cfg,
		resolver:  resolver,
		overrides: make(map[ModuleID]ShouldMockDecision),
		mockSlots: make(map[ModuleID]interface{}),
		decisions: decisions,
		autoMock:  cfg.AutoMock,
	}
}

// SetAutoMock toggles the global auto-mock flag (jest.autoMockOn/Off).
func (p *Policy) SetAutoMock(on bool) { p.autoMock = on }

// AutoMock reports the current global auto-mock flag.
func (p *Policy) AutoMock() bool { return p.autoMock }

// SetOverride records an explicit mock/dontMock decision for id. Call order
// matters: the last call for a given id wins (§8 "Explicit-override
// dominance").
func (p *Policy) SetOverride(id ModuleID, decision ShouldMockDecision) {
	p.overrides[id] = decision
}

// SetMockSlot installs explicit exports for id (jest.setMock), which also
// forces mock delivery.
func (p *Policy) SetMockSlot(id ModuleID, exports interface{}) {
	p.overrides[id] = DecisionForceMock
	p.mockSlots[id] = exports
}

// MockSlot returns the explicit exports installed for id, if any.
func (p *Policy) MockSlot(id ModuleID) (interface{}, bool) {
	v, ok := p.mockSlots[id]
	return v, ok
}

// ShouldMock implements the full §4.2 decision order.
func (p *Policy) ShouldMock(importerPath, requestedName string, res *Resolution) (bool, error) {
	if decision, ok := p.overrides[res.ID]; ok {
		return decision == DecisionForceMock, nil
	}

	if res.Kind == KindCore {
		return false, nil
	}

	if !p.autoMock {
		return false, nil
	}

	if cached, ok := p.decisions.Get(requestedName); ok {
		return cached, nil
	}

	patterns, err := p.cfg.unmockPatterns()
	if err != nil {
		return false, err
	}
	if len(patterns) == 0 {
		return true, nil
	}

	if res.RealPath == "" {
		if res.MockPath != "" {
			return true, nil
		}
		return true, nil
	}

	if p.cfg.VendorPath != "" && underPath(res.RealPath, p.cfg.VendorPath) {
		p.decisions.Add(requestedName, false)
		return false, nil
	}

	realFS := res.RealPath
	if resolved, err := filepath.EvalSymlinks(res.RealPath); err == nil {
		realFS = resolved
	}

	for _, pat := range patterns {
		if pat.MatchString(realFS) || pat.MatchString(res.RealPath) {
			p.decisions.Add(requestedName, false)
			return false, nil
		}
	}

	p.decisions.Add(requestedName, true)
	return true, nil
}

func underPath(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && rel != "")
}

package loader

import (
	"os"
	"strconv"
	"strings"
)

// ModuleKind distinguishes platform built-ins from ordinary user modules.
type ModuleKind int

const (
	// KindUser is any module resolved against the filesystem or the
	// resource map.
	KindUser ModuleKind = iota
	// KindCore is a platform built-in that bypasses both registries.
	KindCore
)

// moduleIDSep separates the three ModuleID fields. os.PathListSeparator
// never appears inside a path component on any supported platform, which
// is exactly the property a stable, collision-free key needs.
const moduleIDSep = string(os.PathListSeparator)

// ModuleID is the canonical identity of a resolved import: a triple of
// (kind, realPath, mockPath), at least one of which is known. It is encoded
// as a single string so it can be used as a map key directly.
type ModuleID string

// NewModuleID encodes a resolution's identity.
func NewModuleID(kind ModuleKind, realPath, mockPath string) ModuleID {
	return ModuleID(strconv.Itoa(int(kind)) + moduleIDSep + realPath + moduleIDSep + mockPath)
}

// Kind decodes the ModuleID's kind field.
func (id ModuleID) Kind() ModuleKind {
	parts := strings.SplitN(string(id), moduleIDSep, 2)
	if len(parts) == 0 {
		return KindUser
	}
	n, _ := strconv.Atoi(parts[0])
	return ModuleKind(n)
}

// RealPath decodes the ModuleID's real-path field, empty if unknown.
func (id ModuleID) RealPath() string {
	parts := strings.SplitN(string(id), moduleIDSep, 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// MockPath decodes the ModuleID's mock-path field, empty if unknown.
func (id ModuleID) MockPath() string {
	parts := strings.SplitN(string(id), moduleIDSep, 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

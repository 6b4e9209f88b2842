package loader

// ShapeKind classifies one node of a MockShape tree.
type ShapeKind int

const (
	ShapeUndefined ShapeKind = iota
	ShapeFunction
	ShapeArray
	ShapeObject
	ShapePrimitive
)

// MockShape is a descriptor of a real module's exported shape, produced by
// a MockSynthesizer.GetMetadata call and cached per real path for the
// Loader's lifetime (§4.5). It is deliberately a plain tree so it can be
// deep-copied with copystructure before being handed to
// GenerateFromMetadata, keeping a generated stub's mutations from ever
// reaching the cached original.
type MockShape struct {
	Kind       ShapeKind
	Properties map[string]*MockShape `json:",omitempty"`
	// PrimitiveType records the Go kind name of the value's exported type
	// ("string", "int64", "float64", "bool", ...) for ShapePrimitive nodes, so a generated stub returns
	// a same-typed zero value instead of undefined.
	PrimitiveType string `json:",omitempty"`
}

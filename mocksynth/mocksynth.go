// Package mocksynth provides the MockSynthesizer collaborator. Extracting
// a shape descriptor from a real module's exports and reconstructing a
// stub from it is kept out of the loader core, but a real implementation
// lives here, working directly against goja.Value the way the rest of
// this module does, with no reflection over Go types since exports are
// always JS values inside the Environment's
// runtime.
package mocksynth

import (
	"fmt"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/mitchellh/copystructure"

	"github.com/peekjef72/modloader/loader"
)

// Synthesizer is the reference MockSynthesizer.
type Synthesizer struct {
	rt *goja.Runtime
}

// New builds a Synthesizer bound to rt, the same runtime the real module
// was evaluated in (mock functions and stub objects must belong to the
// same goja.Runtime as everything else in the test).
func New(rt *goja.Runtime) *Synthesizer {
	return &Synthesizer{rt: rt}
}

// GetMetadata walks value's own enumerable properties and produces a
// MockShape describing them. Only the top level is walked: a nested plain
// object is recorded as an object with no properties.
func (s *Synthesizer) GetMetadata(value goja.Value) (*loader.MockShape, error) {
	return s.metadataFor(value, 1)
}

func (s *Synthesizer) metadataFor(value goja.Value, depth int) (*loader.MockShape, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return &loader.MockShape{Kind: loader.ShapeUndefined}, nil
	}

	if _, ok := goja.AssertFunction(value); ok {
		return &loader.MockShape{Kind: loader.ShapeFunction}, nil
	}

	obj, ok := value.(*goja.Object)
	if !ok {
		return &loader.MockShape{Kind: loader.ShapePrimitive, PrimitiveType: value.ExportType().Kind().String()}, nil
	}

	if obj.ClassName() == "Array" {
		return &loader.MockShape{Kind: loader.ShapeArray}, nil
	}

	shape := &loader.MockShape{Kind: loader.ShapeObject, Properties: map[string]*loader.MockShape{}}
	if depth <= 0 {
		return shape, nil
	}
	for _, key := range obj.Keys() {
		child, err := s.metadataFor(obj.Get(key), depth-1)
		if err != nil {
			return nil, err
		}
		shape.Properties[key] = child
	}
	return shape, nil
}

// GenerateFromMetadata reconstructs a fresh stub from shape. It always
// operates on a copystructure.Copy of shape so mutation of the generated
// stub's descriptor can never corrupt the cached original (§4.5 step 6).
func (s *Synthesizer) GenerateFromMetadata(shape *loader.MockShape) (goja.Value, error) {
	copied, err := copystructure.Copy(shape)
	if err != nil {
		return nil, fmt.Errorf("mocksynth: copying shape: %w", err)
	}
	return s.generate(copied.(*loader.MockShape)), nil
}

func (s *Synthesizer) generate(shape *loader.MockShape) goja.Value {
	switch shape.Kind {
	case loader.ShapeFunction:
		return s.GetMockFunction()
	case loader.ShapeArray:
		return s.rt.NewArray()
	case loader.ShapeObject:
		obj := s.rt.NewObject()
		for name, child := range shape.Properties {
			obj.Set(name, s.generate(child))
		}
		return obj
	case loader.ShapePrimitive:
		return s.zeroValueFor(shape.PrimitiveType)
	default:
		return goja.Undefined()
	}
}

func (s *Synthesizer) zeroValueFor(primitiveType string) goja.Value {
	switch primitiveType {
	case "string":
		return s.rt.ToValue("")
	case "float64", "int", "int64":
		return s.rt.ToValue(0)
	case "bool":
		return s.rt.ToValue(false)
	default:
		return goja.Undefined()
	}
}

var mockFnSeq int64

// GetMockFunction returns a bare mock function: a goja function value with
// a `.mock` property exposing `calls`/`results` arrays, the shape
// Registry.Reset's clearMockFunctions looks for.
func (s *Synthesizer) GetMockFunction() goja.Value {
	id := atomic.AddInt64(&mockFnSeq, 1)
	mockState := s.rt.NewObject()
	mockState.Set("calls", s.rt.NewArray())
	mockState.Set("results", s.rt.NewArray())
	mockState.Set("id", id)

	fn := func(call goja.FunctionCall) goja.Value {
		calls, _ := mockState.Get("calls").(*goja.Object)
		results, _ := mockState.Get("results").(*goja.Object)

		args := make([]interface{}, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a
		}
		callsLen := calls.Get("length").ToInteger()
		calls.Set(fmt.Sprintf("%d", callsLen), s.rt.NewArray(args...))

		resultsLen := results.Get("length").ToInteger()
		results.Set(fmt.Sprintf("%d", resultsLen), goja.Undefined())

		return goja.Undefined()
	}

	value := s.rt.ToValue(fn)
	obj := value.(*goja.Object)
	obj.Set("mock", mockState)
	return obj
}

var _ loader.MockSynthesizer = (*Synthesizer)(nil)

package parser

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Node is the read-only tree view the extractor needs over a parsed document.
// Every accessor reports false when the field is absent or has another type.
type Node interface {
	Number(key string) (float64, bool)
	String(key string) (string, bool)
	Array(key string) ([]Node, bool)
	Object(key string) (Node, bool)
}

// anyNode adapts a lazily parsed json-iterator value to Node.
type anyNode struct {
	v jsoniter.Any
}

// ParseTree validates data as JSON and returns its root object.
func ParseTree(data []byte) (Node, error) {
	if !jsoniter.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid JSON", ErrParseFailure)
	}
	root := jsoniter.Get(data)
	if root.ValueType() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrParseFailure)
	}
	return anyNode{v: root}, nil
}

func (n anyNode) field(key string, want jsoniter.ValueType) (jsoniter.Any, bool) {
	f := n.v.Get(key)
	if f.ValueType() != want {
		return nil, false
	}
	return f, true
}

func (n anyNode) Number(key string) (float64, bool) {
	f, ok := n.field(key, jsoniter.NumberValue)
	if !ok {
		return 0, false
	}
	v := f.ToFloat64()
	return v, f.LastError() == nil
}

func (n anyNode) String(key string) (string, bool) {
	f, ok := n.field(key, jsoniter.StringValue)
	if !ok {
		return "", false
	}
	return f.ToString(), true
}

func (n anyNode) Array(key string) ([]Node, bool) {
	f, ok := n.field(key, jsoniter.ArrayValue)
	if !ok {
		return nil, false
	}
	size := f.Size()
	nodes := make([]Node, 0, size)
	for i := 0; i < size; i++ {
		nodes = append(nodes, anyNode{v: f.Get(i)})
	}
	return nodes, true
}

func (n anyNode) Object(key string) (Node, bool) {
	f, ok := n.field(key, jsoniter.ObjectValue)
	if !ok {
		return nil, false
	}
	return anyNode{v: f}, true
}

// IsObject reports whether the node is a JSON object. Array elements of other
// kinds still satisfy Node but every accessor on them reports false.
func IsObject(n Node) bool {
	a, ok := n.(anyNode)
	if !ok {
		return n != nil
	}
	return a.v.ValueType() == jsoniter.ObjectValue
}

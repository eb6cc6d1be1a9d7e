// Package shape provides Node, a possibly nested container of leaves, and
// shape-preserving traversals over it.
//
// A Node is exactly one of: a single leaf, an ordered sequence of nodes, or
// a mapping from unique keys to nodes. Traversals rebuild the same shape
// around transformed leaves, so a sequence stays a sequence and a mapping
// stays a mapping however deeply they are nested.
package shape

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind is the container kind of a Node.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a leaf, a sequence of nodes, or a mapping of keys to nodes.
// The zero Node is a leaf holding the zero value of T.
type Node[T any] struct {
	kind  Kind
	leaf  T
	items []Node[T]
	keys  []string // mapping only; aligned with items
}

// Leaf wraps a single value.
func Leaf[T any](v T) Node[T] {
	return Node[T]{kind: KindLeaf, leaf: v}
}

// Seq builds an ordered sequence of nodes.
func Seq[T any](items ...Node[T]) Node[T] {
	return Node[T]{kind: KindSequence, items: slices.Clone(items)}
}

// SeqOf builds a sequence of leaves.
func SeqOf[T any](values ...T) Node[T] {
	return Node[T]{kind: KindSequence, items: lo.Map(values, func(v T, _ int) Node[T] { return Leaf(v) })}
}

// Map builds a mapping. Keys are kept in sorted order.
func Map[T any](m map[string]Node[T]) Node[T] {
	keys := lo.Keys(m)
	slices.Sort(keys)
	items := make([]Node[T], len(keys))
	for i, k := range keys {
		items[i] = m[k]
	}
	return Node[T]{kind: KindMapping, keys: keys, items: items}
}

// MapOf builds a mapping of leaves. Keys are kept in sorted order.
func MapOf[T any](m map[string]T) Node[T] {
	return Map(lo.MapValues(m, func(v T, _ string) Node[T] { return Leaf(v) }))
}

// FromOrdered builds a mapping of leaves that keeps the insertion order of om.
func FromOrdered[T any](om *orderedmap.OrderedMap[string, T]) Node[T] {
	n := Node[T]{kind: KindMapping}
	if om == nil {
		return n
	}
	n.keys = make([]string, 0, om.Len())
	n.items = make([]Node[T], 0, om.Len())
	for pair := om.Oldest(); pair != nil; pair = pair.Next() {
		n.keys = append(n.keys, pair.Key)
		n.items = append(n.items, Leaf(pair.Value))
	}
	return n
}

// Kind returns the container kind of n.
func (n Node[T]) Kind() Kind { return n.kind }

// IsLeaf reports whether n is a single leaf.
func (n Node[T]) IsLeaf() bool { return n.kind == KindLeaf }

// Len returns the number of direct children; zero for a leaf.
func (n Node[T]) Len() int { return len(n.items) }

// Value returns the leaf value; the zero value for containers.
func (n Node[T]) Value() T { return n.leaf }

// Index returns the i-th child of a sequence or mapping.
// It panics if i is out of range.
func (n Node[T]) Index(i int) Node[T] { return n.items[i] }

// Key returns the child stored under k in a mapping.
func (n Node[T]) Key(k string) (Node[T], bool) {
	if n.kind != KindMapping {
		return Node[T]{}, false
	}
	i := slices.Index(n.keys, k)
	if i < 0 {
		return Node[T]{}, false
	}
	return n.items[i], true
}

// Keys returns the keys of a mapping in iteration order.
func (n Node[T]) Keys() []string { return slices.Clone(n.keys) }

// Leaves returns every leaf in depth-first order.
func (n Node[T]) Leaves() []T {
	var out []T
	n.walk("", func(_ string, v T) {
		out = append(out, v)
	})
	return out
}

// Any converts n to plain Go values: a leaf becomes its value, a sequence
// becomes []any and a mapping becomes map[string]any.
func (n Node[T]) Any() any {
	switch n.kind {
	case KindSequence:
		return lo.Map(n.items, func(c Node[T], _ int) any { return c.Any() })
	case KindMapping:
		out := make(map[string]any, len(n.items))
		for i, c := range n.items {
			out[n.keys[i]] = c.Any()
		}
		return out
	default:
		return n.leaf
	}
}

func (n Node[T]) String() string {
	switch n.kind {
	case KindSequence:
		parts := lo.Map(n.items, func(c Node[T], _ int) string { return c.String() })
		return "[" + strings.Join(parts, " ") + "]"
	case KindMapping:
		parts := make([]string, len(n.items))
		for i, c := range n.items {
			parts[i] = n.keys[i] + ":" + c.String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return fmt.Sprint(n.leaf)
	}
}

// Empty returns the path of the first sequence or mapping without children,
// and false if every container in n holds at least one child.
func (n Node[T]) Empty() (string, bool) {
	return n.empty("")
}

func (n Node[T]) empty(path string) (string, bool) {
	if n.kind == KindLeaf {
		return "", false
	}
	if len(n.items) == 0 {
		return path, true
	}
	for i, c := range n.items {
		if p, ok := c.empty(n.childPath(path, i)); ok {
			return p, true
		}
	}
	return "", false
}

func (n Node[T]) walk(path string, fn func(string, T)) {
	if n.kind == KindLeaf {
		fn(path, n.leaf)
		return
	}
	for i, c := range n.items {
		c.walk(n.childPath(path, i), fn)
	}
}

// childPath joins the path of the i-th child onto path.
func (n Node[T]) childPath(path string, i int) string {
	seg := strconv.Itoa(i)
	if n.kind == KindMapping {
		seg = n.keys[i]
	}
	if path == "" {
		return seg
	}
	return path + "." + seg
}

// DisplayPath renders a leaf path for messages; the root leaf has no path.
func DisplayPath(path string) string {
	if path == "" {
		return "root"
	}
	return path
}

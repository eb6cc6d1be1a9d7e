package shape

// Transform maps every leaf of n through fn and returns a node with the same
// shape. It stops at the first error.
func Transform[A, B any](n Node[A], fn func(A) (B, error)) (Node[B], error) {
	return TransformPath(n, func(_ string, a A) (B, error) {
		return fn(a)
	})
}

// TransformPath is Transform with the dot-joined path of each leaf, for
// example "0", "train" or "val.1". The root leaf has the empty path.
// Leaves are visited depth-first in container order.
func TransformPath[A, B any](n Node[A], fn func(path string, a A) (B, error)) (Node[B], error) {
	return transformAt(n, "", fn)
}

func transformAt[A, B any](n Node[A], path string, fn func(string, A) (B, error)) (Node[B], error) {
	if n.kind == KindLeaf {
		b, err := fn(path, n.leaf)
		if err != nil {
			return Node[B]{}, err
		}
		return Leaf(b), nil
	}

	out := Node[B]{kind: n.kind, items: make([]Node[B], len(n.items))}
	if n.kind == KindMapping {
		out.keys = n.keys
	}
	for i, c := range n.items {
		tc, err := transformAt(c, n.childPath(path, i), fn)
		if err != nil {
			return Node[B]{}, err
		}
		out.items[i] = tc
	}
	return out, nil
}

// Reduce folds n to a single value. Each leaf is converted with leaf, and the
// results of every container's children are combined with combine,
// innermost containers first.
func Reduce[T, R any](n Node[T], leaf func(T) R, combine func([]R) R) R {
	if n.kind == KindLeaf {
		return leaf(n.leaf)
	}
	parts := make([]R, len(n.items))
	for i, c := range n.items {
		parts[i] = Reduce(c, leaf, combine)
	}
	return combine(parts)
}

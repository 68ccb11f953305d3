// Package arena provides an index-addressed container used for every entity
// space in a [module.Module]: signatures, functions, tables, memories,
// globals, imports, exports. Entities never move once appended, so an
// [Index] captured before a rewrite remains valid after it.
package arena

// Index identifies an element of an Arena by position. The zero Index
// denotes the first element; there is no reserved "invalid" value, so
// callers that need one use a separate bool or a -1 sentinel.
type Index uint32

// Arena is an append-only, index-addressed collection of T.
type Arena[T any] struct {
	items []T
}

// From builds an Arena directly from items, indexed in slice order. Used
// when a pass rebuilds an index space wholesale (e.g. after compacting
// indices during dead-code elimination).
func From[T any](items []T) Arena[T] {
	return Arena[T]{items: items}
}

// Len returns the number of elements in a.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// Append adds v to the end of a, returning its Index.
func (a *Arena[T]) Append(v T) Index {
	i := Index(len(a.items))
	a.items = append(a.items, v)
	return i
}

// Get returns a pointer to the element at i, for in-place mutation.
func (a *Arena[T]) Get(i Index) *T {
	return &a.items[i]
}

// All returns the backing slice in append order. Callers must not retain it
// across further Append calls, which may reallocate.
func (a *Arena[T]) All() []T {
	return a.items
}

// Slice returns a copy of the backing slice, safe to retain.
func (a *Arena[T]) Slice() []T {
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}

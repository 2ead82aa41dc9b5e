// Package arena stores values behind generation-checked handles.
//
// A Handle stays valid until the slot it points at is removed. Removing a
// slot bumps its generation, so every handle issued before the removal
// reports stale instead of silently resolving to whatever value reuses the
// slot later.
package arena

import (
	"errors"
	"fmt"
)

// ErrStale is returned when a handle no longer refers to a live value.
var ErrStale = errors.New("stale handle")

// Handle identifies a slot in an Arena. The zero Handle is never valid.
type Handle struct {
	Index uint32
	Gen   uint32
}

// Nil is the zero handle.
var Nil Handle

// IsNil reports whether h is the zero handle.
func (h Handle) IsNil() bool { return h == Nil }

func (h Handle) String() string {
	if h.IsNil() {
		return "nil"
	}
	return fmt.Sprintf("%d#%d", h.Index, h.Gen)
}

type slot[T any] struct {
	gen   uint32
	live  bool
	value T
}

// Arena is a slot allocator with free-list reuse. It is not safe for
// concurrent use.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

// New returns an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Handle {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.live = true
		s.value = v
		a.live++
		return Handle{Index: idx, Gen: s.gen}
	}
	// Generations start at 1 so the zero Handle never matches.
	a.slots = append(a.slots, slot[T]{gen: 1, live: true, value: v})
	a.live++
	return Handle{Index: uint32(len(a.slots) - 1), Gen: 1}
}

// Valid reports whether h refers to a live value.
func (a *Arena[T]) Valid(h Handle) bool {
	if h.IsNil() || int(h.Index) >= len(a.slots) {
		return false
	}
	s := &a.slots[h.Index]
	return s.live && s.gen == h.Gen
}

// Get returns the value for h, or false when h is stale.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	if !a.Valid(h) {
		var zero T
		return zero, false
	}
	return a.slots[h.Index].value, true
}

// Ptr returns a pointer to the stored value so callers can mutate it in
// place. The pointer is invalidated by the next Insert.
func (a *Arena[T]) Ptr(h Handle) (*T, error) {
	if !a.Valid(h) {
		return nil, fmt.Errorf("arena: %s: %w", h, ErrStale)
	}
	return &a.slots[h.Index].value, nil
}

// Remove frees the slot for h. Removing a stale handle is a no-op and
// returns false.
func (a *Arena[T]) Remove(h Handle) bool {
	if !a.Valid(h) {
		return false
	}
	s := &a.slots[h.Index]
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	a.free = append(a.free, h.Index)
	a.live--
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.live }

// Each calls fn for every live value in slot order. fn must not insert or
// remove values.
func (a *Arena[T]) Each(fn func(h Handle, v T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.live {
			fn(Handle{Index: uint32(i), Gen: s.gen}, s.value)
		}
	}
}

// Handles returns the handles of all live values in slot order.
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, a.live)
	a.Each(func(h Handle, _ T) { out = append(out, h) })
	return out
}

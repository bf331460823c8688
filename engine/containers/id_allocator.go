package containers

import "golang.org/x/exp/constraints"

// IDAllocator hands out dense integer ids. Released ids are reused before the
// high water mark moves.
type IDAllocator[T constraints.Unsigned] struct {
	next T
	free []T
}

func NewIDAllocator[T constraints.Unsigned]() *IDAllocator[T] {
	return &IDAllocator[T]{}
}

// Acquire returns a free id. Existing free spot first.
func (a *IDAllocator[T]) Acquire() T {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Release makes id available again. Ids never handed out are ignored.
func (a *IDAllocator[T]) Release(id T) bool {
	if id >= a.next {
		return false
	}
	for _, f := range a.free {
		if f == id {
			return false
		}
	}
	a.free = append(a.free, id)
	return true
}

// HighWater is one past the largest id handed out so far.
func (a *IDAllocator[T]) HighWater() T {
	return a.next
}

// InUse is the number of ids currently handed out.
func (a *IDAllocator[T]) InUse() int {
	return int(a.next) - len(a.free)
}

package region

import (
	"errors"
	"fmt"
)

// ErrCapacity is returned when a List cannot grow any further.
var ErrCapacity = errors.New("region: list capacity exceeded")

// MaxListCapacity caps how many entries a single List may hold.
const MaxListCapacity = 1 << 20

const defaultListCapacity = 16

// List is an ordered, growable collection of Regions. Entries are kept in
// insertion order; overlapping entries are not coalesced.
type List struct {
	entries []Region
	count   int
}

// NewList allocates a List able to hold capacity entries before growing.
func NewList(capacity int) (*List, error) {
	if capacity < 0 || capacity > MaxListCapacity {
		return nil, fmt.Errorf("new list with capacity %d: %w", capacity, ErrCapacity)
	}
	if capacity == 0 {
		capacity = defaultListCapacity
	}
	return &List{entries: make([]Region, capacity)}, nil
}

// Free releases the backing storage. The List is empty afterwards and
// grows again on the next Add.
func (l *List) Free() {
	l.entries = nil
	l.count = 0
}

// Len returns the number of entries.
func (l *List) Len() int { return l.count }

// Cap returns the number of entries the List holds before reallocating.
func (l *List) Cap() int { return len(l.entries) }

// At returns entry i. It panics if i is out of range, like a slice index.
func (l *List) At(i int) Region {
	if i < 0 || i >= l.count {
		panic(fmt.Sprintf("region: list index %d out of range [0:%d]", i, l.count))
	}
	return l.entries[i]
}

// Regions returns a copy of the live entries.
func (l *List) Regions() []Region {
	out := make([]Region, l.count)
	copy(out, l.entries[:l.count])
	return out
}

// Add appends r, doubling the backing storage when full.
func (l *List) Add(r Region) error {
	if err := l.reserve(l.count + 1); err != nil {
		return err
	}
	l.entries[l.count] = r
	l.count++
	return nil
}

// Clear drops every entry while keeping the backing storage.
func (l *List) Clear() {
	l.count = 0
}

// Bounds returns the union of all entries and false when the List is empty.
func (l *List) Bounds() (Region, bool) {
	if l.count == 0 {
		return Region{}, false
	}
	out := l.entries[0]
	for _, r := range l.entries[1:l.count] {
		Union(&out, out, r)
	}
	return out, true
}

func (l *List) reserve(n int) error {
	if n <= len(l.entries) {
		return nil
	}
	if n > MaxListCapacity {
		return fmt.Errorf("grow list to %d entries: %w", n, ErrCapacity)
	}
	size := len(l.entries) * 2
	if size < defaultListCapacity {
		size = defaultListCapacity
	}
	for size < n {
		size *= 2
	}
	size = min(size, MaxListCapacity)
	grown := make([]Region, size)
	copy(grown, l.entries[:l.count])
	l.entries = grown
	return nil
}

// Clone replaces dst's entries with a copy of src's.
func Clone(dst, src *List) error {
	dst.count = 0
	if err := dst.reserve(src.count); err != nil {
		return err
	}
	copy(dst.entries, src.entries[:src.count])
	dst.count = src.count
	return nil
}

// Merge appends every entry of src to dst.
func Merge(dst, src *List) error {
	n := src.count
	if err := dst.reserve(dst.count + n); err != nil {
		return err
	}
	copy(dst.entries[dst.count:], src.entries[:n])
	dst.count += n
	return nil
}

package command

import "iter"

// Source is a command stream for one frame. The compositor walks All once,
// front to back, and calls Reset after presenting.
type Source interface {
	All() iter.Seq[Command]
	Reset()
}

// Buffer is a reusable Source backed by a slice. The zero value is ready
// to use. It is not safe for concurrent use.
type Buffer struct {
	cmds []Command
}

// NewBuffer returns a Buffer with room for capacity commands.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{cmds: make([]Command, 0, capacity)}
}

// Push appends commands to the frame.
func (b *Buffer) Push(cmds ...Command) {
	b.cmds = append(b.cmds, cmds...)
}

// Len returns the number of queued commands.
func (b *Buffer) Len() int { return len(b.cmds) }

// All yields the queued commands in order.
func (b *Buffer) All() iter.Seq[Command] {
	return func(yield func(Command) bool) {
		for _, c := range b.cmds {
			if !yield(c) {
				return
			}
		}
	}
}

// Reset drops every command and keeps the backing array for the next frame.
func (b *Buffer) Reset() {
	clear(b.cmds)
	b.cmds = b.cmds[:0]
}

// Counts tallies commands per kind.
func Counts(src Source) map[Kind]int {
	out := make(map[Kind]int)
	for c := range src.All() {
		out[c.Kind()]++
	}
	return out
}

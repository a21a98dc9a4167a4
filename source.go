package datapipe

import (
	"iter"

	"go.llib.dev/frameless/pkg/iterkit"
)

// Source is the capability a Pipeline consumes items through.
//
// Items must return a fresh lazy sequence on every call,
// this is what makes the wrapping Pipeline restartable.
// The sequence may be infinite,
// and it may yield a non-nil error as its final element to signal a terminal failure.
type Source[T any] interface {
	Items() iterkit.ErrSeq[T]
}

// SourceFunc turns a plain function into a Source.
type SourceFunc[T any] func() iterkit.ErrSeq[T]

func (fn SourceFunc[T]) Items() iterkit.ErrSeq[T] { return fn() }

// FromSeq adapts a re-iterable iter.Seq into a Source.
// The given sequence must support repeated traversals,
// single-use sequences would break the restartability of the Pipeline.
func FromSeq[T any](src iter.Seq[T]) Source[T] {
	return SourceFunc[T](func() iterkit.ErrSeq[T] {
		return iterkit.AsSeqE(src)
	})
}

// FromSlice adapts a slice into a Source.
func FromSlice[T any](vs []T) Source[T] {
	return FromSeq(iterkit.FromSlice(vs))
}

// Package datapipe provides a bounded streaming pipeline over lazy, possibly infinite item sources.
//
// A Pipeline wraps a Source and augments its sequence with four orthogonal behaviours:
// bounded-window shuffling, offset skipping, count limiting and per-item transformation.
// Traversing the same Pipeline value repeatedly yields identical output sequences,
// since the shuffle seed is fixed at construction time,
// and the Source is asked for a fresh sequence at the beginning of every traversal.
package datapipe

import (
	"errors"
	"iter"
	"math/rand/v2"

	"go.llib.dev/frameless/pkg/errorkit"
	"go.llib.dev/frameless/pkg/iterkit"
	"go.llib.dev/frameless/port/option"

	"go.llib.dev/datapipe/randkit"
)

const (
	// ErrTransformsRequired is returned by New
	// when Config.TransformsRequired is set but no transform was given.
	ErrTransformsRequired errorkit.Error = "datapipe: transforms are required, but none were given"
	// ErrNilSource is returned by New when the Source argument is nil.
	ErrNilSource errorkit.Error = "datapipe: a Source is required"
)

// Skip is a marker that a Source may yield in the error position of its sequence
// to request that the item produced alongside it is discarded by the Pipeline.
// A skipped item is invisible to the offset, the limit and the transforms,
// while the Source's own progression continues.
// Skip is not an error condition, it is only a side-channel signal,
// similar in spirit to how fs.SkipDir works with fs.WalkDir.
const Skip errorkit.Error = "datapipe: skip the current item"

// Config contains the pipeline configuration options.
// The zero value stands for "use the default",
// thus a nil Limit means unbounded and a zero ShuffleBuffer means no shuffling.
type Config[T any] struct {
	// ShuffleBuffer is the size of the shuffle window.
	// Values below two disable shuffling.
	ShuffleBuffer int
	// ShuffleSeed is the seed used for the deterministic shuffling.
	// When left as nil, a seed is generated once at construction time,
	// and then reused for every traversal of the pipeline.
	ShuffleSeed *int64
	// Offset is the number of leading source items to discard before output begins.
	Offset int
	// Limit is the maximum number of items a traversal emits.
	// Nil and negative values both mean unbounded, nil being the default.
	// An explicit zero yields an empty run.
	Limit *int
	// Transforms are applied to each emitted item in order,
	// the output of one being the input of the next.
	Transforms []func(T) T
	// TransformsRequired makes New fail when Transforms is empty.
	// Useful when the Source reuses a mutable helper value to produce items,
	// and the values must be copied out of it with a transform.
	TransformsRequired bool
}

// Option configures a Pipeline during New.
// Config itself is an Option, so the common form is passing a Config literal.
type Option[T any] option.Option[Config[T]]

func (c Config[T]) Configure(t *Config[T]) {
	if c.ShuffleBuffer != 0 {
		t.ShuffleBuffer = c.ShuffleBuffer
	}
	if c.ShuffleSeed != nil {
		t.ShuffleSeed = c.ShuffleSeed
	}
	if c.Offset != 0 {
		t.Offset = c.Offset
	}
	if c.Limit != nil {
		t.Limit = c.Limit
	}
	if 0 < len(c.Transforms) {
		t.Transforms = c.Transforms
	}
	if c.TransformsRequired {
		t.TransformsRequired = true
	}
}

// defaultSeedMax is the inclusive upper bound for generated shuffle seeds.
const defaultSeedMax = 999331

// New returns a Pipeline that traverses the given Source with the configured
// offset, limit, transforms and shuffle window applied.
//
// When no shuffle seed is configured, one is generated here and held for the
// lifetime of the Pipeline, keeping repeated traversals deterministic.
func New[T any](src Source[T], opts ...Option[T]) (*Pipeline[T], error) {
	c := Config[T]{ShuffleBuffer: 1}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.Configure(&c)
	}
	if src == nil {
		return nil, ErrNilSource
	}
	if c.TransformsRequired && len(c.Transforms) == 0 {
		return nil, ErrTransformsRequired
	}
	p := &Pipeline[T]{source: src, config: c, limit: -1}
	if c.Limit != nil {
		p.limit = *c.Limit
	}
	if c.ShuffleSeed != nil {
		p.seed = *c.ShuffleSeed
	} else {
		p.seed = rand.Int64N(defaultSeedMax + 1)
	}
	return p, nil
}

// Pipeline is a restartable lazy sequence over a Source.
// It implements Source itself, so pipelines can be composed.
//
// A Pipeline must not be traversed from multiple goroutines at the same time,
// its traversal state is unsynchronised.
type Pipeline[T any] struct {
	source Source[T]
	config Config[T]
	seed   int64
	limit  int

	// run state, owned by the traversal currently in progress
	counter int
	buffer  []T
}

// Items begins a new run over the Source and returns its lazy output sequence.
//
// The run ends when the Source is exhausted or when the limit cuts it off,
// whichever happens first, and the run state is reset afterwards so that the
// next Items call reproduces the same output.
// A Source failure is yielded as the last element of the sequence,
// the run state is reset before the failure is observed.
//
// Abandoning a traversal before its end leaves the current run state behind,
// the next Items call begins from a clean state regardless.
func (p *Pipeline[T]) Items() iterkit.ErrSeq[T] {
	return func(yield func(T, error) bool) {
		p.reset()
		next, stop := iter.Pull2(p.source.Items())
		defer stop()
		for p.limitAllowsOneMore() {
			v, err, ok := next()
			if !ok {
				break
			}
			if err != nil {
				if errors.Is(err, Skip) {
					continue
				}
				p.reset()
				var zero T
				yield(zero, err)
				return
			}
			if p.counter < p.config.Offset {
				p.counter++
				continue
			}
			v = p.transform(v)
			if 1 < p.config.ShuffleBuffer {
				p.buffer = append(p.buffer, v)
				if p.config.ShuffleBuffer <= len(p.buffer) {
					if !p.flush(yield) {
						return
					}
				}
			} else if !yield(v, nil) {
				return
			}
			p.counter++
		}
		if 0 < len(p.buffer) { // drain the partial window
			if !p.flush(yield) {
				return
			}
		}
		p.reset()
	}
}

func (p *Pipeline[T]) limitAllowsOneMore() bool {
	if p.limit < 0 {
		return true
	}
	// skipped offset items share the counter with the emitted ones
	return p.counter < p.limit+p.config.Offset
}

func (p *Pipeline[T]) transform(v T) T {
	for _, transform := range p.config.Transforms {
		v = transform(v)
	}
	return v
}

// flush emits the buffered items in a deterministically shuffled order.
// The generator is reseeded with the pipeline seed on every flush,
// it is not a continuously advancing generator.
func (p *Pipeline[T]) flush(yield func(T, error) bool) bool {
	randkit.Vals(randkit.New(p.seed), p.buffer)
	for _, v := range p.buffer {
		if !yield(v, nil) {
			return false
		}
	}
	p.buffer = nil
	return true
}

func (p *Pipeline[T]) reset() {
	p.counter = 0
	p.buffer = nil
}

// Package transform applies selections to pose sequences: hiding keypoints by
// zeroing confidence, moving them by per-frame offsets, and the related
// attach, merge and smoothing operations.
//
// Every operation validates the input shape, works on a deep copy and leaves
// the caller's sequence untouched.
package transform

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/heimdex/heimdex-pose/internal/pose"
)

// AllPeople targets every person in a frame.
const AllPeople = -1

// Options configures an Engine.
type Options struct {
	// Workers bounds how many frames are processed at once. Zero means
	// GOMAXPROCS.
	Workers int
	// Strict turns an out-of-range person index into an
	// InvalidPersonIndexError instead of a per-frame no-op.
	Strict bool
	Logger *slog.Logger
}

// Engine runs transforms. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	workers int
	strict  bool
	logger  *slog.Logger
}

func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{workers: workers, strict: opts.Strict, logger: logger}
}

// Workers reports the frame parallelism bound.
func (e *Engine) Workers() int { return e.workers }

// Strict reports whether out-of-range person indices are errors.
func (e *Engine) Strict() bool { return e.strict }

// prepare validates seq and returns a private copy to mutate.
func prepare(seq pose.Sequence) (pose.Sequence, error) {
	if err := pose.Validate(seq); err != nil {
		return nil, err
	}
	return seq.Clone(), nil
}

// eachFrame runs fn for every frame that has a people list, fanning out up
// to e.workers at a time. fn must only touch the frame it is given.
func (e *Engine) eachFrame(ctx context.Context, seq pose.Sequence, fn func(i int, f *pose.Frame) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range seq {
		if seq[i].People == nil {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(i, &seq[i])
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// targets resolves which person slots of a frame an operation applies to.
func (e *Engine) targets(f *pose.Frame, frameIndex, personIndex int) ([]int, error) {
	if personIndex < AllPeople {
		return nil, &InvalidPersonIndexError{Index: personIndex, Frame: frameIndex, People: len(f.People)}
	}
	if personIndex == AllPeople {
		out := make([]int, len(f.People))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	if personIndex >= len(f.People) {
		if e.strict {
			return nil, &InvalidPersonIndexError{Index: personIndex, Frame: frameIndex, People: len(f.People)}
		}
		return nil, nil
	}
	return []int{personIndex}, nil
}

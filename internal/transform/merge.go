package transform

import (
	"strconv"

	"github.com/heimdex/heimdex-pose/internal/pose"
)

const (
	DefaultCanvasWidth  = 512
	DefaultCanvasHeight = 768
)

// MergeOptions configures Merge.
type MergeOptions struct {
	CanvasWidth  int
	CanvasHeight int
}

// Merge composites several sequences into one scene by concatenating their
// people frame by frame. The output is as long as the longest input; a
// shorter input keeps contributing its last frame. Every output frame gets
// the canvas size from opts.
func (e *Engine) Merge(seqs []pose.Sequence, opts MergeOptions) (pose.Sequence, error) {
	n := 0
	for _, s := range seqs {
		if err := pose.Validate(s); err != nil {
			return nil, err
		}
		n = max(n, len(s))
	}

	width, height := opts.CanvasWidth, opts.CanvasHeight
	if width <= 0 {
		width = DefaultCanvasWidth
	}
	if height <= 0 {
		height = DefaultCanvasHeight
	}

	out := make(pose.Sequence, n)
	for i := range out {
		frame := pose.Frame{
			People: []pose.Person{},
			Extra: map[string][]byte{
				"canvas_width":  []byte(strconv.Itoa(width)),
				"canvas_height": []byte(strconv.Itoa(height)),
			},
		}
		for _, s := range seqs {
			if len(s) == 0 {
				continue
			}
			for _, p := range s[min(i, len(s)-1)].People {
				frame.People = append(frame.People, p.Clone())
			}
		}
		out[i] = frame
	}

	e.logger.Debug("merge applied", "inputs", len(seqs), "frames", n)
	return out, nil
}

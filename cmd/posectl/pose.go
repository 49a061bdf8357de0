package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/posefile"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

func addIOFlags(cmd *cobra.Command) {
	cmd.Flags().String("in", "", "input pose file")
	cmd.Flags().String("out", "", "output pose file (default stdout)")
	_ = cmd.MarkFlagRequired("in")
}

func readInput(cmd *cobra.Command, flag string) (pose.Sequence, error) {
	path, err := cmd.Flags().GetString(flag)
	if err != nil {
		return nil, err
	}
	return posefile.ReadSequence(path)
}

// writeOutput writes seq to --out, or to stdout when --out is empty.
func writeOutput(cmd *cobra.Command, seq pose.Sequence) error {
	path, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if path == "" {
		return pose.EncodeSequence(cmd.OutOrStdout(), seq)
	}
	return posefile.WriteSequence(path, seq)
}

// parseOffsets accepts a single number, a comma separated list or a JSON
// array. An empty string is the scalar 0.
func parseOffsets(s string) (transform.Offsets, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return transform.Scalar(0), nil
	case strings.HasPrefix(s, "["):
		var o transform.Offsets
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return transform.Offsets{}, fmt.Errorf("invalid offsets %q: %w", s, err)
		}
		return o, nil
	case strings.Contains(s, ","):
		var vs []float64
		for _, part := range strings.Split(s, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return transform.Offsets{}, fmt.Errorf("invalid offset %q: %w", part, err)
			}
			vs = append(vs, v)
		}
		return transform.List(vs...), nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return transform.Offsets{}, fmt.Errorf("invalid offset %q: %w", s, err)
		}
		return transform.Scalar(v), nil
	}
}

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filter",
		GroupID: poseGroup.ID,
		Short:   "Hide every keypoint outside a selection",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := readInput(cmd, "in")
			if err != nil {
				return err
			}
			sel, err := resolveSelection(cmd, false)
			if err != nil {
				return err
			}
			opts, err := filterOptions(cmd)
			if err != nil {
				return err
			}
			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			out, err := engine.Filter(cmd.Context(), seq, *sel, opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		},
	}
	addIOFlags(cmd)
	addFilterFlags(cmd)
	return cmd
}

func addFilterFlags(cmd *cobra.Command) {
	addSelectionFlags(cmd, "all")
	cmd.Flags().Int("person", transform.AllPeople, "person index to filter (-1 for everyone)")
	cmd.Flags().Bool("invert", false, "hide the selected keypoints instead")
}

func filterOptions(cmd *cobra.Command) (transform.FilterOptions, error) {
	person, err := cmd.Flags().GetInt("person")
	if err != nil {
		return transform.FilterOptions{}, err
	}
	invert, err := cmd.Flags().GetBool("invert")
	if err != nil {
		return transform.FilterOptions{}, err
	}
	return transform.FilterOptions{PersonIndex: person, Invert: invert}, nil
}

func newMoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "move",
		GroupID: poseGroup.ID,
		Short:   "Translate selected keypoints by per-frame offsets",
		Long: `Moves an appendage, or the selection given by --type, by --x and --y.
Offsets are a single number or a comma separated list with one value per
frame; --policy decides how a list is fitted to the sequence length.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := readInput(cmd, "in")
			if err != nil {
				return err
			}
			opts, err := moveOptions(cmd)
			if err != nil {
				return err
			}
			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			out, err := engine.Move(cmd.Context(), seq, opts)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		},
	}
	addIOFlags(cmd)
	addMoveFlags(cmd)
	return cmd
}

func addMoveFlags(cmd *cobra.Command) {
	addSelectionFlags(cmd, "")
	cmd.Flags().String("appendage", transform.DefaultAppendage, "preset to move when --type is not set")
	cmd.Flags().String("x", "0", "x offset(s)")
	cmd.Flags().String("y", "0", "y offset(s)")
	cmd.Flags().String("policy", string(transform.Truncate), "offset length mismatch policy (truncate, loop, repeat)")
	cmd.Flags().Int("person", transform.AllPeople, "person index to move (-1 for everyone)")
	cmd.Flags().Bool("affect-hands", false, "move a hand with its wrist")
	cmd.Flags().Bool("affect-face", false, "move the face with the head")
	cmd.Flags().Bool("include-hidden", false, "also move keypoints with zero confidence")
}

func moveOptions(cmd *cobra.Command) (transform.MoveOptions, error) {
	flags := cmd.Flags()
	sel, err := resolveSelection(cmd, true)
	if err != nil {
		return transform.MoveOptions{}, err
	}
	appendage, _ := flags.GetString("appendage")
	xs, _ := flags.GetString("x")
	ys, _ := flags.GetString("y")
	policyName, _ := flags.GetString("policy")
	person, _ := flags.GetInt("person")
	hands, _ := flags.GetBool("affect-hands")
	face, _ := flags.GetBool("affect-face")
	hidden, _ := flags.GetBool("include-hidden")

	x, err := parseOffsets(xs)
	if err != nil {
		return transform.MoveOptions{}, err
	}
	y, err := parseOffsets(ys)
	if err != nil {
		return transform.MoveOptions{}, err
	}
	policy, err := transform.ParsePolicy(policyName)
	if err != nil {
		return transform.MoveOptions{}, err
	}

	return transform.MoveOptions{
		X:             x,
		Y:             y,
		Selection:     sel,
		Appendage:     appendage,
		PersonIndex:   person,
		Policy:        policy,
		AffectHands:   hands,
		AffectFace:    face,
		IncludeHidden: hidden,
	}, nil
}

func newAttachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attach",
		GroupID: poseGroup.ID,
		Short:   "Graft keypoints from one pose file onto another",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := readInput(cmd, "in")
			if err != nil {
				return err
			}
			attachment, err := readInput(cmd, "attachment")
			if err != nil {
				return err
			}
			sel, err := resolveSelection(cmd, true)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			anchor, _ := flags.GetInt("anchor")
			basePerson, _ := flags.GetInt("base-person")
			attachPerson, _ := flags.GetInt("attachment-person")
			hands, _ := flags.GetBool("hands")
			face, _ := flags.GetBool("face")

			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			out, err := engine.Attach(cmd.Context(), base, attachment, transform.AttachOptions{
				AnchorIndex:      anchor,
				Selection:        sel,
				BasePerson:       basePerson,
				AttachmentPerson: attachPerson,
				AttachHands:      hands,
				AttachFace:       face,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		},
	}
	addIOFlags(cmd)
	addSelectionFlags(cmd, "")
	cmd.Flags().String("attachment", "", "pose file to take keypoints from")
	cmd.Flags().Int("anchor", skeleton.Neck, "body index aligned between the two poses")
	cmd.Flags().Int("base-person", 0, "person index in the base file")
	cmd.Flags().Int("attachment-person", 0, "person index in the attachment file")
	cmd.Flags().Bool("hands", false, "also attach both hands")
	cmd.Flags().Bool("face", false, "also attach the face")
	_ = cmd.MarkFlagRequired("attachment")
	return cmd
}

func newSmoothCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "smooth",
		GroupID: poseGroup.ID,
		Short:   "Damp frame to frame jitter",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := readInput(cmd, "in")
			if err != nil {
				return err
			}
			sel, err := resolveSelection(cmd, true)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			factor, _ := flags.GetFloat64("factor")
			focus, _ := flags.GetInt("focus")
			person, _ := flags.GetInt("person")
			hands, _ := flags.GetBool("hands")
			face, _ := flags.GetBool("face")

			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			out, err := engine.Smooth(cmd.Context(), seq, transform.SmoothOptions{
				Factor:      factor,
				Selection:   sel,
				FocusIndex:  focus,
				PersonIndex: person,
				SmoothHands: hands,
				SmoothFace:  face,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		},
	}
	addIOFlags(cmd)
	addSelectionFlags(cmd, "")
	cmd.Flags().Float64("factor", transform.DefaultSmoothFactor, "smoothing factor in [0, 1]; 1 leaves the sequence unchanged")
	cmd.Flags().Int("focus", transform.NoFocus, "body index smoothed first (-1 for none)")
	cmd.Flags().Int("person", transform.AllPeople, "person index to smooth (-1 for everyone)")
	cmd.Flags().Bool("hands", true, "also smooth the hands")
	cmd.Flags().Bool("face", false, "also smooth the face")
	return cmd
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "merge <file>...",
		GroupID: poseGroup.ID,
		Short:   "Combine the people of several pose files into one scene",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seqs := make([]pose.Sequence, 0, len(args))
			for _, path := range args {
				seq, err := posefile.ReadSequence(path)
				if err != nil {
					return err
				}
				seqs = append(seqs, seq)
			}
			width, _ := cmd.Flags().GetInt("width")
			height, _ := cmd.Flags().GetInt("height")

			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			out, err := engine.Merge(seqs, transform.MergeOptions{CanvasWidth: width, CanvasHeight: height})
			if err != nil {
				return err
			}
			return writeOutput(cmd, out)
		},
	}
	cmd.Flags().String("out", "", "output pose file (default stdout)")
	cmd.Flags().Int("width", transform.DefaultCanvasWidth, "canvas width written to every frame")
	cmd.Flags().Int("height", transform.DefaultCanvasHeight, "canvas height written to every frame")
	return cmd
}

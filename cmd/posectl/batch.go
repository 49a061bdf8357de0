package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-pose/internal/pose"
	"github.com/heimdex/heimdex-pose/internal/posefile"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

const barTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . }} {{etime . "%s elapsed"}}`

// batchFunc transforms one sequence read from a batch directory.
type batchFunc func(ctx context.Context, engine *transform.Engine, seq pose.Sequence) (pose.Sequence, error)

type batchSummary struct {
	files  int
	frames int
	people int
	bytes  uint64
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "batch",
		GroupID: batchGroup.ID,
		Short:   "Run a transform over every pose file in a directory",
	}
	cmd.PersistentFlags().String("in", "", "directory of input pose files")
	cmd.PersistentFlags().String("out", "", "existing directory for the results")
	cmd.PersistentFlags().String("suffix", "", "suffix added to every output file name")
	_ = cmd.MarkPersistentFlagRequired("in")
	_ = cmd.MarkPersistentFlagRequired("out")

	filter := &cobra.Command{
		Use:   "filter",
		Short: "Filter every pose file in --in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := resolveSelection(cmd, false)
			if err != nil {
				return err
			}
			opts, err := filterOptions(cmd)
			if err != nil {
				return err
			}
			return runBatch(cmd, "_filtered", func(ctx context.Context, e *transform.Engine, seq pose.Sequence) (pose.Sequence, error) {
				return e.Filter(ctx, seq, *sel, opts)
			})
		},
	}
	addFilterFlags(filter)

	move := &cobra.Command{
		Use:   "move",
		Short: "Move keypoints in every pose file in --in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := moveOptions(cmd)
			if err != nil {
				return err
			}
			return runBatch(cmd, "_moved", func(ctx context.Context, e *transform.Engine, seq pose.Sequence) (pose.Sequence, error) {
				return e.Move(ctx, seq, opts)
			})
		},
	}
	addMoveFlags(move)

	cmd.AddCommand(filter, move)
	return cmd
}

func runBatch(cmd *cobra.Command, defaultSuffix string, fn batchFunc) error {
	flags := cmd.Flags()
	inDir, _ := flags.GetString("in")
	outDir, _ := flags.GetString("out")
	suffix, _ := flags.GetString("suffix")
	if !flags.Changed("suffix") {
		suffix = defaultSuffix
	}

	if err := posefile.ValidateOutputDir(outDir); err != nil {
		return err
	}
	paths, err := posefile.ListPoseFiles(inDir)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", inDir, err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no %s files in %s", posefile.Ext, inDir)
	}

	engine, err := engineFor(cmd)
	if err != nil {
		return err
	}

	start := time.Now()
	bar := pb.ProgressBarTemplate(barTemplate).New(len(paths))
	bar.SetWriter(cmd.ErrOrStderr())
	bar.Set("prefix", cmd.Name())
	bar.Start()

	var sum batchSummary
	for _, path := range paths {
		outPath := posefile.OutputPath(outDir, path, suffix)
		if err := processFile(cmd.Context(), engine, fn, path, outPath, &sum); err != nil {
			bar.Finish()
			return err
		}
		bar.Increment()
	}
	bar.Finish()

	fmt.Fprintf(cmd.OutOrStdout(), "processed %s files (%s frames, %s people, %s) in %s\n",
		humanize.Comma(int64(sum.files)),
		humanize.Comma(int64(sum.frames)),
		humanize.Comma(int64(sum.people)),
		humanize.Bytes(sum.bytes),
		time.Since(start).Round(time.Millisecond),
	)
	return nil
}

func processFile(ctx context.Context, engine *transform.Engine, fn batchFunc, inPath, outPath string, sum *batchSummary) error {
	seq, err := posefile.ReadSequence(inPath)
	if err != nil {
		return err
	}
	out, err := fn(ctx, engine, seq)
	if err != nil {
		return fmt.Errorf("%s: %w", inPath, err)
	}
	if err := posefile.WriteSequence(outPath, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return err
	}
	sum.files++
	sum.frames += len(out)
	sum.people += out.PeopleCount()
	sum.bytes += uint64(info.Size())
	return nil
}

// Command posectl runs pose transforms over JSON files on disk.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-pose/internal/config"
	"github.com/heimdex/heimdex-pose/internal/logging"
	"github.com/heimdex/heimdex-pose/internal/transform"
)

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	selectionGroup = &cobra.Group{ID: "selection", Title: "Selection commands"}
	poseGroup      = &cobra.Group{ID: "pose", Title: "Pose file transforms"}
	batchGroup     = &cobra.Group{ID: "batch", Title: "Directory batch runs"}
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "posectl",
		Short:         "Filter, move and combine pose keypoint files",
		Long:          `Command line utilities for 2D pose keypoint sequences stored as JSON.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Int("workers", 0, "frames processed in parallel (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Bool("strict", false, "treat a missing person index as an error")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddGroup(selectionGroup, poseGroup, batchGroup)
	rootCmd.AddCommand(
		newPresetsCmd(),
		newResolveCmd(),
		newFilterCmd(),
		newMoveCmd(),
		newAttachCmd(),
		newSmoothCmd(),
		newMergeCmd(),
		newBatchCmd(),
	)
	return rootCmd
}

// engineFor builds a transform engine from the persistent flags.
func engineFor(cmd *cobra.Command) (*transform.Engine, error) {
	flags := cmd.Flags()
	workers, err := flags.GetInt("workers")
	if err != nil {
		return nil, err
	}
	strict, err := flags.GetBool("strict")
	if err != nil {
		return nil, err
	}
	level, err := flags.GetString("log-level")
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(level, cmd.ErrOrStderr())
	return transform.New(transform.Options{
		Workers: workers,
		Strict:  strict,
		Logger:  logging.WithComponent(logger, "posectl"),
	}), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

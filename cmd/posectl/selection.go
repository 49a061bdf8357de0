package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/heimdex-pose/internal/selection"
	"github.com/heimdex/heimdex-pose/internal/skeleton"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "presets",
		GroupID: selectionGroup.ID,
		Short:   "List body-part presets and their keypoint indices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tINDICES")
			for _, name := range skeleton.Names() {
				set, err := skeleton.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", name, joinInts(set.Indices()))
			}
			return w.Flush()
		},
	}
}

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resolve <type>",
		GroupID: selectionGroup.ID,
		Short:   "Resolve a preset or custom selection to keypoint indices",
		Long: `Resolves a preset name, or "custom" combined with --include-* flags,
and prints the selection as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := selectionFlags(cmd)
			if err != nil {
				return err
			}
			sel, err := selection.Resolve(args[0], flags)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			return enc.Encode(sel)
		},
	}
	addIncludeFlags(cmd)
	return cmd
}

// flagName maps a selection flag key to its command line spelling.
func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func addIncludeFlags(cmd *cobra.Command) {
	for _, key := range selection.FlagNames {
		region := strings.ReplaceAll(strings.TrimPrefix(key, "include_"), "_", " ")
		cmd.Flags().Bool(flagName(key), false, "include the "+region+" in a custom selection")
	}
}

// addSelectionFlags registers --type plus the include switches.
func addSelectionFlags(cmd *cobra.Command, defaultType string) {
	cmd.Flags().String("type", defaultType, `preset name, or "custom" to use the --include-* flags`)
	addIncludeFlags(cmd)
}

func selectionFlags(cmd *cobra.Command) (selection.Flags, error) {
	m := make(map[string]bool, len(selection.FlagNames))
	for _, key := range selection.FlagNames {
		v, err := cmd.Flags().GetBool(flagName(key))
		if err != nil {
			return selection.Flags{}, err
		}
		m[key] = v
	}
	return selection.FlagsFromMap(m)
}

// resolveSelection resolves --type and the include switches. It returns nil
// when --type was left unset and optional is true.
func resolveSelection(cmd *cobra.Command, optional bool) (*selection.Selection, error) {
	if optional && !cmd.Flags().Changed("type") {
		return nil, nil
	}
	typ, err := cmd.Flags().GetString("type")
	if err != nil {
		return nil, err
	}
	flags, err := selectionFlags(cmd)
	if err != nil {
		return nil, err
	}
	sel, err := selection.Resolve(typ, flags)
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/versionfield"
)

func newIndexCmd(a *app) *cobra.Command {
	var ignoreMalformed bool

	cmd := &cobra.Command{
		Use:   "index [file]",
		Short: "Build an index from a file of versions and save it",
		Long: `Read documents from a file or stdin and append them to the index at --store.

Each non-empty line is one document; several values on a line are separated
by commas or whitespace. Lines starting with '#' are skipped.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := openStore(ctx, a.cfg.Store)
			if err != nil {
				return err
			}
			opts, err := a.options()
			if err != nil {
				return err
			}
			if ignoreMalformed {
				opts = append(opts, versionfield.WithIgnoreMalformed(true))
			}

			ix, err := versionfield.Load(ctx, store, opts...)
			if err != nil {
				if !isNotFound(err) {
					return err
				}
				ix = versionfield.New(opts...)
			}
			defer ix.Close()

			lines, err := inputLines(cmd, args, true)
			if err != nil {
				return err
			}
			first := ix.Stats().Docs
			for n, line := range lines {
				if _, err := ix.Add(ctx, splitValues(line)...); err != nil {
					return fmt.Errorf("line %d: %w", n+1, err)
				}
			}
			if err := ix.Save(ctx, store); err != nil {
				return err
			}

			st := ix.Stats()
			if st.Docs == first {
				fmt.Fprintf(cmd.OutOrStdout(), "no documents indexed, %d segments, manifest %d\n", st.Segments, st.ManifestID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (ids %d-%d), %d segments, manifest %d\n",
				st.Docs-first, first, st.Docs-1, st.Segments, st.ManifestID)
			if st.MalformedCount > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "skipped %d malformed values\n", st.MalformedCount)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&ignoreMalformed, "ignore-malformed", false, "skip invalid values instead of failing")
	return cmd
}

func splitValues(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show a saved index summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ix, err := a.openIndex(cmd)
			if err != nil {
				return err
			}
			defer ix.Close()

			st := ix.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "field:     %s\n", st.Field)
			fmt.Fprintf(out, "sort mode: %s\n", st.SortMode)
			fmt.Fprintf(out, "manifest:  %d\n", st.ManifestID)
			fmt.Fprintf(out, "documents: %d\n", st.Docs)
			fmt.Fprintf(out, "segments:  %d\n", st.Segments)
			fmt.Fprintf(out, "terms:     %d\n", st.Terms)
			fmt.Fprintf(out, "values:    %d\n", st.Values)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/versionfield"
)

func isNotFound(err error) bool {
	return errors.Is(err, versionfield.ErrNotFound)
}

func (a *app) openIndex(cmd *cobra.Command) (*versionfield.Index, error) {
	store, err := openStore(cmd.Context(), a.cfg.Store)
	if err != nil {
		return nil, err
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return versionfield.Load(cmd.Context(), store, opts...)
}

type queryFlags struct {
	count bool
	limit int
	sort  string
}

func newQueryCmd(a *app) *cobra.Command {
	qf := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against a saved index",
		Long:  "Load the index at --store, run one query and print the matching documents with their values.",
	}
	cmd.PersistentFlags().BoolVar(&qf.count, "count", false, "print only the number of matches")
	cmd.PersistentFlags().IntVar(&qf.limit, "limit", 0, "print at most this many documents (0 = all)")
	cmd.PersistentFlags().StringVar(&qf.sort, "sort", "", "order documents by version: asc (smallest value) or desc (largest value)")

	build := func(use, short string, args cobra.PositionalArgs, fn func(*versionfield.Field, []string) (versionfield.Query, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runQuery(cmd, qf, func(f *versionfield.Field) (versionfield.Query, error) {
					return fn(f, args)
				})
			},
		}
	}

	cmd.AddCommand(
		build("term <version>", "Exact value", cobra.ExactArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			return f.TermQuery(args[0])
		}),
		build("terms <version...>", "Any of several exact values", cobra.MinimumNArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			return f.TermsQuery(args...)
		}),
		build("prefix <prefix>", "Values starting with a prefix", cobra.ExactArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			return f.PrefixQuery(args[0])
		}),
		build("wildcard <pattern>", "Wildcard pattern with * and ?", cobra.ExactArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			return f.WildcardQuery(args[0])
		}),
		build("regexp <pattern>", "RE2 expression anchored to the whole value", cobra.ExactArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			return f.RegexpQuery(args[0])
		}),
		build("exists", "Documents with any value", cobra.NoArgs, func(f *versionfield.Field, _ []string) (versionfield.Query, error) {
			return f.ExistsQuery(), nil
		}),
		build("prerelease <true|false>", "Documents by pre-release presence", cobra.ExactArgs(1), func(f *versionfield.Field, args []string) (versionfield.Query, error) {
			flag, err := strconv.ParseBool(args[0])
			if err != nil {
				return nil, err
			}
			return f.PreReleaseQuery(flag), nil
		}),
		newRangeCmd(a, qf),
		newFuzzyCmd(a, qf),
		newComponentCmd(a, qf),
	)
	return cmd
}

func newRangeCmd(a *app, qf *queryFlags) *cobra.Command {
	var (
		from, to       string
		exclusiveLower bool
		inclusiveUpper bool
	)
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Values between two bounds",
		Long:  "Match values in [from, to). Either bound may be omitted; --exclusive-lower and --inclusive-upper change the bound types.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runQuery(cmd, qf, func(f *versionfield.Field) (versionfield.Query, error) {
				return f.RangeQuery(from, to, !exclusiveLower, inclusiveUpper)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "lower bound")
	cmd.Flags().StringVar(&to, "to", "", "upper bound")
	cmd.Flags().BoolVar(&exclusiveLower, "exclusive-lower", false, "exclude the lower bound")
	cmd.Flags().BoolVar(&inclusiveUpper, "inclusive-upper", false, "include the upper bound")
	return cmd
}

func newFuzzyCmd(a *app, qf *queryFlags) *cobra.Command {
	opts := versionfield.DefaultFuzzyOptions()
	var edits string

	cmd := &cobra.Command{
		Use:   "fuzzy <version>",
		Short: "Values within an edit distance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if edits == "auto" {
				opts.MaxEdits = versionfield.AutoEdits
			} else {
				n, err := strconv.Atoi(edits)
				if err != nil {
					return fmt.Errorf("--fuzziness: want 0, 1, 2 or auto, got %q", edits)
				}
				opts.MaxEdits = n
			}
			return a.runQuery(cmd, qf, func(f *versionfield.Field) (versionfield.Query, error) {
				return f.FuzzyQuery(args[0], opts)
			})
		},
	}
	cmd.Flags().StringVar(&edits, "fuzziness", "auto", "maximum edits: 0, 1, 2 or auto")
	cmd.Flags().IntVar(&opts.PrefixLength, "prefix-length", opts.PrefixLength, "leading characters that must match exactly")
	cmd.Flags().IntVar(&opts.MaxExpansions, "max-expansions", opts.MaxExpansions, "maximum number of matching terms")
	cmd.Flags().BoolVar(&opts.Transpositions, "transpositions", opts.Transpositions, "count adjacent swaps as one edit")
	return cmd
}

func newComponentCmd(a *app, qf *queryFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "component <major|minor|patch> <lo> [hi]",
		Short: "Documents by major, minor or patch number",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var c versionfield.Component
			switch args[0] {
			case "major":
				c = versionfield.Major
			case "minor":
				c = versionfield.Minor
			case "patch":
				c = versionfield.Patch
			default:
				return fmt.Errorf("unknown component %q", args[0])
			}
			lo, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return err
			}
			hi := lo
			if len(args) == 3 {
				if hi, err = strconv.ParseInt(args[2], 10, 32); err != nil {
					return err
				}
			}
			return a.runQuery(cmd, qf, func(f *versionfield.Field) (versionfield.Query, error) {
				return f.ComponentQuery(c, int32(lo), int32(hi)), nil
			})
		},
	}
}

func (a *app) runQuery(cmd *cobra.Command, qf *queryFlags, build func(*versionfield.Field) (versionfield.Query, error)) error {
	ix, err := a.openIndex(cmd)
	if err != nil {
		return err
	}
	defer ix.Close()

	q, err := build(ix.Field())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if qf.sort != "" && !qf.count {
		return printSorted(cmd, ix, q, qf)
	}

	bm, err := ix.Search(cmd.Context(), q)
	if err != nil {
		return err
	}
	if qf.count {
		fmt.Fprintln(out, bm.Cardinality())
		return nil
	}

	printed := 0
	for doc := range bm.All() {
		if qf.limit > 0 && printed == qf.limit {
			break
		}
		vs, err := ix.Values(doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%s\n", doc, strings.Join(vs, ","))
		printed++
	}
	return nil
}


func printSorted(cmd *cobra.Command, ix *versionfield.Index, q versionfield.Query, qf *queryFlags) error {
	var opts versionfield.SortOptions
	switch qf.sort {
	case "asc":
	case "desc":
		opts.Desc = true
	default:
		return fmt.Errorf("--sort: want asc or desc, got %q", qf.sort)
	}
	opts.Limit = qf.limit

	hits, err := ix.SortedSearch(cmd.Context(), q, opts)
	if err != nil {
		return err
	}
	for _, h := range hits {
		vs, err := ix.Values(h.Doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", h.Doc, strings.Join(vs, ","))
	}
	return nil
}

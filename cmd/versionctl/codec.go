package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/versionfield/version"
)

func newEncodeCmd(a *app) *cobra.Command {
	var showPrefix bool

	cmd := &cobra.Command{
		Use:   "encode [version...]",
		Short: "Print the sortable encoding of versions as hex",
		Long:  "Encode each version (from arguments or stdin, one per line) and print its hex encoding.",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoder()
			if err != nil {
				return err
			}
			in, err := inputLines(cmd, args, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range in {
				v, err := enc.Encode(s)
				if err != nil {
					return err
				}
				if showPrefix {
					p := v.Prefix()
					fmt.Fprintf(out, "%s\t%s\t%s\n", s, hex.EncodeToString(v.Bytes()), hex.EncodeToString(p[:]))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", s, hex.EncodeToString(v.Bytes()))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPrefix, "prefix", false, "also print the 16-byte point prefix")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode hex encodings back to version text",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoder()
			if err != nil {
				return err
			}
			in, err := inputLines(cmd, args, false)
			if err != nil {
				return err
			}
			for _, h := range in {
				b, err := hex.DecodeString(h)
				if err != nil {
					return fmt.Errorf("decode %q: %w", h, err)
				}
				s, err := enc.Decode(b)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

func newCompareCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two versions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoder()
			if err != nil {
				return err
			}
			x, err := enc.Encode(args[0])
			if err != nil {
				return err
			}
			y, err := enc.Encode(args[1])
			if err != nil {
				return err
			}
			op := "=="
			switch x.Compare(y) {
			case -1:
				op = "<"
			case 1:
				op = ">"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], op, args[1])
			return nil
		},
	}
}

func newSortCmd(a *app) *cobra.Command {
	var (
		reverse bool
		unique  bool
	)

	cmd := &cobra.Command{
		Use:   "sort [file]",
		Short: "Sort versions by precedence",
		Long:  "Read versions from a file or stdin, one per line, and print them in ascending precedence.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := a.encoder()
			if err != nil {
				return err
			}
			in, err := inputLines(cmd, args, true)
			if err != nil {
				return err
			}

			vs := make([]version.EncodedVersion, 0, len(in))
			for _, s := range in {
				v, err := enc.Encode(s)
				if err != nil {
					return err
				}
				vs = append(vs, v)
			}
			slices.SortStableFunc(vs, func(x, y version.EncodedVersion) int {
				if reverse {
					return y.Compare(x)
				}
				return x.Compare(y)
			})
			if unique {
				vs = slices.CompactFunc(vs, func(x, y version.EncodedVersion) bool {
					return bytes.Equal(x.Bytes(), y.Bytes())
				})
			}
			for _, v := range vs {
				fmt.Fprintln(cmd.OutOrStdout(), v.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "sort descending")
	cmd.Flags().BoolVarP(&unique, "unique", "u", false, "drop duplicates")
	return cmd
}

func newValidateCmd(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "validate [version...]",
		Short: "Check versions against the grammar",
		Long:  "Validate each version and report the reason for every rejection. Exits non-zero if any version is invalid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputLines(cmd, args, false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			invalid := 0
			for _, s := range in {
				if err := version.Validate(s); err != nil {
					invalid++
					fmt.Fprintf(out, "invalid\t%s\t%v\n", s, err)
					continue
				}
				if !quiet {
					fmt.Fprintf(out, "ok\t%s\n", s)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d versions invalid", invalid, len(in))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print invalid versions")
	return cmd
}

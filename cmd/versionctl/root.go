package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/versionfield"
	"github.com/hupe1980/versionfield/version"
)

// app holds the global flags shared by all subcommands.
type app struct {
	configPath string
	sortMode   string
	storeURL   string
	logLevel   string

	cfg *versionfield.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "versionctl",
		Short:         "Version string codec and index tool",
		Long:          "versionctl encodes version strings into order-preserving bytes, sorts and validates them, and builds and queries saved version indexes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.sortMode, "sort-mode", "", "lexicographic (semver) or numeric_aware")
	root.PersistentFlags().StringVarP(&a.storeURL, "store", "s", "", "index location: a directory, mem://, s3://bucket/prefix or minio://host/bucket/prefix")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn, error or off")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newCompareCmd(a),
		newSortCmd(a),
		newValidateCmd(a),
		newIndexCmd(a),
		newQueryCmd(a),
		newStatsCmd(a),
	)
	return root
}

// loadConfig merges the config file with flags. Flags win.
func (a *app) loadConfig(cmd *cobra.Command) error {
	cfg := versionfield.DefaultConfig()
	if a.configPath != "" {
		loaded, err := versionfield.LoadConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("sort-mode") {
		cfg.SortMode = a.sortMode
	}
	if cmd.Flags().Changed("store") {
		cfg.Store = a.storeURL
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	} else if a.configPath == "" {
		cfg.LogLevel = "warn"
	}
	a.cfg = cfg
	return nil
}

func (a *app) mode() (version.SortMode, error) {
	return version.ParseSortMode(a.cfg.SortMode)
}

func (a *app) encoder() (*version.Encoder, error) {
	mode, err := a.mode()
	if err != nil {
		return nil, err
	}
	return version.NewEncoder(mode), nil
}

func (a *app) options() ([]versionfield.Option, error) {
	return a.cfg.Options()
}

// inputLines returns args, or the non-empty lines of stdin (or of the
// single file argument when fromFile is set).
func inputLines(cmd *cobra.Command, args []string, fromFile bool) ([]string, error) {
	if len(args) > 0 && !fromFile {
		return args, nil
	}

	var r io.Reader = cmd.InOrStdin()
	if fromFile && len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

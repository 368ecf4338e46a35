// Command xgit-apply reads one or more unified diffs and applies them
// against the working tree, reimplementing the core matching and
// application logic of `git apply` as a standalone, embeddable library
// plus this CLI wrapper.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ximory/xgit-apply/internal/config"
	"github.com/ximory/xgit-apply/internal/patch"
	"github.com/ximory/xgit-apply/internal/postapply"
	"github.com/ximory/xgit-apply/internal/stat"
)

var (
	version = "0.1.0"

	flagCheck         bool
	flagStat          bool
	flagNumstat       bool
	flagSummary       bool
	flagIndex         bool
	flagCached        bool
	flagStrip         int
	flagStripSet      bool
	flagContext       int
	flagWhitespace    string
	flagReverse       bool
	flagReject        bool
	flagUnidiffZero   bool
	flagInaccurateEOF bool
	flagRecount       bool
	flagDirectory     string
	flagInclude       []string
	flagExclude       []string
	flagNoAdd         bool
	flagNulTerm       bool
	flagVerbose       bool
	flagLogFile       string
	flagConfig        string
	flagFmt           bool
	flagIndexInfo     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "xgit-apply [patch-file...]",
		Short:   "Apply unified diffs to the working tree",
		Long:    "xgit-apply parses unified-diff byte streams (with optional git extended headers and binary hunks) and fuzzily applies them, reproducing the core of `git apply` as a standalone engine.",
		Version: version,
		RunE:    run,
	}

	f := rootCmd.Flags()
	f.BoolVar(&flagCheck, "check", false, "Verify the patches apply cleanly without writing anything")
	f.BoolVar(&flagStat, "stat", false, "Show a diffstat instead of applying")
	f.BoolVar(&flagNumstat, "numstat", false, "Show added/removed line counts instead of applying")
	f.BoolVar(&flagSummary, "summary", false, "Show a summary of creations/deletions/renames instead of applying")
	f.BoolVar(&flagIndex, "index", false, "Update the index as well as the working tree")
	f.BoolVar(&flagCached, "cached", false, "Apply against the index only, not the working tree")
	f.IntVarP(&flagStrip, "strip", "p", 1, "Strip NUM leading path components from filenames")
	f.IntVarP(&flagContext, "context-floor", "C", 0, "Minimum context lines the matcher may not shrink below")
	f.StringVar(&flagWhitespace, "whitespace", "warn", "Whitespace handling: nowarn, warn, error, error-all, fix")
	f.BoolVarP(&flagReverse, "reverse", "R", false, "Apply the patch in reverse")
	f.BoolVar(&flagReject, "reject", false, "Apply hunks that can, write the rest to .rej files")
	f.BoolVar(&flagUnidiffZero, "unidiff-zero", false, "Accept a unified diff with zero lines of context")
	f.BoolVar(&flagInaccurateEOF, "inaccurate-eof", false, "Accepted for compatibility; it does not change how hunks are parsed or matched")
	f.BoolVar(&flagRecount, "recount", false, "Ignore fragment line counts, determine hunk boundaries by content")
	f.StringVar(&flagDirectory, "directory", "", "Prepend this root to every target path")
	f.StringArrayVar(&flagInclude, "include", nil, "Only apply changes to paths matching this glob (repeatable)")
	f.StringArrayVar(&flagExclude, "exclude", nil, "Skip changes to paths matching this glob (repeatable)")
	f.BoolVar(&flagNoAdd, "no-add", false, "Ignore additions made by the patch")
	f.BoolVarP(&flagNulTerm, "nul", "z", false, "Terminate --numstat records with NUL instead of newline")
	f.BoolVarP(&flagVerbose, "verbose", "v", false, "Report progress verbosely")
	f.StringVar(&flagLogFile, "log-file", "", "Also write progress to this file, truncated at each run")
	f.StringVarP(&flagConfig, "config", "c", "", "Path to the .xgit-apply.yml sidecar (default: discovered by walking up from the working directory)")
	f.BoolVar(&flagFmt, "fmt", false, "Run gofmt over any .go files the patch touched")
	f.BoolVar(&flagIndexInfo, "index-info", false, "Print each patch's old/new mode and blob hash pair, as fed to git update-index --index-info, without touching the index")

	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		flagStripSet = cmd.Flags().Changed("strip")
		return nil
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, err := NewDualLogger(flagLogFile, !flagVerbose)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer log.Close()

	opts := patch.NewOptions()
	if flagStripSet {
		opts.SetPValue(flagStrip)
	}
	opts.Root = flagDirectory
	opts.ContextFloor = flagContext
	opts.Reverse = flagReverse
	opts.Reject = flagReject
	opts.UnidiffZero = flagUnidiffZero
	opts.InaccurateEOF = flagInaccurateEOF
	opts.Recount = flagRecount
	opts.NoAdd = flagNoAdd
	opts.Check = flagCheck
	opts.Cached = flagCached
	opts.IndexRequired = flagIndex || flagCached
	opts.NulTerminated = flagNulTerm
	opts.Verbose = flagVerbose
	opts.Include = flagInclude
	opts.Exclude = flagExclude

	policy, ok := patch.ParseWSPolicy(flagWhitespace)
	if !ok {
		return fmt.Errorf("unknown --whitespace value %q", flagWhitespace)
	}
	opts.WSPolicy = policy

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = config.FindSidecar(wd)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Apply(opts); err != nil {
		return err
	}
	if flagStripSet {
		opts.SetPValue(flagStrip)
	}

	tree := fsTree{dir: wd}
	objects := looseObjectStore{objectsDir: filepath.Join(wd, ".git", "objects")}
	index := newMemIndex()
	sess := patch.NewSession(opts, objects, tree, index, cfg, log)

	data, err := readPatchInput(args)
	if err != nil {
		return err
	}

	ids, err := sess.ParseStream(data)
	if err != nil {
		return err
	}

	if flagStat || flagNumstat || flagSummary {
		return reportOnly(sess, ids)
	}

	if flagIndexInfo {
		for _, line := range indexInfoLines(sess, ids) {
			fmt.Println(line)
		}
		return nil
	}

	if flagCheck {
		return checkOnly(sess, ids)
	}

	if err := sess.ApplyAll(ids); err != nil {
		return err
	}

	var touched []string
	rejected := false
	for _, id := range ids {
		p := sess.Patch(id)
		if p.Result == nil && p.IsDelete != patch.Yes {
			continue
		}
		if err := writeResult(tree, index, opts, p); err != nil {
			return err
		}
		touched = append(touched, checkPathOf(p))
		if sess.HasRejects(p) {
			rejected = true
			rejPath := rejectPathFor(p)
			if err := tree.WriteFile(rejPath, sess.BuildRejectFile(p, id), 0o644); err != nil {
				return err
			}
			log.Log("%s: rejects written to %s", rejPath, rejPath)
		}
	}

	if flagFmt {
		if _, err := postapply.RunAll(wd, touched, log.Log); err != nil {
			return fmt.Errorf("post-apply check: %w", err)
		}
	}

	for _, w := range sess.Warnings {
		log.Log("%s", w.String())
	}

	if rejected {
		return fmt.Errorf("some hunks were rejected and written to .rej files")
	}
	return nil
}

func readPatchInput(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return io.ReadAll(os.Stdin)
	}
	var all []byte
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, data...)
	}
	return all, nil
}

func reportOnly(sess *patch.Session, ids []patch.PatchID) error {
	var stats []patch.FileStat
	for _, id := range ids {
		stats = append(stats, sess.Numstat(sess.Patch(id)))
	}
	switch {
	case flagNumstat:
		for _, fs := range stats {
			if flagNulTerm {
				fmt.Print(stat.Numstat(fs) + "\x00")
			} else {
				fmt.Println(stat.Numstat(fs))
			}
		}
	case flagSummary:
		for _, id := range ids {
			for _, line := range patch.SummaryLines(sess.Patch(id)) {
				fmt.Println(line)
			}
		}
	default:
		fmt.Print(stat.RenderStat(stats))
	}
	return nil
}

// indexInfoLines renders each patch as the "<old-mode> <new-mode> <old-hash>
// <new-hash>\t<path>" line git update-index --index-info expects on stdin,
// without touching the index itself -- a --check-style dry run that reports
// what an --index apply would record (recovered from original_source's
// "index updates the cache" handling; spec.md's distillation dropped it).
func indexInfoLines(sess *patch.Session, ids []patch.PatchID) []string {
	const zeroHash = "0000000000000000000000000000000000000000"
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		p := sess.Patch(id)
		oldHash, newHash := p.OldSHA1Prefix, p.NewSHA1Prefix
		if oldHash == "" {
			oldHash = zeroHash
		}
		if newHash == "" {
			newHash = zeroHash
		}
		lines = append(lines, fmt.Sprintf("%06o %06o %s %s\t%s", p.OldMode, p.NewMode, oldHash, newHash, checkPathOf(p)))
	}
	return lines
}

// checkOnly runs the full parse-and-match pipeline in memory (--check):
// ApplyAll populates each Patch.Result without writeResult ever touching
// the working tree or index.
func checkOnly(sess *patch.Session, ids []patch.PatchID) error {
	return sess.ApplyAll(ids)
}

func checkPathOf(p *patch.Patch) string {
	if p.NewName != "" {
		return p.NewName
	}
	return p.OldName
}

func writeResult(tree fsTree, index *memIndex, opts *patch.Options, p *patch.Patch) error {
	path := checkPathOf(p)
	if p.IsDelete == patch.Yes {
		if opts.IndexRequired {
			index.Remove(p.OldName)
		}
		if opts.Cached {
			return nil
		}
		return tree.Remove(p.OldName)
	}
	mode := p.NewMode
	if mode == 0 {
		mode = 0o100644
	}
	if !opts.Cached {
		if p.IsRename && p.OldName != path {
			if err := tree.Rename(p.OldName, path); err != nil {
				return err
			}
		}
		if err := tree.WriteFile(path, p.Result, mode); err != nil {
			return err
		}
	}
	if opts.IndexRequired {
		index.Set(patch.IndexEntry{Path: path, Mode: mode, Hash: patch.HashBlob(p.Result)})
	}
	return nil
}

func rejectPathFor(p *patch.Patch) string {
	return patch.RejectPath(checkPathOf(p))
}

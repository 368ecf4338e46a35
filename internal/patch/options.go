package patch

import (
	"path"
	"strings"
)

// Options bundles the CLI-surface flags from spec.md §6 plus the
// session-wide state the original tool kept as module-level globals
// (current p-value, root prefix, context floor, ...). Per the "global
// mutable state" design note in spec.md §9, all of it lives here and is
// threaded explicitly rather than touched via package-level variables.
type Options struct {
	PValue      int
	pValueKnown bool
	Root        string

	ContextFloor int // -C; minimum context the matcher may not shrink below

	WSPolicy  WSPolicy
	wsGlobs   []wsGlobRule
	defaultWS WSRule

	Reverse        bool
	Reject         bool
	UnidiffZero    bool
	InaccurateEOF  bool
	Recount        bool
	NoAdd          bool
	Check          bool
	Cached         bool
	IndexRequired  bool
	Include        []string
	Exclude        []string
	NulTerminated  bool
	Verbose        bool
}

type wsGlobRule struct {
	glob string
	rule WSRule
}

// NewOptions returns Options with the same defaults the original tool
// applies when no flags are given: p=1, warn-on-whitespace-error, no
// context floor (shrink freely), git-unidiff semantics (not --unidiff-zero).
func NewOptions() *Options {
	return &Options{
		PValue:       1,
		WSPolicy:     WSWarn,
		defaultWS:    WSDefaultRule,
		ContextFloor: 0,
	}
}

// SetPValue fixes the -p value explicitly; once set, guessPValue is never
// consulted again for this session (spec.md §4.H).
func (o *Options) SetPValue(n int) {
	o.PValue = n
	o.pValueKnown = true
}

// AddWSGlob registers a glob -> WSRule override, read from the repository
// config (internal/config), consulted by WSRuleForPath before falling back
// to the session default.
func (o *Options) AddWSGlob(glob string, rule WSRule) {
	o.wsGlobs = append(o.wsGlobs, wsGlobRule{glob, rule})
}

// WSRuleForPath resolves the whitespace-rule bitmask for path, checking
// configured globs in registration order before falling back to the
// session default (spec.md §4.W).
func (o *Options) WSRuleForPath(p string) WSRule {
	for _, g := range o.wsGlobs {
		if ok, _ := path.Match(g.glob, p); ok {
			return g.rule
		}
	}
	return o.defaultWS
}

// normalizeName applies p-value stripping, root prefixing, and slash-run
// collapsing to a parsed filename (spec.md §4.H).
func (o *Options) normalizeName(name string) string {
	name = stripPComponents(name, o.PValue)
	if o.Root != "" {
		name = strings.TrimRight(o.Root, "/") + "/" + name
	}
	return collapseSlashes(name)
}

// stripPComponents removes up to n leading "dir/" components from name, the
// same as --strip-components in tar or -p in patch(1).
func stripPComponents(name string, n int) string {
	for i := 0; i < n; i++ {
		idx := strings.IndexByte(name, '/')
		if idx < 0 {
			break
		}
		name = name[idx+1:]
	}
	return name
}

func collapseSlashes(p string) string {
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return p
}

// guessPValue picks the smallest p in [0,1,2,...] that makes the old and
// new traditional-dialect names agree after stripping p components from
// each. It returns 0 when neither name contains a slash, and 1 when no p up
// to the smaller of the two names' slash counts makes them agree.
// It is only ever invoked for the traditional dialect; git-dialect ---/+++
// lines reuse whatever p-value is already latched (spec.md §9 open
// question, preserved as-is).
func guessPValue(oldName, newName string) int {
	if !strings.Contains(oldName, "/") && !strings.Contains(newName, "/") {
		return 0
	}
	maxP := strings.Count(oldName, "/")
	if c := strings.Count(newName, "/"); c < maxP {
		maxP = c
	}
	for p := 0; p <= maxP; p++ {
		if stripPComponents(oldName, p) == stripPComponents(newName, p) {
			return p
		}
	}
	return 1
}

// MatchesFilter reports whether path p passes the --include/--exclude glob
// filters (spec.md §6): excluded if any Exclude glob matches; otherwise
// included if Include is empty or any Include glob matches.
func (o *Options) MatchesFilter(p string) bool {
	for _, g := range o.Exclude {
		if ok, _ := path.Match(g, p); ok {
			return false
		}
	}
	if len(o.Include) == 0 {
		return true
	}
	for _, g := range o.Include {
		if ok, _ := path.Match(g, p); ok {
			return true
		}
	}
	return false
}

// Package postapply runs optional validation/normalization steps against
// files a patch has just written, before the session is considered done.
// Each step is registered against a path-matching predicate, the same
// registry-of-runners shape the original tool used to route preflight
// fixups by file extension.
package postapply

import "path/filepath"

// Logf receives one formatted progress line per step invocation.
type Logf func(format string, args ...any)

// Checker inspects (and may rewrite) one file written by a patch.
type Checker interface {
	Name() string
	Match(path string) bool
	Run(root, relPath string, logf Logf) (changed bool, err error)
}

var checkers []Checker

// Register adds c to the set consulted by RunAll, in registration order.
func Register(c Checker) { checkers = append(checkers, c) }

// RunAll runs, for each of paths, the first registered Checker whose Match
// accepts it (later matching Checkers are not run), stopping at the first
// error. It reports whether any checker rewrote a
// file.
func RunAll(root string, paths []string, logf Logf) (anyChanged bool, err error) {
	for _, rel := range paths {
		if rel == "" {
			continue
		}
		for _, c := range checkers {
			if !c.Match(rel) {
				continue
			}
			changed, err := c.Run(root, rel, logf)
			if err != nil {
				return anyChanged, err
			}
			if changed {
				anyChanged = true
			}
			break
		}
	}
	return anyChanged, nil
}

// Lookup returns the first registered Checker that matches path, or nil.
func Lookup(path string) Checker {
	for _, c := range checkers {
		if c.Match(path) {
			return c
		}
	}
	return nil
}

func extOf(path string) string { return filepath.Ext(path) }

package patch

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// headerHandler mutates patch in response to one recognized extended-header
// line's remainder (the text after the matched prefix, trimmed of one
// leading space). It returns an error only for a malformed value; "this
// line isn't one of mine" is expressed by the dispatch table simply not
// matching the prefix, not by a handler return value.
type headerHandler func(p *Patch, rest string) error

// headerTable is the static dispatch table of (prefix, handler) pairs from
// spec.md §9: each extended-header keyword recognized in git dialect is
// tried against the current line in order, and the first matching prefix's
// handler consumes the line. A line matching none of these (and not
// "--- "/"+++ "/"@@ -"/"Binary files ") ends the header block.
var headerTable = []struct {
	prefix  string
	handler headerHandler
}{
	{"old mode ", func(p *Patch, rest string) error { m, err := parseOctalMode(rest); p.OldMode = m; return err }},
	{"new mode ", func(p *Patch, rest string) error { m, err := parseOctalMode(rest); p.NewMode = m; return err }},
	{"deleted file mode ", func(p *Patch, rest string) error {
		m, err := parseOctalMode(rest)
		p.OldMode = m
		p.IsDelete = Yes
		return err
	}},
	{"new file mode ", func(p *Patch, rest string) error {
		m, err := parseOctalMode(rest)
		p.NewMode = m
		p.IsNew = Yes
		return err
	}},
	{"copy from ", func(p *Patch, rest string) error { p.OldName = unquoteHeaderName(rest); p.IsCopy = true; return nil }},
	{"copy to ", func(p *Patch, rest string) error { p.NewName = unquoteHeaderName(rest); p.IsCopy = true; return nil }},
	{"rename from ", func(p *Patch, rest string) error { p.OldName = unquoteHeaderName(rest); p.IsRename = true; return nil }},
	{"rename to ", func(p *Patch, rest string) error { p.NewName = unquoteHeaderName(rest); p.IsRename = true; return nil }},
	{"rename old ", func(p *Patch, rest string) error { p.OldName = unquoteHeaderName(rest); p.IsRename = true; return nil }},
	{"rename new ", func(p *Patch, rest string) error { p.NewName = unquoteHeaderName(rest); p.IsRename = true; return nil }},
	{"similarity index ", func(p *Patch, rest string) error { n, err := strconv.Atoi(strings.TrimSuffix(rest, "%")); p.Score = n; return err }},
	{"dissimilarity index ", func(p *Patch, rest string) error { n, err := strconv.Atoi(strings.TrimSuffix(rest, "%")); p.Score = n; return err }},
	{"index ", parseIndexLine},
}

// parseOctalMode parses a file mode written as octal digits, as git's
// extended headers always do ("100644", "040000", ...).
func parseOctalMode(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, &StreamError{Kind: KindMalformedHeader, Msg: fmt.Sprintf("bad mode %q", s)}
	}
	return uint32(v), nil
}

// parseIndexLine handles "index <old>..<new>[ <mode>]".
func parseIndexLine(p *Patch, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return &StreamError{Kind: KindMalformedHeader, Msg: "empty index line"}
	}
	hashes := strings.SplitN(fields[0], "..", 2)
	if len(hashes) != 2 {
		return &StreamError{Kind: KindMalformedHeader, Msg: fmt.Sprintf("malformed index line %q", rest)}
	}
	if !isHex(hashes[0]) || !isHex(hashes[1]) {
		return &StreamError{Kind: KindMalformedHeader, Msg: fmt.Sprintf("invalid hex in index line %q", rest)}
	}
	p.OldSHA1Prefix = hashes[0]
	p.NewSHA1Prefix = hashes[1]
	if len(fields) > 1 {
		m, err := parseOctalMode(fields[1])
		if err != nil {
			return err
		}
		p.OldMode = m
		p.NewMode = m
	}
	return nil
}

func isHex(s string) bool {
	if s == "" || len(s) > 40 {
		return false
	}
	_, err := hex.DecodeString(padEven(s))
	return err == nil
}

func padEven(s string) string {
	if len(s)%2 == 1 {
		return s + "0"
	}
	return s
}

// parseHeader reads one patch header starting at the scanner's current
// position, in either git or traditional dialect, and returns the
// resulting Patch with its name fields resolved. It leaves the scanner
// positioned at the first fragment header ("@@ -") line.
func parseHeader(s *lineScanner, opts *Options) (*Patch, error) {
	line := s.peekTrimmed()

	switch {
	case strings.HasPrefix(line, "diff --git "):
		return parseGitHeader(s, opts)
	case strings.HasPrefix(line, "--- "):
		return parseTraditionalHeader(s, opts)
	default:
		return nil, &StreamError{Line: s.line, Kind: KindMalformedHeader, Msg: "expected a patch header"}
	}
}

func parseGitHeader(s *lineScanner, opts *Options) (*Patch, error) {
	startLine := s.line
	line := s.peekTrimmed()
	rest := strings.TrimPrefix(line, "diff --git ")
	a, _, ok := splitGitDiffNames(rest)
	p := &Patch{IsNew: Unknown, IsDelete: Unknown}
	if ok {
		// a still carries its synthetic "a/" lead component; run it through
		// the same p-stripping/root-prefix pipeline as OldName/NewName
		// (git_header_name does this too) so a mode-only "diff --git" header
		// with no later ---/+++ line resolves to the real working-tree path
		// instead of one still wearing its "a/" prefix.
		p.DefName = opts.normalizeName(a)
	}
	s.advance()

	for !s.eof() {
		line = s.peekTrimmed()
		if strings.HasPrefix(line, "@@ -") || line == "" && looksLikeBinaryMarker(s) {
			break
		}
		if strings.HasPrefix(line, "GIT binary patch") {
			break
		}
		if strings.HasPrefix(line, "--- ") {
			name, err := parseFileNameLine(line, "--- ", opts)
			if err != nil {
				return nil, err
			}
			if name != "/dev/null" {
				p.OldName = name
			} else {
				p.IsNew = Yes
			}
			s.advance()
			continue
		}
		if strings.HasPrefix(line, "+++ ") {
			name, err := parseFileNameLine(line, "+++ ", opts)
			if err != nil {
				return nil, err
			}
			if name != "/dev/null" {
				p.NewName = name
			} else {
				p.IsDelete = Yes
			}
			s.advance()
			continue
		}
		if strings.HasPrefix(line, "Binary files ") {
			// A bare "Binary files a/x and b/x differ" marker carries no hunk
			// body at all: nothing to apply or reject, the postimage is just
			// the preimage verbatim (applyPatch's zero-fragment branch).
			p.IsBinary = true
			p.BinaryLiteralChange = true
			s.advance()
			continue
		}
		if strings.HasPrefix(line, "GIT binary patch") {
			p.IsBinary = true
			s.advance()
			continue
		}

		matched := false
		for _, h := range headerTable {
			if strings.HasPrefix(line, h.prefix) {
				if err := h.handler(p, strings.TrimPrefix(line, h.prefix)); err != nil {
					return nil, err
				}
				s.advance()
				matched = true
				break
			}
		}
		if !matched {
			break // end of header block: unrecognized line
		}
	}

	if p.OldName == "" && p.NewName == "" && p.DefName == "" {
		return nil, &StreamError{Line: startLine, Kind: KindMalformedHeader, Msg: "diff --git header missing usable names"}
	}
	if p.IsRename || p.IsCopy {
		if p.OldName == "" || p.NewName == "" {
			return nil, &StreamError{Line: startLine, Kind: KindMalformedHeader, Msg: "rename/copy header missing old or new name"}
		}
	}
	if p.IsNew == Yes && p.IsDelete == Yes {
		return nil, &StreamError{Line: startLine, Kind: KindMalformedHeader, Msg: "patch marked both new and deleted"}
	}
	resolveModes(p)
	p.WSRule = opts.WSRuleForPath(resolvedPatchPath(p))
	return p, nil
}

func looksLikeBinaryMarker(s *lineScanner) bool { return false }

// parseTraditionalHeader handles a bare "--- a\n+++ b\n@@ -" header with no
// "diff --git" line, per spec.md §4.H.
func parseTraditionalHeader(s *lineScanner, opts *Options) (*Patch, error) {
	startLine := s.line
	oldLine := s.peekTrimmed()
	s.advance()
	if s.eof() || !strings.HasPrefix(s.peekTrimmed(), "+++ ") {
		return nil, &StreamError{Line: startLine, Kind: KindMalformedHeader, Msg: "--- not followed by +++"}
	}
	newLine := s.peekTrimmed()
	s.advance()

	if !opts.pValueKnown {
		opts.PValue = guessPValue(rawNameField(oldLine, "--- "), rawNameField(newLine, "+++ "))
	}

	p := &Patch{IsNew: Unknown, IsDelete: Unknown}
	oldName, err := parseFileNameLine(oldLine, "--- ", opts)
	if err != nil {
		return nil, err
	}
	newName, err := parseFileNameLine(newLine, "+++ ", opts)
	if err != nil {
		return nil, err
	}
	if oldName == "/dev/null" {
		p.IsNew = Yes
	} else {
		p.OldName = oldName
	}
	if newName == "/dev/null" {
		p.IsDelete = Yes
	} else {
		p.NewName = newName
	}
	if p.OldName == "" && p.NewName == "" {
		return nil, &StreamError{Line: startLine, Kind: KindMalformedHeader, Msg: "both filenames are /dev/null"}
	}
	resolveModes(p)
	p.WSRule = opts.WSRuleForPath(resolvedPatchPath(p))
	return p, nil
}

func resolveModes(p *Patch) {
	if p.NewMode == 0 && p.IsDelete != Yes {
		if p.OldMode != 0 {
			p.NewMode = p.OldMode
		} else if p.IsNew == Yes {
			p.NewMode = 0o100644
		}
	}
}

func resolvedPatchPath(p *Patch) string {
	if p.NewName != "" {
		return p.NewName
	}
	if p.OldName != "" {
		return p.OldName
	}
	return p.DefName
}

// rawNameField extracts the raw (unquoted, unstripped) field after a
// "--- "/"+++ " prefix, dropping a trailing tab-separated timestamp that
// traditional diffs sometimes carry.
func rawNameField(line, prefix string) string {
	rest := strings.TrimPrefix(line, prefix)
	if i := strings.IndexByte(rest, '\t'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

// parseFileNameLine extracts and normalizes the filename from a "--- "/
// "+++ " line: C-style unquoting, p-value stripping, root prefixing, and
// slash-run collapsing (spec.md §4.H).
func parseFileNameLine(line, prefix string, opts *Options) (string, error) {
	raw := rawNameField(line, prefix)
	if raw == "/dev/null" {
		return "/dev/null", nil
	}
	name, err := unquoteCName(raw)
	if err != nil {
		return "", &StreamError{Kind: KindMalformedHeader, Msg: err.Error()}
	}
	return opts.normalizeName(name), nil
}

// splitGitDiffNames splits a "diff --git <A> <B>" remainder into the two
// name fields. Each may be C-quoted; there is no unambiguous delimiter
// between A and B in general, so when neither is quoted we split on the
// midpoint convention used by git: if the remainder has an even number of
// space-separated "a/..."/"b/..." halves that match after stripping the
// leading component, that split wins; otherwise ok is false and the caller
// must rely on a later --- / +++ / rename header to supply names.
func splitGitDiffNames(rest string) (a, b string, ok bool) {
	if len(rest) > 0 && rest[0] == '"' {
		// one or both sides quoted: find end of first quoted string.
		end := findQuoteEnd(rest)
		if end < 0 {
			return "", "", false
		}
		left, err := unquoteCName(rest[:end+1])
		if err != nil {
			return "", "", false
		}
		right := strings.TrimSpace(rest[end+1:])
		rightName, err := unquoteCName(right)
		if err != nil {
			return "", "", false
		}
		return sameGitDiffName(left, rightName)
	}

	fields := splitHalfway(rest)
	if fields == nil {
		return "", "", false
	}
	return sameGitDiffName(fields[0], fields[1])
}

func findQuoteEnd(s string) int {
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '"' {
			return i
		}
	}
	return -1
}

// splitHalfway splits an unquoted "a/foo/bar b/foo/bar" remainder into its
// two name fields by trying each space as the split point and keeping the
// one where both halves, after stripping one leading path component, are
// equal -- the same heuristic git applies when p_value is not yet known.
func splitHalfway(rest string) []string {
	for i, c := range rest {
		if c != ' ' {
			continue
		}
		left, right := rest[:i], rest[i+1:]
		if stripOneComponent(left) == stripOneComponent(right) {
			return []string{left, right}
		}
	}
	return nil
}

func stripOneComponent(p string) string {
	if i := strings.IndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func sameGitDiffName(a, b string) (string, string, bool) {
	if stripOneComponent(a) == stripOneComponent(b) {
		return a, b, true
	}
	return "", "", false
}

// unquoteHeaderName unquotes a "copy from"/"rename to"/etc value, which is
// sometimes but not always C-quoted.
func unquoteHeaderName(s string) string {
	s = strings.TrimSpace(s)
	if name, err := unquoteCName(s); err == nil {
		return name
	}
	return s
}

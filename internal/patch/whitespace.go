package patch

import "strings"

// WSRule is a per-path whitespace-error bitmask (spec.md §4.W). Each bit
// independently enables detection of one violation class on added lines;
// WSPolicy separately governs what happens once a violation is detected.
type WSRule uint8

const (
	WSTrailingSpace WSRule = 1 << iota
	WSSpaceBeforeTab
	WSIndentWithNonTab
	WSTabInIndent
	WSCRAtEOL
	WSBlankAtEOF

	WSDefaultRule = WSTrailingSpace | WSSpaceBeforeTab | WSBlankAtEOF
)

// WSPolicy is the session-wide --whitespace policy.
type WSPolicy int

const (
	WSNoWarn WSPolicy = iota
	WSWarn
	WSError
	WSFix
)

// ParseWSPolicy maps the --whitespace=<value> flag to a WSPolicy, matching
// the option names in spec.md §6 (warn, nowarn, error, error-all, fix; also
// accepts "strip" as a legacy alias for "fix").
func ParseWSPolicy(s string) (WSPolicy, bool) {
	switch s {
	case "", "warn":
		return WSWarn, true
	case "nowarn":
		return WSNoWarn, true
	case "error", "error-all":
		return WSError, true
	case "fix", "strip":
		return WSFix, true
	}
	return WSWarn, false
}

// wsFixCopy returns a copy of the line src with bytes stripped/rewritten
// according to rule, and whether anything changed. It is non-expansive:
// len(output) <= len(src) always, which is what makes
// in-place postimage context rewriting in match.go safe (spec.md §4.W).
//
// Fixes applied, each only when its bit is set in rule:
//   - WSCRAtEOL: drop a lone \r immediately before the line's \n.
//   - WSTrailingSpace / WSBlankAtEOF: strip trailing run of space/tab
//     before the \n (a fully-blank line becomes just "\n").
//   - WSSpaceBeforeTab / WSIndentWithNonTab / WSTabInIndent: normalize
//     leading indentation to tabs, collapsing runs of 8 spaces to a tab and
//     dropping a stray space that appears before a tab in the indent.
func wsFixCopy(src []byte, rule WSRule) ([]byte, bool) {
	if len(src) == 0 {
		return src, false
	}
	changed := false

	line := src
	hasNL := len(line) > 0 && line[len(line)-1] == '\n'
	if hasNL {
		line = line[:len(line)-1]
	}
	if rule&WSCRAtEOL != 0 && len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
		changed = true
	}

	// split into indent / rest
	indentEnd := 0
	for indentEnd < len(line) && (line[indentEnd] == ' ' || line[indentEnd] == '\t') {
		indentEnd++
	}
	indent := line[:indentEnd]
	rest := line[indentEnd:]

	if rule&(WSSpaceBeforeTab|WSIndentWithNonTab|WSTabInIndent) != 0 && len(indent) > 0 {
		fixed, didFix := fixIndent(indent)
		if didFix {
			indent = fixed
			changed = true
		}
	}

	out := append(append([]byte{}, indent...), rest...)

	if rule&(WSTrailingSpace|WSBlankAtEOF) != 0 {
		trimmed := trimTrailingSpace(out)
		if len(trimmed) != len(out) {
			out = trimmed
			changed = true
		}
	}

	if hasNL {
		out = append(out, '\n')
	}
	return out, changed
}

func trimTrailingSpace(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}
	return b[:end]
}

// fixIndent rewrites a run of leading space/tab bytes into canonical tab
// indentation: every 8 columns of leading space collapses to one tab, and a
// stray space directly before a tab is dropped.
func fixIndent(indent []byte) ([]byte, bool) {
	col := 0
	for _, c := range indent {
		if c == '\t' {
			col += 8 - col%8
		} else {
			col++
		}
	}
	tabs := col / 8
	spaces := col % 8
	out := make([]byte, 0, tabs+spaces)
	for i := 0; i < tabs; i++ {
		out = append(out, '\t')
	}
	for i := 0; i < spaces; i++ {
		out = append(out, ' ')
	}
	if string(out) == string(indent) {
		return indent, false
	}
	return out, true
}

// detectWS reports which violation classes (within rule) are present on an
// added line's raw bytes (including its trailing LF if any). isLastLine
// additionally enables the blank-at-EOF check.
func detectWS(line []byte, rule WSRule, isLastLine bool) WSRule {
	var found WSRule
	body := line
	hasNL := len(body) > 0 && body[len(body)-1] == '\n'
	if hasNL {
		body = body[:len(body)-1]
	}
	if rule&WSCRAtEOL != 0 && len(body) > 0 && body[len(body)-1] == '\r' {
		found |= WSCRAtEOL
	}
	trimmed := trimTrailingSpace(body)
	if rule&WSTrailingSpace != 0 && len(trimmed) != len(body) {
		found |= WSTrailingSpace
	}
	if rule&WSBlankAtEOF != 0 && isLastLine && len(trimmed) == 0 {
		found |= WSBlankAtEOF
	}
	indentEnd := 0
	for indentEnd < len(body) && (body[indentEnd] == ' ' || body[indentEnd] == '\t') {
		indentEnd++
	}
	indent := body[:indentEnd]
	if rule&WSSpaceBeforeTab != 0 {
		for i := 1; i < len(indent); i++ {
			if indent[i] == '\t' && indent[i-1] == ' ' {
				found |= WSSpaceBeforeTab
				break
			}
		}
	}
	if rule&WSTabInIndent != 0 {
		// a tab anywhere in the indent
		for i := 0; i < len(indent); i++ {
			if indent[i] == '\t' {
				found |= WSTabInIndent
				break
			}
		}
	}
	if rule&WSIndentWithNonTab != 0 && len(indent) >= 8 {
		allSpace := true
		for _, c := range indent {
			if c != ' ' {
				allSpace = false
				break
			}
		}
		if allSpace {
			found |= WSIndentWithNonTab
		}
	}
	return found
}

// detectFragmentWS scans a fragment's raw body for violations on the lines
// it adds (honoring --reverse's +/- swap and --no-add), independent of the
// matcher's in-place fixing pass, for --whitespace=warn/error (spec.md
// §4.W/§4.P). isLastLine (for the blank-at-EOF class) is true for the last
// added line in the fragment body.
func detectFragmentWS(body []byte, reverse, noAdd bool, rule WSRule, path string) (violations []Warning, any bool) {
	if noAdd {
		return nil, false
	}
	addCh := byte('+')
	if reverse {
		addCh = '-'
	}

	lines := walkLines(body)
	lastAdded := -1
	off := 0
	for i, l := range lines {
		raw := body[off : off+l.Len]
		off += l.Len
		if len(raw) > 0 && raw[0] == addCh {
			lastAdded = i
		}
	}

	off = 0
	for i, l := range lines {
		raw := body[off : off+l.Len]
		off += l.Len
		if len(raw) == 0 || raw[0] != addCh {
			continue
		}
		found := detectWS(raw[1:], rule, i == lastAdded)
		if found == 0 {
			continue
		}
		any = true
		violations = append(violations, Warning{Path: path, Message: wsViolationMessage(found)})
	}
	return violations, any
}

// wsViolationMessage renders the set of violation classes found on one line
// as the human-readable phrase the --whitespace=warn/error report shows.
func wsViolationMessage(found WSRule) string {
	var parts []string
	if found&WSTrailingSpace != 0 {
		parts = append(parts, "trailing whitespace")
	}
	if found&WSSpaceBeforeTab != 0 {
		parts = append(parts, "space before tab in indent")
	}
	if found&WSIndentWithNonTab != 0 {
		parts = append(parts, "indent with spaces instead of tabs")
	}
	if found&WSTabInIndent != 0 {
		parts = append(parts, "tab in indent")
	}
	if found&WSCRAtEOL != 0 {
		parts = append(parts, "CR at end of line")
	}
	if found&WSBlankAtEOF != 0 {
		parts = append(parts, "blank line at end of file")
	}
	return "whitespace error (" + strings.Join(parts, ", ") + ")"
}

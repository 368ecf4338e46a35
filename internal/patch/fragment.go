package patch

import (
	"fmt"
	"strconv"
	"strings"
)

// parseFragmentHeader parses "@@ -a,b +c,d @@" (trailing section-heading
// text after the final "@@" is ignored), defaulting ",b"/",d" to 1 when
// absent (spec.md §4.F).
func parseFragmentHeader(line string) (oldPos, oldLines, newPos, newLines int, err error) {
	if !strings.HasPrefix(line, "@@ -") {
		return 0, 0, 0, 0, fmt.Errorf("not a fragment header: %q", line)
	}
	body := line[len("@@ -"):]
	end := strings.Index(body, " @@")
	if end < 0 {
		return 0, 0, 0, 0, fmt.Errorf("unterminated fragment header: %q", line)
	}
	body = body[:end]

	parts := strings.SplitN(body, " +", 2)
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("malformed fragment header: %q", line)
	}
	oldPos, oldLines, err = parseRange(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	newPos, newLines, err = parseRange(parts[1])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return oldPos, oldLines, newPos, newLines, nil
}

func parseRange(s string) (pos, n int, err error) {
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		pos, err = strconv.Atoi(s[:comma])
		if err != nil {
			return 0, 0, err
		}
		n, err = strconv.Atoi(s[comma+1:])
		return pos, n, err
	}
	pos, err = strconv.Atoi(s)
	return pos, 1, err
}

// parseFragment parses one "@@ ... @@" text hunk starting at the scanner's
// current line, appends its raw body bytes, and returns the populated
// Fragment with leading/trailing context counts.
func parseFragment(s *lineScanner, opts *Options) (*Fragment, error) {
	headerLine := s.peekTrimmed()
	oldPos, oldLines, newPos, newLines, err := parseFragmentHeader(headerLine)
	if err != nil {
		return nil, &StreamError{Line: s.line, Kind: KindMalformedHeader, Msg: err.Error()}
	}
	s.advance()

	f := &Fragment{OldPos: oldPos, OldLines: oldLines, NewPos: newPos, NewLines: newLines, Next: -1}

	var body []byte
	remainingOld, remainingNew := oldLines, newLines
	sawChange := false
	leading, trailing := 0, 0
	countedOld, countedNew := 0, 0

	for !s.eof() {
		line := s.peek()
		if len(line) == 0 {
			break
		}
		first := line[0]

		if !opts.Recount && remainingOld <= 0 && remainingNew <= 0 {
			break
		}
		if opts.Recount && first != ' ' && first != '+' && first != '-' && first != '\\' && first != '\n' {
			break
		}

		switch first {
		case ' ', '\n':
			if remainingOld > 0 {
				remainingOld--
			}
			if remainingNew > 0 {
				remainingNew--
			}
			countedOld++
			countedNew++
			if !sawChange {
				leading++
			}
			trailing++
		case '-':
			if remainingOld > 0 {
				remainingOld--
			}
			countedOld++
			sawChange = true
			trailing = 0
		case '+':
			if remainingNew > 0 {
				remainingNew--
			}
			countedNew++
			sawChange = true
			trailing = 0
		case '\\':
			if len(line) < 12 || line[1] != ' ' {
				return nil, &StreamError{Line: s.line, Kind: KindMalformedHeader, Msg: "malformed no-newline marker"}
			}
		default:
			goto doneBody
		}
		body = append(body, line...)
		s.advance()
	}
doneBody:

	// A trailing "\ No newline..." belongs to the fragment even though the
	// counters above are already exhausted (spec.md §4.F).
	if !s.eof() {
		next := s.peek()
		if len(next) >= 2 && next[0] == '\\' && next[1] == ' ' {
			body = append(body, next...)
			s.advance()
		}
	}

	if !opts.Recount && !opts.UnidiffZero && (remainingOld != 0 || remainingNew != 0) {
		return nil, &StreamError{Line: s.line, Kind: KindCountMismatch, Msg: "fragment line counts did not balance"}
	}
	if opts.Recount {
		f.OldLines = countedOld
		f.NewLines = countedNew
	}

	f.Patch = body
	f.Leading = leading
	f.Trailing = trailing
	return f, nil
}

// isBinaryPatchMarker reports whether line is the literal "GIT binary
// patch" marker that introduces one or two binary hunks (spec.md §4.F,
// §6).
func isBinaryPatchMarker(line string) bool {
	return strings.TrimRight(line, "\r") == "GIT binary patch"
}

// parseBinaryFragments parses the forward (and optional reverse) binary
// hunk following a "GIT binary patch" marker line, per the grammar in
// spec.md §6.
func parseBinaryFragments(s *lineScanner) (forward, reverse *Fragment, err error) {
	forward, err = parseOneBinaryHunk(s)
	if err != nil {
		return nil, nil, err
	}
	if forward == nil {
		return nil, nil, &StreamError{Line: s.line, Kind: KindMalformedHeader, Msg: "GIT binary patch with no hunk"}
	}
	if !s.eof() {
		save := *s
		if r, rerr := parseOneBinaryHunk(s); rerr == nil && r != nil {
			reverse = r
		} else {
			*s = save
		}
	}
	return forward, reverse, nil
}

// parseOneBinaryHunk parses a single "(literal|delta) <len>\n" block of
// base85 lines terminated by a blank line, inflates it, and returns a
// Fragment whose Patch holds the inflated delta/literal bytes.
func parseOneBinaryHunk(s *lineScanner) (*Fragment, error) {
	if s.eof() {
		return nil, nil
	}
	line := s.peekTrimmed()
	var method BinaryMethod
	var lenStr string
	switch {
	case strings.HasPrefix(line, "literal "):
		method = BinaryLiteral
		lenStr = strings.TrimPrefix(line, "literal ")
	case strings.HasPrefix(line, "delta "):
		method = BinaryDelta
		lenStr = strings.TrimPrefix(line, "delta ")
	default:
		return nil, nil
	}
	origLen, err := strconv.Atoi(strings.TrimSpace(lenStr))
	if err != nil {
		return nil, &StreamError{Line: s.line, Kind: KindMalformedHeader, Msg: "bad binary hunk length"}
	}
	s.advance()

	var encoded []byte
	for {
		if s.eof() {
			return nil, &StreamError{Line: s.line, Kind: KindBadBase85, Msg: "unterminated binary hunk"}
		}
		raw := s.peek()
		trimmed := s.peekTrimmed()
		if trimmed == "" {
			s.advance()
			break
		}
		n, ok := lenChar(raw[0])
		if !ok {
			return nil, &StreamError{Line: s.line, Kind: KindBadBase85, Msg: "bad base85 length byte"}
		}
		payload := []byte(trimmed[1:])
		decoded, derr := decodeBase85Line(len(trimmed), n, payload)
		if derr != nil {
			return nil, &StreamError{Line: s.line, Kind: KindBadBase85, Msg: derr.Error()}
		}
		encoded = append(encoded, decoded...)
		s.advance()
	}

	inflated, ierr := inflateExact(encoded, origLen)
	if ierr != nil {
		return nil, ierr
	}

	return &Fragment{Method: method, OrigLen: origLen, Patch: inflated, Next: -1}, nil
}

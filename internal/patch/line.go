package patch

// walkLines returns the (offset, length) of each LF-terminated line in buf,
// the last one running to EOF even when it lacks a trailing LF. This is the
// line walk spec.md §4.L describes: "each ending at (and including) the
// next LF or at EOF".
func walkLines(buf []byte) []Line {
	var lines []Line
	start := 0
	for start < len(buf) {
		nl := indexByte(buf[start:], '\n')
		var n int
		if nl < 0 {
			n = len(buf) - start
		} else {
			n = nl + 1
		}
		lines = append(lines, Line{Len: n, Hash: hashLine(buf[start : start+n])})
		start += n
	}
	return lines
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// hashLine folds each non-whitespace byte into a rolling hash h <- 3*h +
// (b & 0xff), skipping whitespace bytes entirely, and truncates to 24 bits.
// This must match git's hash_line exactly: any difference here silently
// breaks the matcher's fast-reject path in match.go.
func hashLine(b []byte) uint32 {
	var h uint32
	for _, c := range b {
		if isSpace(c) {
			continue
		}
		h = h*3 + uint32(c)
	}
	return h & 0x00FFFFFF
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

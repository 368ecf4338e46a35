package patch

import "bytes"

// matchFragment tests whether preimage matches img at byte offset try
// (logical line tryLno), honoring matchBeginning/matchEnd constraints. It
// is a direct port of git's match_fragment (spec.md §4.M): fast hash
// reject, then exact byte comparison, and -- only when the session's
// whitespace policy is "fix" -- a whitespace-tolerant comparison that, on
// success, rewrites pre/post's bytes in place to carry the normalized
// lines forward (spec.md §9's "silently rewrite context bytes" caveat).
func matchFragment(img, pre, post *Image, try, tryLno int, wsRule WSRule, wsPolicy WSPolicy, matchBeginning, matchEnd bool) bool {
	if len(pre.Lines)+tryLno > len(img.Lines) {
		return false
	}
	if matchBeginning && tryLno != 0 {
		return false
	}
	if matchEnd && len(pre.Lines)+tryLno != len(img.Lines) {
		return false
	}

	for i := range pre.Lines {
		if pre.Lines[i].Hash != img.Lines[tryLno+i].Hash {
			return false
		}
	}

	preLen := len(pre.Buf)
	fits := try+preLen <= len(img.Buf)
	if matchEnd {
		fits = try+preLen == len(img.Buf)
	}
	if fits && bytes.Equal(img.Buf[try:try+preLen], pre.Buf) {
		return true
	}

	if wsPolicy != WSFix {
		return false
	}
	return matchWithWSFix(img, pre, post, try, tryLno, wsRule)
}

// matchWithWSFix attempts the whitespace-tolerant comparison and, on
// success, updates pre/post in place (git's update_pre_post_images).
func matchWithWSFix(img, pre, post *Image, try, tryLno int, wsRule WSRule) bool {
	var fixedPre bytes.Buffer
	fixedLines := make([]Line, len(pre.Lines))

	preOff, tgtOff := 0, try
	for i, pl := range pre.Lines {
		oldLine := pre.Buf[preOff : preOff+pl.Len]
		tgtLine := img.Buf[tgtOff : tgtOff+img.Lines[tryLno+i].Len]

		fixedOld, _ := wsFixCopy(oldLine, wsRule)
		fixedTgt, _ := wsFixCopy(tgtLine, wsRule)
		if !bytes.Equal(fixedOld, fixedTgt) {
			return false
		}

		fixedLines[i] = Line{Len: len(fixedOld), Hash: pl.Hash, Flags: pl.Flags}
		fixedPre.Write(fixedOld)

		preOff += pl.Len
		tgtOff += img.Lines[tryLno+i].Len
	}

	updatePrePostImages(pre, post, fixedPre.Bytes(), fixedLines)
	return true
}

// updatePrePostImages replaces pre's buffer/line-table with the
// whitespace-fixed version and propagates the corrected lengths into every
// LineCommon (context) line of post, leaving added ("+") lines of post
// untouched. This only works because wsFixCopy is non-expansive, so the
// rewritten postimage never grows past its original allocation.
func updatePrePostImages(pre, post *Image, fixedBuf []byte, fixedLines []Line) {
	pre.Buf = fixedBuf
	pre.Lines = fixedLines

	newPostBuf := make([]byte, 0, len(post.Buf))
	newPostLines := make([]Line, len(post.Lines))

	oldOff := 0
	fixedOff := 0
	ctx := 0
	for i, pl := range post.Lines {
		if pl.Flags&LineCommon == 0 {
			newPostBuf = append(newPostBuf, post.Buf[oldOff:oldOff+pl.Len]...)
			newPostLines[i] = pl
			oldOff += pl.Len
			continue
		}
		oldOff += pl.Len

		for ctx < len(pre.Lines) && pre.Lines[ctx].Flags&LineCommon == 0 {
			fixedOff += pre.Lines[ctx].Len
			ctx++
		}
		fl := pre.Lines[ctx]
		newPostBuf = append(newPostBuf, fixedBuf[fixedOff:fixedOff+fl.Len]...)
		newPostLines[i] = Line{Len: fl.Len, Hash: pl.Hash, Flags: pl.Flags}
		fixedOff += fl.Len
		ctx++
	}

	post.Buf = newPostBuf
	post.Lines = newPostLines
}

// findPos locates preimage within img, starting from logical line `line`
// and alternating backward/forward one line at a time -- a direct port of
// git's find_pos (spec.md §4.M). Backward is always tried before forward
// at the same distance, which is the documented legacy tie-break.
func findPos(img, pre, post *Image, line int, wsRule WSRule, wsPolicy WSPolicy, matchBeginning, matchEnd bool) int {
	if len(pre.Lines) > len(img.Lines) {
		return -1
	}
	if matchBeginning {
		line = 0
	} else if matchEnd {
		line = len(img.Lines) - len(pre.Lines)
	}
	if line > len(img.Lines) {
		line = len(img.Lines)
	}
	if line < 0 {
		line = 0
	}

	try := 0
	for i := 0; i < line; i++ {
		try += img.Lines[i].Len
	}

	backwards, backwardsLno := try, line
	forwards, forwardsLno := try, line
	tryLno := line

	for i := 0; ; i++ {
		if matchFragment(img, pre, post, try, tryLno, wsRule, wsPolicy, matchBeginning, matchEnd) {
			return tryLno
		}

	again:
		if backwardsLno == 0 && forwardsLno == len(img.Lines) {
			break
		}
		if i&1 == 0 {
			if backwardsLno == 0 {
				i++
				goto again
			}
			backwardsLno--
			backwards -= img.Lines[backwardsLno].Len
			try, tryLno = backwards, backwardsLno
		} else {
			if forwardsLno == len(img.Lines) {
				i++
				goto again
			}
			forwards += img.Lines[forwardsLno].Len
			forwardsLno++
			try, tryLno = forwards, forwardsLno
		}
	}
	return -1
}

package patch

// splitFragmentLines walks a fragment's raw body and separates it into a
// preimage line list and a postimage line list, honoring --reverse (which
// swaps the roles of '+' and '-') and --no-add (which drops added lines from
// the postimage entirely, per spec.md §6). It also reports whether the last
// pre/post line was marked by a "\ No newline at end of file" trailer.
func splitFragmentLines(body []byte, reverse, noAdd bool) (preBuf, postBuf []byte, preLines, postLines []Line, preNoEOL, postNoEOL bool) {
	addCh, delCh := byte('+'), byte('-')
	if reverse {
		addCh, delCh = delCh, addCh
	}

	lines := walkLines(body)
	off := 0
	lastTouched := byte(0) // last of delCh/addCh/' ' seen, to resolve a following '\' marker
	for _, l := range lines {
		raw := body[off : off+l.Len]
		off += l.Len

		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '\\':
			switch lastTouched {
			case addCh:
				postNoEOL = true
			case delCh:
				preNoEOL = true
			default:
				preNoEOL, postNoEOL = true, true
			}
		case ' ', '\n':
			content := raw
			if raw[0] == ' ' {
				content = raw[1:]
			}
			preBuf = append(preBuf, content...)
			postBuf = append(postBuf, content...)
			preLines = append(preLines, Line{Len: len(content), Hash: hashLine(content), Flags: LineCommon})
			postLines = append(postLines, Line{Len: len(content), Hash: hashLine(content), Flags: LineCommon})
			lastTouched = ' '
		case delCh:
			content := raw[1:]
			preBuf = append(preBuf, content...)
			preLines = append(preLines, Line{Len: len(content), Hash: hashLine(content)})
			lastTouched = delCh
		case addCh:
			if noAdd {
				lastTouched = addCh
				continue
			}
			content := raw[1:]
			postBuf = append(postBuf, content...)
			postLines = append(postLines, Line{Len: len(content), Hash: hashLine(content)})
			lastTouched = addCh
		}
	}
	return preBuf, postBuf, preLines, postLines, preNoEOL, postNoEOL
}

// shrinkablePair holds a preimage/postimage pair together with how many
// lines were trimmed off each end relative to the full fragment, so a
// caller can report how much context was sacrificed to make a match.
type shrinkablePair struct {
	pre, post       *Image
	droppedLeading  int
	droppedTrailing int
}

// buildShrunkPair re-slices a full pre/post line pair, dropping `front`
// leading common lines and `back` trailing common lines from both images
// symmetrically (both sides carry the same context, so the same line
// counts are dropped from both).
func buildShrunkPair(preBuf, postBuf []byte, preLines, postLines []Line, front, back int) shrinkablePair {
	preOff := 0
	for i := 0; i < front; i++ {
		preOff += preLines[i].Len
	}
	postOff := 0
	for i := 0; i < front; i++ {
		postOff += postLines[i].Len
	}
	preEnd := len(preBuf)
	for i := 0; i < back; i++ {
		preEnd -= preLines[len(preLines)-1-i].Len
	}
	postEnd := len(postBuf)
	for i := 0; i < back; i++ {
		postEnd -= postLines[len(postLines)-1-i].Len
	}

	pre := &Image{Buf: append([]byte{}, preBuf[preOff:preEnd]...), Lines: append([]Line{}, preLines[front:len(preLines)-back]...)}
	post := &Image{Buf: append([]byte{}, postBuf[postOff:postEnd]...), Lines: append([]Line{}, postLines[front:len(postLines)-back]...)}
	return shrinkablePair{pre: pre, post: post, droppedLeading: front, droppedTrailing: back}
}

// applyFragment locates fragment f's preimage within img and splices in its
// postimage, shrinking the amount of required leading/trailing context down
// to opts.ContextFloor when an exact-context match fails (spec.md §4.A).
// It returns the warning to record on success (nil if none), or an error
// when every context level is exhausted.
func applyFragment(img *Image, f *Fragment, opts *Options, wsRule WSRule, path string) (*Warning, error) {
	preBuf, postBuf, preLines, postLines, _, postNoEOL := splitFragmentLines(f.Patch, opts.Reverse, opts.NoAdd)

	pos := f.OldPos - 1
	if pos < 0 {
		pos = 0
	}
	matchBeginning := f.OldPos <= 1
	matchEnd := f.OldPos-1+len(preLines) >= len(img.Lines)

	leading, trailing := f.Leading, f.Trailing
	floor := opts.ContextFloor

	// Shrink whichever end still carries more context than the other down to
	// context_floor, shrinking both in lockstep once they're equal, per
	// apply_one_fragment's context-reduction retry. Trimming a leading line
	// moves the remaining preimage's expected start one line later in the
	// hunk but one line earlier in the search anchor (pos--), since that
	// line is no longer pinning the match.
	leadShrink, trailShrink := 0, 0
	for {
		front, back := leadShrink, trailShrink
		curLeading, curTrailing := leading-front, trailing-back
		tryBeginning := matchBeginning && front == 0
		tryEnd := matchEnd && back == 0

		pair := buildShrunkPair(preBuf, postBuf, preLines, postLines, front, back)
		if len(pair.pre.Lines) > 0 {
			found := findPos(img, pair.pre, pair.post, pos, wsRule, opts.WSPolicy, tryBeginning, tryEnd)
			if found < 0 && (tryBeginning || tryEnd) {
				// The forced beginning/end anchor didn't pan out; retry this
				// same context level once without forcing it.
				found = findPos(img, pair.pre, pair.post, pos, wsRule, opts.WSPolicy, false, false)
			}
			if found >= 0 {
				post := stripPostimageEOFBlankLines(pair.post, postNoEOL)
				updateImage(img, found, pair.pre, post)
				if front > 0 || back > 0 {
					return &Warning{Path: path, Message: "applied with reduced context"}, nil
				}
				return nil, nil
			}
		}

		if curLeading <= floor && curTrailing <= floor {
			break
		}

		switch {
		case curLeading > curTrailing:
			leadShrink++
			pos--
		case curTrailing > curLeading:
			trailShrink++
		default:
			leadShrink++
			trailShrink++
			pos--
		}
	}

	return nil, &PatchError{Path: path, Kind: KindPreimageMismatch, Msg: "fragment preimage does not match"}
}

// stripPostimageEOFBlankLines drops the final LF byte of post's last line
// when the fragment's "\ No newline at end of file" trailer indicated the
// postimage must not end in a newline. It removes only that one byte: blank
// lines at the end of post, including any left by whitespace fixing, are
// kept.
func stripPostimageEOFBlankLines(post *Image, postNoEOL bool) *Image {
	if !postNoEOL || len(post.Lines) == 0 {
		return post
	}
	last := post.Lines[len(post.Lines)-1]
	if last.Len > 0 && post.Buf[len(post.Buf)-1] == '\n' {
		post.Buf = post.Buf[:len(post.Buf)-1]
		post.Lines[len(post.Lines)-1].Len--
	}
	return post
}

package patch

// NewImage builds an Image over buf, indexing it into lines. It is the
// preimage/postimage byte-buffer-plus-line-table model of spec.md §4.I.
func NewImage(buf []byte) *Image {
	return &Image{Buf: buf, Lines: walkLines(buf)}
}

// Len returns the total byte length covered by the image's line table,
// which must always equal len(img.Buf) (spec.md §3 invariant).
func (img *Image) Len() int {
	n := 0
	for _, l := range img.Lines {
		n += l.Len
	}
	return n
}

// lineOffset returns the byte offset of the start of logical line i.
func (img *Image) lineOffset(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += img.Lines[j].Len
	}
	return off
}

// removeFirstLine drops the image's first line by advancing Buf and Lines;
// it does not copy.
func (img *Image) removeFirstLine() {
	n := img.Lines[0].Len
	img.Buf = img.Buf[n:]
	img.Lines = img.Lines[1:]
}

// removeLastLine drops the image's last line by shrinking Buf and Lines.
func (img *Image) removeLastLine() {
	last := len(img.Lines) - 1
	img.Buf = img.Buf[:len(img.Buf)-img.Lines[last].Len]
	img.Lines = img.Lines[:last]
}

// updateImage replaces the preimage-sized slice of img starting at logical
// line pos with post's bytes, splicing both the byte buffer and the line
// table so the Sigma-line-length invariant holds afterward.
func updateImage(img *Image, pos int, pre, post *Image) {
	appliedAt := img.lineOffset(pos)
	removeCount := 0
	for i := 0; i < len(pre.Lines); i++ {
		removeCount += img.Lines[pos+i].Len
	}

	result := make([]byte, 0, len(img.Buf)-removeCount+len(post.Buf))
	result = append(result, img.Buf[:appliedAt]...)
	result = append(result, post.Buf...)
	result = append(result, img.Buf[appliedAt+removeCount:]...)

	lines := make([]Line, 0, len(img.Lines)-len(pre.Lines)+len(post.Lines))
	lines = append(lines, img.Lines[:pos]...)
	lines = append(lines, post.Lines...)
	lines = append(lines, img.Lines[pos+len(pre.Lines):]...)

	img.Buf = result
	img.Lines = lines
}

package patch

import "fmt"

// applyGitDelta reconstructs a binary fragment encoded as a git pack delta
// (BinaryDelta, spec.md §6's "delta <size>" binary hunk form) against base.
// It is a Go port of git's patch_delta: a varint source-size header, a
// varint target-size header, then a stream of copy ("0x80 |
// offsetBytes<<0 | sizeBytes<<4") and insert (literal length byte 1-127)
// opcodes.
func applyGitDelta(base, delta []byte) ([]byte, error) {
	srcSize, n, err := readDeltaVarint(delta)
	if err != nil {
		return nil, err
	}
	if srcSize != len(base) {
		return nil, fmt.Errorf("delta base size %d does not match preimage size %d", srcSize, len(base))
	}
	delta = delta[n:]

	dstSize, n, err := readDeltaVarint(delta)
	if err != nil {
		return nil, err
	}
	delta = delta[n:]

	out := make([]byte, 0, dstSize)
	for len(delta) > 0 {
		cmd := delta[0]
		delta = delta[1:]

		if cmd&0x80 != 0 {
			var offset, size int
			for i := 0; i < 4; i++ {
				if cmd&(1<<uint(i)) != 0 {
					if len(delta) == 0 {
						return nil, fmt.Errorf("truncated copy opcode")
					}
					offset |= int(delta[0]) << uint(8*i)
					delta = delta[1:]
				}
			}
			for i := 0; i < 3; i++ {
				if cmd&(1<<uint(4+i)) != 0 {
					if len(delta) == 0 {
						return nil, fmt.Errorf("truncated copy opcode")
					}
					size |= int(delta[0]) << uint(8*i)
					delta = delta[1:]
				}
			}
			if size == 0 {
				size = 0x10000
			}
			if offset < 0 || offset+size > len(base) {
				return nil, fmt.Errorf("copy opcode out of range")
			}
			out = append(out, base[offset:offset+size]...)
		} else if cmd != 0 {
			n := int(cmd)
			if n > len(delta) {
				return nil, fmt.Errorf("truncated insert opcode")
			}
			out = append(out, delta[:n]...)
			delta = delta[n:]
		} else {
			return nil, fmt.Errorf("reserved delta opcode 0")
		}
	}

	if len(out) != dstSize {
		return nil, fmt.Errorf("delta produced %d bytes, expected %d", len(out), dstSize)
	}
	return out, nil
}

// readDeltaVarint reads one little-endian base-128 varint (7 payload bits
// per byte, MSB a continuation flag), returning the value and the number of
// bytes consumed.
func readDeltaVarint(b []byte) (value, consumed int, err error) {
	shift := 0
	for i := 0; i < len(b); i++ {
		c := b[i]
		value |= int(c&0x7f) << uint(shift)
		shift += 7
		if c&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("truncated delta varint")
}

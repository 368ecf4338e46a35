package patch

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// base85Alphabet is the GNU patch base85 alphabet: 0-9, A-Z, a-z, then the
// 23 punctuation characters git's base85.c uses, in this exact order. Index
// i decodes character base85Alphabet[i] to value i.
const base85Alphabet = "0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"!#$%&()*+-;<=>?@^_`{|}~"

var base85Decode [256]int8

func init() {
	for i := range base85Decode {
		base85Decode[i] = -1
	}
	for i := 0; i < len(base85Alphabet); i++ {
		base85Decode[base85Alphabet[i]] = int8(i)
	}
}

// decode85Group decodes one 5-character base85 group into up to 4 bytes of
// out, writing exactly n bytes (n in 1..4, for the final partial group of a
// line).
func decode85Group(group []byte, out []byte, n int) error {
	var acc uint32
	for i := 0; i < 5; i++ {
		v := base85Decode[group[i]]
		if v < 0 {
			return fmt.Errorf("invalid base85 character %q", group[i])
		}
		acc = acc*85 + uint32(v)
	}
	var buf [4]byte
	buf[0] = byte(acc >> 24)
	buf[1] = byte(acc >> 16)
	buf[2] = byte(acc >> 8)
	buf[3] = byte(acc)
	copy(out, buf[:n])
	return nil
}

// lenChar maps a base85 hunk line's leading length byte to a decoded byte
// count: 'A'..'Z' -> 1..26, 'a'..'z' -> 27..52 (spec.md §4.B and §6).
func lenChar(b byte) (int, bool) {
	switch {
	case b >= 'A' && b <= 'Z':
		return int(b-'A') + 1, true
	case b >= 'a' && b <= 'z':
		return int(b-'a') + 27, true
	}
	return 0, false
}

// decodeBase85Line decodes one length-prefixed base85 hunk line (the bytes
// after the leading length character, excluding any trailing LF) into
// exactly byteLength decoded bytes.
//
// The line (length-char plus base85 payload, excluding LF) must have length
// congruent to 2 mod 5 and at least 7 (spec.md §4.B). byteLength must
// satisfy maxByteLength-4 < byteLength <= maxByteLength where maxByteLength
// = 4*((llen-2)/5), so the last 5-char group carries 1 to 4 bytes.
func decodeBase85Line(llen int, byteLength int, payload []byte) ([]byte, error) {
	if llen < 7 || (llen-2)%5 != 0 {
		return nil, fmt.Errorf("malformed base85 line length %d", llen)
	}
	maxByteLength := 4 * ((llen - 2) / 5)
	if byteLength > maxByteLength || byteLength <= maxByteLength-4 {
		return nil, fmt.Errorf("declared length %d out of range for %d-byte line", byteLength, llen)
	}

	groups := (llen - 2) / 5 // number of 5-char base85 groups in payload
	out := make([]byte, 0, maxByteLength)
	remaining := byteLength
	for g := 0; g < groups; g++ {
		lo := g * 5
		hi := lo + 5
		if hi > len(payload) {
			return nil, fmt.Errorf("truncated base85 group")
		}
		n := 4
		if remaining < 4 {
			n = remaining
		}
		if n <= 0 {
			break
		}
		var tmp [4]byte
		if err := decode85Group(payload[lo:hi], tmp[:], n); err != nil {
			return nil, err
		}
		out = append(out, tmp[:n]...)
		remaining -= n
	}
	return out, nil
}

// inflateExact zlib-inflates data and requires the result to be exactly
// wantLen bytes long, per spec.md §4.B ("a successful inflation must
// produce exactly the length declared in the hunk header").
func inflateExact(data []byte, wantLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, &StreamError{Kind: KindInflateFailed, Msg: err.Error()}
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, &StreamError{Kind: KindInflateFailed, Msg: err.Error()}
	}
	if len(out) != wantLen {
		return nil, &StreamError{
			Kind: KindInflateFailed,
			Msg:  fmt.Sprintf("inflated length %d does not match declared length %d", len(out), wantLen),
		}
	}
	return out, nil
}

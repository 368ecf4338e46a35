package main

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// inflateLooseObject zlib-inflates a loose git object and strips its
// "<type> <len>\0" framing header, returning the raw content bytes.
func inflateLooseObject(raw []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("inflating loose object: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflating loose object: %w", err)
	}
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return nil, fmt.Errorf("malformed loose object: no header terminator")
	}
	return data[nul+1:], nil
}

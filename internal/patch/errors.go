package patch

import "fmt"

// StreamError is a stream-fatal parse error: corrupt header, unterminated
// hunk, count mismatch, bad base85, or inflate failure. It aborts the whole
// session (spec.md §7, tier 1).
type StreamError struct {
	Line int
	Kind string
	Msg  string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
}

// Well-known StreamError kinds, returned so callers can errors.As + switch
// on Kind without string-matching Msg.
const (
	KindMalformedHeader    = "MalformedHeader"
	KindIrreversibleBinary = "IrreversibleBinary"
	KindBadBase85          = "BadBase85"
	KindInflateFailed      = "InflateFailed"
	KindCountMismatch      = "CountMismatch"
)

// PatchError is a patch-fatal error: a whole patch record cannot be
// resolved (preimage hash mismatch on a binary patch, or a fragment that
// could not be located and --reject was not requested). It aborts the
// session unless the caller is running in reject mode (spec.md §7, tier 2).
type PatchError struct {
	Path string
	Kind string
	Msg  string
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Msg)
}

const (
	KindPreimageMismatch = "PreimageMismatch"
	KindPathConflict     = "PathConflict"
	KindIndexMissing     = "IndexMissing"
	KindWSViolation      = "WhitespaceViolation"
)

// FragmentReject marks a single fragment as unlocatable; it is recorded but
// does not abort the session when the caller requested --reject
// (spec.md §7, tier 3).
type FragmentReject struct {
	Path        string
	FragmentNum int
}

func (e *FragmentReject) Error() string {
	return fmt.Sprintf("%s: hunk #%d FAILED to apply", e.Path, e.FragmentNum)
}

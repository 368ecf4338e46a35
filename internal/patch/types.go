// Package patch implements a unified-diff patch engine: lenient parsing of
// a unified-diff byte stream (with optional git extended headers and binary
// hunks) into Patch/Fragment records, and fuzzy application of those records
// against a preimage to produce a postimage.
package patch

// Tri is a three-state flag: a patch may be known-true, known-false, or the
// state may not have been determined yet by the header parser.
type Tri int

const (
	Unknown Tri = iota
	No
	Yes
)

// BinaryMethod names how a binary fragment's payload should be combined
// with the preimage.
type BinaryMethod int

const (
	BinaryNone BinaryMethod = iota
	BinaryLiteral
	BinaryDelta
)

// LineFlag marks bits on a Line within an Image.
type LineFlag uint8

const (
	// LineCommon marks a context line: present in both pre- and postimage.
	LineCommon LineFlag = 1 << 0
)

// Line indexes one LF-terminated (or EOF-terminated) run of bytes inside an
// Image's buffer. Hash is the whitespace-insensitive rolling hash of the
// line's non-whitespace bytes, truncated to 24 bits.
type Line struct {
	Len   int
	Hash  uint32
	Flags LineFlag
}

// Image is a contiguous byte buffer with a line table covering it.
// Image.Lines[i].Len summed over all lines equals len(Image.Buf).
type Image struct {
	Buf   []byte
	Lines []Line
}

// FragmentID and PatchID are opaque handles into a Session's arenas, per the
// "cyclic linked structures as arena + index" design note: patches can
// reference the result of an earlier patch in the same session without
// either side holding a raw Go pointer into mutable, reallocated slices.
type FragmentID int
type PatchID int

// Fragment is one @@-delimited hunk (or one GIT binary patch hunk pair).
type Fragment struct {
	OldPos, OldLines int // 1-based; OldLines counted
	NewPos, NewLines int

	Leading, Trailing int // unchanged context lines counted at each end

	Patch []byte // raw hunk body bytes (lines after the "@@ ... @@" header)

	Rejected bool
	Next     FragmentID // -1 when this is the last fragment of its patch

	// Binary hunk fields; zero value (BinaryNone) means this is a text
	// fragment and the fields below are unused.
	Method    BinaryMethod
	OrigLen   int // inflated length declared in the hunk header
	NoNewline bool
}

// Patch is one logical file change: the header plus its ordered Fragments.
type Patch struct {
	OldName, NewName, DefName string

	OldMode, NewMode uint32 // octal mode; 0 when absent

	IsNew, IsDelete        Tri
	IsRename, IsCopy       bool
	IsBinary               bool
	IsTopLevelRelative     bool
	InaccurateEOF          bool
	Recount                bool

	Score int // 0-100 similarity for rename/copy

	WSRule WSRule

	OldSHA1Prefix, NewSHA1Prefix string

	Fragments []FragmentID

	Result   []byte
	Next     PatchID // always -1: patches touching the same path are linked through the session's file table, not here
	Rejected bool

	// BinaryLiteralChange marks "Binary files a/x and b/x differ" with no
	// hunk body: accepted as a no-op w.r.t. fragment application, but the
	// patch is still considered binary and applied as a full blob swap if
	// later given binary hunks by a following GIT binary patch fragment.
	BinaryLiteralChange bool
}

// FileTableEntry is the value type stored in a Session's file table. A path
// maps either to the PatchID whose Result currently defines its contents,
// or to one of the two sentinels below.
type FileTableEntry int

const (
	// EntryNone means "no entry" -- never stored explicitly, used as a
	// zero value sentinel by callers that look up a missing path.
	EntryNone FileTableEntry = -1
	// WasDeleted marks a path deleted (or renamed away) earlier in this
	// session; it cannot be the source of a later non-copy/rename patch.
	WasDeleted FileTableEntry = -2
	// ToBeDeleted marks a path whose type-change split has seen its
	// "delete" half but not yet its matching "create" half.
	ToBeDeleted FileTableEntry = -3
)

// Warning is a structured, non-fatal diagnostic raised while applying a
// fragment: a hunk that applied only with reduced context, or a whitespace
// violation on an added line. A hunk that matched at a different line with
// full context, or a truncated .rej name, raises none. Warnings never fail a
// patch.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string {
	if w.Path == "" {
		return w.Message
	}
	return w.Path + ": " + w.Message
}

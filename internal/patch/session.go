package patch

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// Session is the top-level patch-engine entry point: it owns the patch and
// fragment arenas, the file table that lets one session apply several
// patches touching the same path in sequence, and the external
// collaborators (spec.md §5) that supply preimage bytes and receive
// results. cmd/xgit-apply constructs one Session per invocation.
type Session struct {
	Opts *Options

	Objects ObjectStore
	Tree    WorkingTree
	Index   Index
	Config  Config
	Log     Logger

	patches   []*Patch
	fragments []*Fragment

	fileTable map[string]FileTableEntry

	Warnings []Warning
	Rejects  []*FragmentReject
}

// NewSession builds a Session over the given collaborators, defaulting Log
// to NopLogger when nil (spec.md §5).
func NewSession(opts *Options, objects ObjectStore, tree WorkingTree, index Index, config Config, log Logger) *Session {
	if log == nil {
		log = NopLogger{}
	}
	return &Session{
		Opts:      opts,
		Objects:   objects,
		Tree:      tree,
		Index:     index,
		Config:    config,
		Log:       log,
		fileTable: make(map[string]FileTableEntry),
	}
}

func (s *Session) addPatch(p *Patch) PatchID {
	p.Next = -1
	s.patches = append(s.patches, p)
	return PatchID(len(s.patches) - 1)
}

func (s *Session) addFragment(f *Fragment) FragmentID {
	f.Next = -1
	s.fragments = append(s.fragments, f)
	return FragmentID(len(s.fragments) - 1)
}

// Patch dereferences a PatchID into its arena slot.
func (s *Session) Patch(id PatchID) *Patch { return s.patches[id] }

// Fragment dereferences a FragmentID into its arena slot.
func (s *Session) Fragment(id FragmentID) *Fragment { return s.fragments[id] }

// ParseStream parses a complete unified-diff byte stream into an ordered
// list of PatchIDs, stored in the session's arena (spec.md §4.H/§4.F). A
// malformed header or hunk aborts the whole parse with a *StreamError.
func (s *Session) ParseStream(data []byte) ([]PatchID, error) {
	sc := newLineScanner(data)
	var ids []PatchID

	for !sc.eof() {
		line := sc.peekTrimmed()
		if line == "" {
			sc.advance()
			continue
		}
		if !strings.HasPrefix(line, "diff --git ") && !strings.HasPrefix(line, "--- ") {
			sc.advance()
			continue
		}

		p, err := parseHeader(sc, s.Opts)
		if err != nil {
			return nil, err
		}

		var fragIDs []FragmentID
		var prevFrag FragmentID = -1
		for !sc.eof() {
			peeked := sc.peekTrimmed()
			switch {
			case strings.HasPrefix(peeked, "@@ -"):
				f, ferr := parseFragment(sc, s.Opts)
				if ferr != nil {
					return nil, ferr
				}
				id := s.addFragment(f)
				if prevFrag >= 0 {
					s.fragments[prevFrag].Next = id
				}
				prevFrag = id
				fragIDs = append(fragIDs, id)
			case isBinaryPatchMarker(peeked):
				sc.advance()
				fwd, rev, berr := parseBinaryFragments(sc)
				if berr != nil {
					return nil, berr
				}
				p.IsBinary = true
				useFrag := fwd
				if s.Opts.Reverse {
					if rev == nil {
						return nil, &StreamError{Line: sc.line, Kind: KindIrreversibleBinary, Msg: "binary patch has no reverse hunk, cannot apply with --reverse"}
					}
					useFrag = rev
				}
				id := s.addFragment(useFrag)
				if prevFrag >= 0 {
					s.fragments[prevFrag].Next = id
				}
				prevFrag = id
				fragIDs = append(fragIDs, id)
			default:
				goto doneFrags
			}
		}
	doneFrags:

		p.Fragments = fragIDs
		id := s.addPatch(p)
		ids = append(ids, id)
	}

	return ids, nil
}

// ApplyAll applies each patch in ids, in order, against the session's
// collaborators, updating the file table as it goes (spec.md §4.P). It
// stops at the first patch-fatal error unless the session is running with
// --reject, in which case a patch whose fragments could not all be located
// is recorded (via Rejects) and application continues with the next patch.
func (s *Session) ApplyAll(ids []PatchID) error {
	for _, id := range ids {
		if err := s.applyPatch(id); err != nil {
			if _, fatal := err.(*StreamError); fatal {
				return err
			}
			if !s.Opts.Reject {
				return err
			}
			s.Log.Log("%v", err)
		}
	}
	return nil
}

func (s *Session) applyPatch(id PatchID) error {
	p := s.Patch(id)
	path := resolvedPatchPath(p)
	if !s.Opts.MatchesFilter(path) {
		return nil
	}

	if p.IsNew == Yes {
		conflict, err := s.createConflicts(path)
		if err != nil {
			return &PatchError{Path: path, Kind: KindPreimageMismatch, Msg: err.Error()}
		}
		if conflict {
			return &PatchError{Path: path, Kind: KindPathConflict, Msg: "creation target already exists"}
		}
	}

	oldPath := p.OldName
	var preimage []byte
	if p.IsNew != Yes {
		var err error
		preimage, err = s.resolvePreimage(oldPath)
		if err != nil {
			return &PatchError{Path: path, Kind: KindPreimageMismatch, Msg: err.Error()}
		}
	}

	var result []byte
	switch {
	case p.IsBinary && p.BinaryLiteralChange && len(p.Fragments) == 0:
		result = preimage
	case p.IsBinary:
		res, err := s.applyBinaryPatch(p, preimage)
		if err != nil {
			return &PatchError{Path: path, Kind: KindPreimageMismatch, Msg: err.Error()}
		}
		result = res
	default:
		res, err := s.applyTextPatch(p, preimage, path)
		if err != nil {
			return err
		}
		result = res
	}

	p.Result = result
	s.recordResult(p, id, path)
	return nil
}

func (s *Session) applyBinaryPatch(p *Patch, preimage []byte) ([]byte, error) {
	if p.OldSHA1Prefix != "" && !strings.HasPrefix(hashBlobHex(preimage), p.OldSHA1Prefix) {
		return nil, fmt.Errorf("preimage blob hash does not match index line")
	}
	var out []byte
	for _, fid := range p.Fragments {
		f := s.Fragment(fid)
		switch f.Method {
		case BinaryLiteral:
			out = f.Patch
		case BinaryDelta:
			res, err := applyGitDelta(preimage, f.Patch)
			if err != nil {
				return nil, err
			}
			out = res
		default:
			return nil, fmt.Errorf("binary patch fragment with no method")
		}
	}
	if p.NewSHA1Prefix != "" && !strings.HasPrefix(hashBlobHex(out), p.NewSHA1Prefix) {
		return nil, fmt.Errorf("result blob hash does not match index line")
	}
	return out, nil
}

func (s *Session) applyTextPatch(p *Patch, preimage []byte, path string) ([]byte, error) {
	img := NewImage(preimage)
	wsViolated := false
	for _, fid := range p.Fragments {
		f := s.Fragment(fid)
		warn, err := applyFragment(img, f, s.Opts, p.WSRule, path)
		if err != nil {
			f.Rejected = true
			s.Rejects = append(s.Rejects, &FragmentReject{Path: path, FragmentNum: fragmentIndex(p, fid) + 1})
			if !s.Opts.Reject {
				return nil, err
			}
			continue
		}
		if warn != nil {
			s.Warnings = append(s.Warnings, *warn)
		}

		// --whitespace=warn/error both detect violations on added lines;
		// nowarn and fix skip detection. Under fix the matcher only lets
		// preimage and context lines differ in whitespace and carries the
		// fixed context bytes into the result; added lines are written as the
		// patch has them.
		if s.Opts.WSPolicy == WSWarn || s.Opts.WSPolicy == WSError {
			violations, any := detectFragmentWS(f.Patch, s.Opts.Reverse, s.Opts.NoAdd, p.WSRule, path)
			if any {
				wsViolated = true
				if s.Opts.WSPolicy == WSWarn {
					s.Warnings = append(s.Warnings, violations...)
				}
			}
		}
	}
	if wsViolated && s.Opts.WSPolicy == WSError {
		return nil, &PatchError{Path: path, Kind: KindWSViolation, Msg: "whitespace errors found in added lines"}
	}
	return img.Buf, nil
}

func fragmentIndex(p *Patch, id FragmentID) int {
	for i, fid := range p.Fragments {
		if fid == id {
			return i
		}
	}
	return -1
}

// resolvePreimage resolves path's current content, preferring an
// in-session result from an earlier patch over the index/working tree
// (spec.md §4.P's preimage-source chain).
func (s *Session) resolvePreimage(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	if entry, ok := s.fileTable[path]; ok {
		switch entry {
		case WasDeleted:
			return nil, fmt.Errorf("%s: source was already deleted earlier in this patch set", path)
		case ToBeDeleted:
			return nil, fmt.Errorf("%s: source is mid type-change split", path)
		default:
			return s.Patch(PatchID(entry)).Result, nil
		}
	}

	if s.Opts.Cached || s.Opts.IndexRequired {
		entry, ok := s.Index.Get(path)
		if !ok {
			if s.Opts.IndexRequired {
				return nil, &PatchError{Path: path, Kind: KindIndexMissing, Msg: "not found in index"}
			}
		} else {
			return s.Objects.ReadBlob(entry.Hash)
		}
	}

	data, err := s.Tree.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// createConflicts reports whether creating path would collide with content
// this session does not already know is gone: an in-session patch result, or
// (outside the session) an index/working-tree entry that is neither deleted
// nor left mid type-change split (spec.md §4.P step 5 / §8's PathConflict
// case).
func (s *Session) createConflicts(path string) (bool, error) {
	if entry, ok := s.fileTable[path]; ok {
		switch entry {
		case WasDeleted, ToBeDeleted:
			return false, nil
		default:
			return true, nil
		}
	}
	if s.Opts.Cached || s.Opts.IndexRequired {
		_, ok := s.Index.Get(path)
		return ok, nil
	}
	_, exists, err := s.Tree.Stat(path)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// recordResult updates the file table after a patch has been applied: the
// new path (if any) now resolves to this patch's Result, and the old path
// (if renamed or deleted away) no longer does.
//
// A delete-only patch marks its old path TO_BE_DELETED rather than
// terminally WAS_DELETED: git splits a file-type change (e.g. symlink to
// regular file) into a delete-only patch immediately followed by a
// create-only patch at the same path, and the second half must find that
// path still consumable -- not a PathConflict -- when it creates there
// (spec.md §4.P step 5).
func (s *Session) recordResult(p *Patch, id PatchID, path string) {
	if p.IsDelete == Yes {
		s.fileTable[p.OldName] = ToBeDeleted
		return
	}
	newPath := resolvedPatchPath(p)
	s.fileTable[newPath] = FileTableEntry(id)
	if (p.IsRename || p.IsCopy) && !p.IsCopy && p.OldName != "" && p.OldName != newPath {
		s.fileTable[p.OldName] = WasDeleted
	}
}

// hashBlobHex computes the hex SHA-1 of data under git's loose-object blob
// framing ("blob <len>\0<data>"), used to verify a binary patch's declared
// preimage hash (spec.md §4.P).
func hashBlobHex(data []byte) string {
	return HashBlob(data)
}

// HashBlob computes the hex SHA-1 object id data would have as a git blob
// ("blob <len>\0<data>" framing). Exported so collaborators (e.g. an index
// adapter) can compute the same id the engine uses internally.
func HashBlob(data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(data))
	h.Write(data)
	return fmt.Sprintf("%x", h.Sum(nil))
}

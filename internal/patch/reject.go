package patch

import (
	"bytes"
	"fmt"
)

// pathMax mirrors POSIX PATH_MAX; reject file names are truncated to
// pathMax-5 bytes before the ".rej" suffix is appended, so the derived name
// never exceeds the limit the filesystem enforces (spec.md §6).
const pathMax = 4096

// RejectPath derives the ".rej" sibling path for a rejected patch's target
// file, truncating the original path if needed.
func RejectPath(path string) string {
	if len(path) > pathMax-5 {
		path = path[:pathMax-5]
	}
	return path + ".rej"
}

// BuildRejectFile renders the .rej file contents for a patch that had one
// or more fragments rejected: a synthetic "diff a/x b/x (rejected hunks)"
// header followed, for each rejected fragment, by an "@@ -a,b +c,d @@" line
// rebuilt from its parsed positions and counts and then its verbatim body.
// Any section text after the original header's closing "@@" is not kept.
func (s *Session) BuildRejectFile(p *Patch, id PatchID) []byte {
	path := resolvedPatchPath(p)
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "diff a/%s b/%s\t(rejected hunks)\n", path, path)
	for _, fid := range p.Fragments {
		f := s.Fragment(fid)
		if !f.Rejected {
			continue
		}
		fmt.Fprintf(&buf, "@@ -%d,%d +%d,%d @@\n", f.OldPos, f.OldLines, f.NewPos, f.NewLines)
		buf.Write(f.Patch)
	}
	return buf.Bytes()
}

// HasRejects reports whether any fragment of p was marked Rejected.
func (s *Session) HasRejects(p *Patch) bool {
	for _, fid := range p.Fragments {
		if s.Fragment(fid).Rejected {
			return true
		}
	}
	return false
}

// FileStat is one row of --stat/--numstat/--summary output for a single
// patch (spec.md §6).
type FileStat struct {
	Path         string
	OldPath      string
	Added        int
	Deleted      int
	Binary       bool
	IsNew        bool
	IsDelete     bool
	IsRename     bool
	IsCopy       bool
	ModeChanged  bool
	OldMode      uint32
	NewMode      uint32
}

// Numstat counts added/removed lines across all of a text patch's
// fragments by scanning each fragment's raw body for leading '+'/'-' bytes.
// Binary patches report Added==Deleted==0 with Binary set, matching git
// apply --numstat's "-\t-\tpath" convention for binary files.
func (s *Session) Numstat(p *Patch) FileStat {
	fs := FileStat{
		Path:        resolvedPatchPath(p),
		OldPath:     p.OldName,
		Binary:      p.IsBinary,
		IsNew:       p.IsNew == Yes,
		IsDelete:    p.IsDelete == Yes,
		IsRename:    p.IsRename,
		IsCopy:      p.IsCopy,
		OldMode:     p.OldMode,
		NewMode:     p.NewMode,
		ModeChanged: p.OldMode != 0 && p.NewMode != 0 && p.OldMode != p.NewMode,
	}
	if p.IsBinary {
		return fs
	}
	for _, fid := range p.Fragments {
		f := s.Fragment(fid)
		lines := walkLines(f.Patch)
		off := 0
		for _, l := range lines {
			if l.Len == 0 {
				continue
			}
			switch f.Patch[off] {
			case '+':
				fs.Added++
			case '-':
				fs.Deleted++
			}
			off += l.Len
		}
	}
	return fs
}

// SummaryLines renders the textual lines --summary prints for one patch:
// mode changes, creations, deletions, and renames/copies with similarity
// score (spec.md §6).
func SummaryLines(p *Patch) []string {
	var lines []string
	path := resolvedPatchPath(p)
	switch {
	case p.IsNew == Yes:
		lines = append(lines, fmt.Sprintf(" create mode %06o %s", p.NewMode, path))
	case p.IsDelete == Yes:
		lines = append(lines, fmt.Sprintf(" delete mode %06o %s", p.OldMode, p.OldName))
	}
	if p.IsRename {
		lines = append(lines, fmt.Sprintf(" rename %s => %s (%d%%)", p.OldName, p.NewName, p.Score))
	}
	if p.IsCopy {
		lines = append(lines, fmt.Sprintf(" copy %s => %s (%d%%)", p.OldName, p.NewName, p.Score))
	}
	if p.OldMode != 0 && p.NewMode != 0 && p.OldMode != p.NewMode && p.IsNew != Yes && p.IsDelete != Yes {
		lines = append(lines, fmt.Sprintf(" mode change %06o => %06o %s", p.OldMode, p.NewMode, path))
	}
	return lines
}

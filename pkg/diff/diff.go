// Package diff compares a local post against the remote copy after a version conflict.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Report 冲突对比结果
type Report struct {
	// Unified 行级对比文本，"-" 为远端独有，"+" 为本地独有
	Unified    string
	Insertions int
	Deletions  int
}

// HasChanges 两侧内容是否不同
func (r Report) HasChanges() bool {
	return r.Insertions > 0 || r.Deletions > 0
}

// Lines builds a line level diff from remote to local.
func Lines(remote, local string) Report {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(remote, local)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	var r Report
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			prefix = "  "
		}
		for _, line := range splitLines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(line)
			sb.WriteByte('\n')
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				r.Insertions++
			case diffmatchpatch.DiffDelete:
				r.Deletions++
			}
		}
	}
	r.Unified = sb.String()
	return r
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

// Merge replays the local edits (base → local) onto remote.
// clean is false when any hunk could not be applied; merged then holds a
// best-effort result.
// Merge 将本地相对 base 的修改应用到远端内容上
func Merge(base, local, remote string) (merged string, clean bool) {
	if base == remote {
		return local, true
	}
	if base == local {
		return remote, true
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(base, local)
	merged, applied := dmp.PatchApply(patches, remote)

	clean = true
	for _, ok := range applied {
		if !ok {
			clean = false
			break
		}
	}
	return merged, clean
}

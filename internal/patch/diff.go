// Package patch creates and applies unified diffs between generated
// component files and their on-disk counterparts, so local edits survive
// re-expansion.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders the unified diff between the on-disk and freshly generated
// contents of a component. Paths are component-relative; files present on
// only one side diff against empty. The second return reports whether any
// file differs.
func Diff(disk, fresh map[string]string) (string, bool, error) {
	paths := make(map[string]bool, len(disk)+len(fresh))
	for p := range disk {
		paths[p] = true
	}
	for p := range fresh {
		paths[p] = true
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var out strings.Builder
	changed := false
	for _, p := range sorted {
		a, b := fresh[p], disk[p]
		if a == b {
			continue
		}
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        splitLines(a),
			B:        splitLines(b),
			FromFile: "a/" + p,
			ToFile:   "b/" + p,
			Context:  3,
		})
		if err != nil {
			return "", false, fmt.Errorf("diff %s: %w", p, err)
		}
		out.WriteString(text)
		changed = true
	}
	return out.String(), changed, nil
}

// splitLines splits retaining line endings, without the phantom empty line
// difflib.SplitLines appends. A missing final newline is normalized in.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += "\n"
	}
	return lines
}

package patch

import (
	"fmt"
	"strings"
)

// Hunk is one @@ section of a unified diff.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []string // with leading ' ', '-' or '+'
}

// FilePatch collects the hunks for one component-relative path.
type FilePatch struct {
	Path  string
	Hunks []Hunk
}

// Parse reads a unified diff produced by Diff back into per-file hunks.
func Parse(text string) ([]FilePatch, error) {
	var patches []FilePatch
	var cur *FilePatch

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "--- "):
			// the +++ line carries the path we apply to
		case strings.HasPrefix(line, "+++ "):
			path := strings.TrimPrefix(strings.TrimSpace(line[4:]), "b/")
			patches = append(patches, FilePatch{Path: path})
			cur = &patches[len(patches)-1]
		case strings.HasPrefix(line, "@@ "):
			if cur == nil {
				return nil, fmt.Errorf("hunk header before file header: %q", line)
			}
			h, err := parseHunkHeader(line)
			if err != nil {
				return nil, err
			}
			cur.Hunks = append(cur.Hunks, h)
		case line == "":
			// trailing newline
		default:
			if cur == nil || len(cur.Hunks) == 0 {
				return nil, fmt.Errorf("diff line outside a hunk: %q", line)
			}
			if line[0] != ' ' && line[0] != '-' && line[0] != '+' {
				return nil, fmt.Errorf("malformed diff line: %q", line)
			}
			h := &cur.Hunks[len(cur.Hunks)-1]
			h.Lines = append(h.Lines, line)
		}
	}
	if len(patches) == 0 {
		return nil, fmt.Errorf("no file headers found in diff")
	}
	return patches, nil
}

func parseHunkHeader(line string) (Hunk, error) {
	var h Hunk
	header := strings.TrimSuffix(strings.TrimPrefix(line, "@@ "), " @@")
	if _, err := fmt.Sscanf(header, "-%d,%d +%d,%d", &h.OldStart, &h.OldCount, &h.NewStart, &h.NewCount); err != nil {
		// single-line ranges omit the count
		h.OldCount, h.NewCount = 1, 1
		if _, err := fmt.Sscanf(header, "-%d +%d", &h.OldStart, &h.NewStart); err != nil {
			return h, fmt.Errorf("malformed hunk header: %q", line)
		}
	}
	return h, nil
}

// Apply rewrites content with the given hunks. Context and removal lines
// must match the input or an error is returned.
func Apply(content string, hunks []Hunk) (string, error) {
	src := strings.SplitAfter(content, "\n")
	if n := len(src); n > 0 && src[n-1] == "" {
		src = src[:n-1]
	}

	var out []string
	pos := 0 // index into src of the next unconsumed line
	for _, h := range hunks {
		start := h.OldStart - 1
		if h.OldCount == 0 {
			// pure insertion applies after OldStart
			start = h.OldStart
		}
		if start < pos || start > len(src) {
			return "", fmt.Errorf("hunk at line %d does not fit", h.OldStart)
		}
		out = append(out, src[pos:start]...)
		pos = start

		for _, line := range h.Lines {
			body := line[1:] + "\n"
			switch line[0] {
			case ' ', '-':
				if pos >= len(src) || src[pos] != body {
					return "", fmt.Errorf("hunk at line %d does not apply: expected %q", h.OldStart, strings.TrimSuffix(body, "\n"))
				}
				if line[0] == ' ' {
					out = append(out, body)
				}
				pos++
			case '+':
				out = append(out, body)
			}
		}
	}
	out = append(out, src[pos:]...)
	return strings.Join(out, ""), nil
}

// ApplyFiles applies a parsed diff to a set of freshly generated files,
// returning the patched copies. Files the diff doesn't mention pass
// through unchanged.
func ApplyFiles(files map[string]string, patches []FilePatch) (map[string]string, error) {
	patched := make(map[string]string, len(files))
	for p, content := range files {
		patched[p] = content
	}
	for _, fp := range patches {
		content, ok := patched[fp.Path]
		if !ok && len(fp.Hunks) > 0 {
			// diff may add a file that generation no longer produces
			content = ""
		}
		next, err := Apply(content, fp.Hunks)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fp.Path, err)
		}
		patched[fp.Path] = next
	}
	return patched, nil
}

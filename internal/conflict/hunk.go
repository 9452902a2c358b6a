// Package conflict parses and reassembles the standard three-way conflict
// markers git's native merges produce.
package conflict

import "strings"

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerSep    = "======="
	markerTheirs = ">>>>>>>"
)

// Hunk is one contiguous conflicting region delimited by the three-way
// markers. StartLine/EndLine are 0-indexed line numbers into the annotated
// body the hunk was parsed from, inclusive, spanning from the opening
// marker line to the closing marker line.
type Hunk struct {
	StartLine int
	EndLine   int
	OursLines string
	BaseLines string // empty when the body carries no diff3 "|||||||" section
	HasBase   bool
	TheirsLines string
}

// Parse scans body for conflict marker blocks and returns the hunks found,
// left to right, non-overlapping. Lines outside any hunk are not returned;
// callers needing the surrounding text should keep the original body and
// use Reassemble.
func Parse(body string) []Hunk {
	lines := splitKeepingLineBoundaries(body)

	var hunks []Hunk
	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(lines[i], markerOurs) {
			i++
			continue
		}

		start := i
		var ours, base, theirs []string
		hasBase := false
		i++

		for i < len(lines) && !strings.HasPrefix(lines[i], markerBase) && !strings.HasPrefix(lines[i], markerSep) {
			ours = append(ours, lines[i])
			i++
		}

		if i < len(lines) && strings.HasPrefix(lines[i], markerBase) {
			hasBase = true
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], markerSep) {
				base = append(base, lines[i])
				i++
			}
		}

		if i < len(lines) && strings.HasPrefix(lines[i], markerSep) {
			i++
		}

		for i < len(lines) && !strings.HasPrefix(lines[i], markerTheirs) {
			theirs = append(theirs, lines[i])
			i++
		}

		end := i // index of the closing marker line, if present
		if i < len(lines) && strings.HasPrefix(lines[i], markerTheirs) {
			i++
		}

		hunks = append(hunks, Hunk{
			StartLine:   start,
			EndLine:     end,
			OursLines:   strings.Join(ours, ""),
			BaseLines:   strings.Join(base, ""),
			HasBase:     hasBase,
			TheirsLines: strings.Join(theirs, ""),
		})
	}

	return hunks
}

// Reassemble replaces each hunk's full marker block (all four markers and
// the ours/base/theirs slots) with the corresponding resolution text from
// resolutions, preserving every surrounding line byte-for-byte. resolutions
// must have one entry per hunk returned by Parse, in order.
func Reassemble(body string, hunks []Hunk, resolutions []string) string {
	if len(hunks) == 0 {
		return body
	}
	lines := splitKeepingLineBoundaries(body)

	var out strings.Builder
	cursor := 0
	for idx, h := range hunks {
		for cursor < h.StartLine {
			out.WriteString(lines[cursor])
			cursor++
		}
		out.WriteString(resolutions[idx])
		// h.EndLine indexes the closing ">>>>>>>" marker line; resume
		// just past it.
		cursor = h.EndLine + 1
	}
	for cursor < len(lines) {
		out.WriteString(lines[cursor])
		cursor++
	}
	return out.String()
}

// splitKeepingLineBoundaries splits body into lines, each retaining its
// trailing newline (if any) so reassembly is byte-for-byte exact.
func splitKeepingLineBoundaries(body string) []string {
	if body == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(body); i++ {
		if body[i] == '\n' {
			lines = append(lines, body[start:i+1])
			start = i + 1
		}
	}
	if start < len(body) {
		lines = append(lines, body[start:])
	}
	return lines
}

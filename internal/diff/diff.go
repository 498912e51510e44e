// Package diff computes the line changes a prefix rewrite would make to
// a text file, so a relocation can be previewed before it runs.
package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies one line of a hunk.
type LineType int

const (
	LineContext LineType = iota // Unchanged line kept for context
	LineAdded
	LineRemoved
)

// Line is a single line in a hunk.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk is a group of nearby changes with surrounding context.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// contextLines is how much unchanged context each hunk keeps per side.
const contextLines = 3

// Compute returns the hunks between two versions of a file's content.
// Identical content yields no hunks.
func Compute(before, after string) []Hunk {
	if before == after {
		return nil
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	// Line-level reduction avoids newline boundary artifacts when the
	// character diffs are converted back into line operations.
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	return group(toOperations(diffs))
}

// operation is a single line operation with positions in both versions.
// A position of -1 means the line does not exist on that side.
type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func toOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = lines[:n-1]
		}

		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

// group clusters operations into hunks, keeping contextLines of unchanged
// lines around every run of changes.
func group(ops []operation) []Hunk {
	var hunks []Hunk
	var cur *Hunk
	lastChange := -1

	for i, op := range ops {
		if op.typ != LineContext {
			if cur == nil {
				cur = &Hunk{}
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				for j := start; j < i; j++ {
					cur.Lines = append(cur.Lines, Line{
						LineNum: ops[j].oldLine + 1,
						Content: ops[j].content,
						Type:    LineContext,
					})
				}
				cur.OldStart = lineOrZero(ops[start].oldLine)
				cur.NewStart = lineOrZero(ops[start].newLine)
			}
			lastChange = i
		}

		if cur == nil {
			continue
		}

		num := op.oldLine + 1
		if op.typ == LineAdded {
			num = op.newLine + 1
		}
		cur.Lines = append(cur.Lines, Line{LineNum: num, Content: op.content, Type: op.typ})

		// Close the hunk once enough trailing context has accumulated.
		if op.typ == LineContext && i-lastChange > contextLines {
			trim := len(cur.Lines) - (i - lastChange - contextLines)
			if trim > 0 && trim < len(cur.Lines) {
				cur.Lines = cur.Lines[:trim]
			}
			finish(cur)
			hunks = append(hunks, *cur)
			cur = nil
		}
	}

	if cur != nil && len(cur.Lines) > 0 {
		finish(cur)
		hunks = append(hunks, *cur)
	}
	return hunks
}

func lineOrZero(idx int) int {
	if idx < 0 {
		return 0
	}
	return idx + 1
}

func finish(h *Hunk) {
	for _, l := range h.Lines {
		if l.Type != LineAdded {
			h.OldCount++
		}
		if l.Type != LineRemoved {
			h.NewCount++
		}
	}
}

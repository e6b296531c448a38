package diff

import (
	"strings"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// opKind is the type of a single line operation
type opKind int

const (
	opEqual opKind = iota
	opDelete
	opAdd
)

// lineOp is one line of the edit script.
// oldPos and newPos count the lines of each side consumed before this op.
type lineOp struct {
	kind    opKind
	oldPos  int
	newPos  int
	content string // includes the trailing "\n" when present
}

// diffTimeout bounds the Myers search on pathological inputs.
// Past the deadline the result is still a valid, if less minimal, edit script.
const diffTimeout = 5 * time.Second

// computeLineOps produces a line-level edit script turning before into after.
// Lines keep their terminators so that a missing final newline is a real change.
func computeLineOps(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = diffTimeout

	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var ops []lineOp
	oldPos, newPos := 0, 0
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			op := lineOp{oldPos: oldPos, newPos: newPos, content: line}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				op.kind = opEqual
				oldPos++
				newPos++
			case diffmatchpatch.DiffDelete:
				op.kind = opDelete
				oldPos++
			case diffmatchpatch.DiffInsert:
				op.kind = opAdd
				newPos++
			}
			ops = append(ops, op)
		}
	}
	return ops
}

// splitLines splits text into lines, each keeping its "\n" terminator.
// A final line without a newline is kept as-is.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// groupIntoHunks groups the edit script into hunks with context lines.
// Changes separated by no more than 2*contextLines equal lines share a hunk.
func groupIntoHunks(ops []lineOp, contextLines int) []DiffHunk {
	var hunks []DiffHunk

	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].kind == opEqual {
			i++
		}
		if i >= len(ops) {
			break
		}

		start := maxInt(0, i-contextLines)
		end := i + 1 // exclusive end of the last change in this hunk
		j := i + 1
		for j < len(ops) {
			if ops[j].kind != opEqual {
				j++
				end = j
				continue
			}
			k := j
			for k < len(ops) && ops[k].kind == opEqual {
				k++
			}
			if k == len(ops) || k-j > 2*contextLines {
				break
			}
			j = k
		}

		stop := minInt(len(ops), end+contextLines)
		hunks = append(hunks, buildHunk(ops[start:stop]))
		i = stop
	}

	return hunks
}

// buildHunk converts a run of ops into a DiffHunk with unified-diff line ranges
func buildHunk(ops []lineOp) DiffHunk {
	first := ops[0]
	hunk := DiffHunk{
		OldStart: first.oldPos + 1,
		NewStart: first.newPos + 1,
		Lines:    make([]DiffLine, 0, len(ops)),
	}

	for _, op := range ops {
		if op.kind != opAdd {
			hunk.OldLines++
		}
		if op.kind != opDelete {
			hunk.NewLines++
		}
		hunk.Lines = append(hunk.Lines, opToDiffLine(op))
	}

	// An empty range points at the line before it, as GNU diff prints it
	if hunk.OldLines == 0 {
		hunk.OldStart = first.oldPos
	}
	if hunk.NewLines == 0 {
		hunk.NewStart = first.newPos
	}
	return hunk
}

// opToDiffLine converts a diff operation to a DiffLine.
func opToDiffLine(op lineOp) DiffLine {
	content := strings.TrimSuffix(op.content, "\n")
	line := DiffLine{
		Content:   content,
		NoNewline: content == op.content,
	}

	oldLine := op.oldPos + 1
	newLine := op.newPos + 1
	switch op.kind {
	case opEqual:
		line.Type = "context"
		line.OldLine = &oldLine
		line.NewLine = &newLine
	case opDelete:
		line.Type = "delete"
		line.OldLine = &oldLine
	case opAdd:
		line.Type = "add"
		line.NewLine = &newLine
	}

	return line
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

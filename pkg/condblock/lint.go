package condblock

import (
	"fmt"
	"strings"
)

// IssueCode classifies a Lint finding.
type IssueCode string

const (
	IssueUnterminated IssueCode = "unterminated"
	IssueStrayClose   IssueCode = "stray-close"
	IssueNested       IssueCode = "nested"
	IssueEmptyID      IssueCode = "empty-condition"
	IssueDuplicateID  IssueCode = "duplicate-condition"
)

// Issue is a suspicious construct found by Lint. Issues never change how
// Parse treats the text; they point at places where the author probably
// meant something else.
type Issue struct {
	// Line is 1-based, relative to the linted text.
	Line      int
	Code      IssueCode
	Condition string
}

func (i Issue) String() string {
	switch i.Code {
	case IssueUnterminated:
		return fmt.Sprintf("line %d: %s opener has no matching %s and is kept as literal text", i.Line, openMarker, closeMarker)
	case IssueStrayClose:
		return fmt.Sprintf("line %d: %s without an open block is kept as literal text", i.Line, closeMarker)
	case IssueNested:
		return fmt.Sprintf("line %d: nested %s is part of the enclosing block body", i.Line, openMarker)
	case IssueEmptyID:
		return fmt.Sprintf("line %d: conditional block has no condition identifier", i.Line)
	case IssueDuplicateID:
		return fmt.Sprintf("line %d: condition %q is used by more than one block and shares one decision", i.Line, i.Condition)
	default:
		return fmt.Sprintf("line %d: %s", i.Line, i.Code)
	}
}

// Lint reports constructs that Parse silently treats as literal text,
// plus empty and repeated condition identifiers.
func Lint(text string) []Issue {
	lines := strings.Split(text, "\n")

	var issues []Issue
	seen := make(map[string]bool)
	inBlock := false

	for n, line := range lines {
		switch {
		case strings.HasPrefix(line, openMarker) && inBlock:
			issues = append(issues, Issue{Line: n + 1, Code: IssueNested})

		case strings.HasPrefix(line, openMarker):
			if n == len(lines)-1 || !hasCloserAfter(lines, n) {
				issues = append(issues, Issue{Line: n + 1, Code: IssueUnterminated})
				continue
			}
			inBlock = true
			id := strings.TrimSpace(line[len(openMarker):])
			if id == "" {
				issues = append(issues, Issue{Line: n + 1, Code: IssueEmptyID})
			}
			if seen[id] {
				issues = append(issues, Issue{Line: n + 1, Code: IssueDuplicateID, Condition: id})
			}
			seen[id] = true

		case strings.HasPrefix(line, closeMarker) && inBlock:
			inBlock = false

		case strings.HasPrefix(line, closeMarker):
			issues = append(issues, Issue{Line: n + 1, Code: IssueStrayClose})
		}
	}

	return issues
}

func hasCloserAfter(lines []string, n int) bool {
	for _, l := range lines[n+1:] {
		if strings.HasPrefix(l, closeMarker) {
			return true
		}
	}
	return false
}

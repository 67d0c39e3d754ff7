package errors

import "fmt"

// Position represents a location in a scenario or config file.
// Line and Column are 1-based; the zero Position means "unknown".
type Position struct {
	File   string // Path of the file, empty for inline input
	Line   int    // 1-based line number
	Column int    // 1-based column number
}

// IsValid reports whether the position carries a line number
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	switch {
	case !p.IsValid() && p.File == "":
		return "<unknown>"
	case !p.IsValid():
		return p.File
	case p.File == "":
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	default:
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
}

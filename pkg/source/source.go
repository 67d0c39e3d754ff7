package source

import (
	"path/filepath"
	"strings"
)

// Names used for input that does not come from a file
const (
	ReplName = "<repl>"
	EvalName = "<eval>"
)

// SourceFile is the text of a scenario or a single step, kept for error display
type SourceFile struct {
	Name    string // Display name (e.g., "objects.yaml", "<repl>")
	Path    string // Full file path (empty for REPL/eval)
	Content string
	lines   []string // Cached split lines (lazy initialization)
}

// FromFile creates a SourceFile from a file path and content
func FromFile(filePath, content string) *SourceFile {
	return &SourceFile{Name: filepath.Base(filePath), Path: filePath, Content: content}
}

// NewReplSource wraps one line typed at the REPL
func NewReplSource(content string) *SourceFile {
	return &SourceFile{Name: ReplName, Content: content}
}

// NewEvalSource wraps a step given on the command line
func NewEvalSource(content string) *SourceFile {
	return &SourceFile{Name: EvalName, Content: content}
}

// Lines returns the source split into lines (cached)
func (sf *SourceFile) Lines() []string {
	if sf.lines == nil {
		sf.lines = strings.Split(sf.Content, "\n")
	}
	return sf.lines
}

// Line returns the 1-based line n, or "" when out of range
func (sf *SourceFile) Line(n int) string {
	lines := sf.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[n-1], "\r")
}

// DisplayPath returns the best path for display (prefers Path, falls back to Name)
func (sf *SourceFile) DisplayPath() string {
	if sf.Path != "" {
		return sf.Path
	}
	return sf.Name
}

// IsFile returns true if this represents an actual file (has a path)
func (sf *SourceFile) IsFile() bool {
	return sf.Path != ""
}

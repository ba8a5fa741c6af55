// Package editor defines the contract the core engine uses to read and
// mutate the buffer it was invoked against, plus an in-memory
// implementation used by tests and by the pkg/mcpserver tool handlers,
// which operate on request content rather than a live editor session.
package editor

// Editor is the consumed interface described in the editor contract. Line
// indices are 1-based throughout; AppendLine(0, t) prepends.
type Editor interface {
	CurrentWord() string
	PathToCurrentFile() string
	CurrentFileContent() string
	CountLines() int
	ReadLine(index int) string
	AppendLine(afterIndex int, text string)
	DeleteLine(index int)
	Cursor() (row, col int)
	SetCursor(row, col int)
	OpenFile(path string)
	Message(text string)
	// AskForSelection returns the chosen index and true, or false if the
	// user dismissed the prompt.
	AskForSelection(name string, choices []string) (int, bool)
	MaxLineLength() int
	Tab() string
}

package editor

import "strings"

// Buffer is an in-memory Editor backed by a line slice. It is used by unit
// tests and by the pkg/mcpserver tool handlers, which build one per call
// from the request's file path and content.
type Buffer struct {
	Lines         []string
	FilePath      string
	Word          string
	Row, Col      int
	MaxLen        int
	TabStr        string
	Messages      []string
	OpenedPaths   []string
	SelectionFunc func(name string, choices []string) (int, bool)
}

// NewBuffer splits content on "\n" into lines and returns a ready Buffer
// with sensible defaults (100-column wrap, two-space tab).
func NewBuffer(path, content string) *Buffer {
	return &Buffer{
		Lines:    strings.Split(content, "\n"),
		FilePath: path,
		MaxLen:   100,
		TabStr:   "  ",
	}
}

func (b *Buffer) CurrentWord() string       { return b.Word }
func (b *Buffer) PathToCurrentFile() string { return b.FilePath }
func (b *Buffer) CurrentFileContent() string {
	return strings.Join(b.Lines, "\n")
}
func (b *Buffer) CountLines() int { return len(b.Lines) }

func (b *Buffer) ReadLine(index int) string {
	if index < 1 || index > len(b.Lines) {
		return ""
	}
	return b.Lines[index-1]
}

func (b *Buffer) AppendLine(afterIndex int, text string) {
	if afterIndex < 0 {
		afterIndex = 0
	}
	if afterIndex > len(b.Lines) {
		afterIndex = len(b.Lines)
	}
	b.Lines = append(b.Lines[:afterIndex:afterIndex], append([]string{text}, b.Lines[afterIndex:]...)...)
}

func (b *Buffer) DeleteLine(index int) {
	if index < 1 || index > len(b.Lines) {
		return
	}
	b.Lines = append(b.Lines[:index-1:index-1], b.Lines[index:]...)
}

func (b *Buffer) Cursor() (int, int)     { return b.Row, b.Col }
func (b *Buffer) SetCursor(row, col int) { b.Row, b.Col = row, col }
func (b *Buffer) OpenFile(path string)   { b.OpenedPaths = append(b.OpenedPaths, path) }
func (b *Buffer) Message(text string)    { b.Messages = append(b.Messages, text) }

func (b *Buffer) AskForSelection(name string, choices []string) (int, bool) {
	if b.SelectionFunc != nil {
		return b.SelectionFunc(name, choices)
	}
	if len(choices) == 0 {
		return 0, false
	}
	return 0, true
}

func (b *Buffer) MaxLineLength() int { return b.MaxLen }
func (b *Buffer) Tab() string        { return b.TabStr }

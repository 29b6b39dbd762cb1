package parser

import "strings"

// Edit says how a classified line changed the output text.
type Edit int

const (
	// EditAppend added the line at the end.
	EditAppend Edit = iota

	// EditReplace swapped the final line for the new one.
	EditReplace
)

// String returns a human-readable name for the edit.
func (e Edit) String() string {
	if e == EditReplace {
		return "replace"
	}
	return "append"
}

// lineSink is the output text a classifier edits.
type lineSink interface {
	AppendLine(line string)
	ReplaceLastLine(line string)
	EndsWithLine(line string) bool
}

// Transcript is newline-terminated tool output that grows in place.
//
// Appending is amortized constant time and the final line can be replaced
// without copying what precedes it. The zero value is empty and ready.
type Transcript struct {
	buf  []byte
	last int // offset of the final line
}

// AppendLine adds line and its terminator.
func (t *Transcript) AppendLine(line string) {
	t.last = len(t.buf)
	t.buf = append(t.buf, line...)
	t.buf = append(t.buf, '\n')
}

// ReplaceLastLine swaps the final line for line, or appends when empty.
func (t *Transcript) ReplaceLastLine(line string) {
	t.buf = t.buf[:t.last]
	t.AppendLine(line)
}

// EndsWithLine reports whether the final line equals line.
func (t *Transcript) EndsWithLine(line string) bool {
	return len(t.buf) > 0 && string(t.buf[t.last:len(t.buf)-1]) == line
}

// SetText replaces the whole transcript with newline-terminated text.
func (t *Transcript) SetText(text string) {
	t.buf = append(t.buf[:0], text...)
	body := strings.TrimSuffix(text, "\n")
	t.last = strings.LastIndexByte(body, '\n') + 1
}

// Reset empties the transcript, keeping its storage.
func (t *Transcript) Reset() {
	t.buf = t.buf[:0]
	t.last = 0
}

// Len returns the size in bytes.
func (t *Transcript) Len() int {
	return len(t.buf)
}

// String returns a copy of the text.
func (t *Transcript) String() string {
	return string(t.buf)
}

// textSink adapts the string form of the classifier API.
type textSink struct {
	text string
}

func (s *textSink) AppendLine(line string) {
	s.text += line + "\n"
}

func (s *textSink) ReplaceLastLine(line string) {
	body := strings.TrimSuffix(s.text, "\n")
	s.text = s.text[:strings.LastIndexByte(body, '\n')+1] + line + "\n"
}

func (s *textSink) EndsWithLine(line string) bool {
	prev := line + "\n"
	if !strings.HasSuffix(s.text, prev) {
		return false
	}
	head := s.text[:len(s.text)-len(prev)]
	return head == "" || strings.HasSuffix(head, "\n")
}

package process

import (
	"bytes"
	"errors"
)

// ScanLines is a bufio.SplitFunc that splits on "\n", "\r\n" and a bare "\r".
//
// cdrecord redraws its progress line with carriage returns, so a plain
// bufio.ScanLines would glue hundreds of progress ticks into one line.
// A trailing "\r" at the end of the buffer is held back until the next byte
// shows whether it starts a "\r\n" pair.
func ScanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}

	// Final line without terminator
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// TruncatedSuffix marks a line cut at the length limit.
const TruncatedSuffix = "...(truncated)"

// ErrLineTooLong is the read error of a run that had at least one line cut.
var ErrLineTooLong = errors.New("output line too long")

// lineSplitter is ScanLines with a length cap. The scanner's buffer must
// hold at least max+1 bytes so an over-long line is seen before it fills. A line longer than max is
// delivered as its first max bytes plus TruncatedSuffix; the rest of it, up
// to and including the next terminator, is dropped and scanning goes on.
type lineSplitter struct {
	max       int
	skipping  bool
	truncated int
}

func newLineSplitter(max int) *lineSplitter {
	return &lineSplitter{max: max}
}

// Split is a bufio.SplitFunc.
func (s *lineSplitter) Split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if s.skipping {
		return s.skip(data, atEOF)
	}

	advance, token, err = ScanLines(data, atEOF)
	if err != nil || advance > 0 {
		if len(token) > s.max {
			return advance, s.cut(token), nil
		}
		return advance, token, err
	}

	// No terminator within the limit
	if len(data) > s.max {
		s.skipping = true
		return s.max, s.cut(data), nil
	}
	return 0, nil, nil
}

// Truncated returns the number of lines cut so far.
func (s *lineSplitter) Truncated() int {
	return s.truncated
}

func (s *lineSplitter) cut(data []byte) []byte {
	s.truncated++
	out := make([]byte, 0, s.max+len(TruncatedSuffix))
	out = append(out, data[:s.max]...)
	return append(out, TruncatedSuffix...)
}

// skip drops the tail of a cut line through its terminator.
func (s *lineSplitter) skip(data []byte, atEOF bool) (int, []byte, error) {
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		return len(data), nil, nil
	case data[i] == '\n':
		s.skipping = false
		return i + 1, nil, nil
	case i+1 < len(data):
		s.skipping = false
		if data[i+1] == '\n' {
			return i + 2, nil, nil
		}
		return i + 1, nil, nil
	case atEOF:
		s.skipping = false
		return i + 1, nil, nil
	default:
		// hold the "\r" until the next byte shows whether "\n" follows
		return i, nil, nil
	}
}

package speech

import (
	"bufio"
	"context"
	"io"
	"sync"
)

// LineRecognizer treats each line of a reader as one utterance. It stands in
// for a microphone in the terminal simulator.
type LineRecognizer struct {
	once  sync.Once
	r     io.Reader
	lines chan string
	err   error
}

// NewLineRecognizer reads utterances from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{r: r, lines: make(chan string)}
}

// Listen implements Recognizer. It returns io.EOF after the last line.
func (l *LineRecognizer) Listen(ctx context.Context, _ string) (string, error) {
	l.once.Do(func() { go l.read() })
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-l.lines:
		if !ok {
			if l.err != nil {
				return "", l.err
			}
			return "", io.EOF
		}
		return line, nil
	}
}

func (l *LineRecognizer) read() {
	defer close(l.lines)
	sc := bufio.NewScanner(l.r)
	for sc.Scan() {
		l.lines <- sc.Text()
	}
	l.err = sc.Err()
}

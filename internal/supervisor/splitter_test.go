package supervisor

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func collectLines(t *testing.T, input string) []string {
	t.Helper()
	var lines []string
	if err := splitLines(strings.NewReader(input), func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("splitLines failed: %v", err)
	}
	return lines
}

func TestSplitLinesBasic(t *testing.T) {
	lines := collectLines(t, "one\ntwo\nthree\n")
	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSplitLinesStripsCarriageReturn(t *testing.T) {
	lines := collectLines(t, "one\r\ntwo\r\n")
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("CRLF lines not stripped: %v", lines)
	}
}

func TestSplitLinesEmitsFinalPartialLine(t *testing.T) {
	lines := collectLines(t, "complete\npartial")
	if len(lines) != 2 || lines[1] != "partial" {
		t.Errorf("final partial line not emitted: %v", lines)
	}
}

func TestSplitLinesEmptyStream(t *testing.T) {
	if lines := collectLines(t, ""); len(lines) != 0 {
		t.Errorf("expected no lines for empty stream, got %v", lines)
	}
}

func TestSplitLinesOversizedLineEndsCapture(t *testing.T) {
	oversized := strings.Repeat("x", maxLineBytes+1)
	var lines []string
	err := splitLines(strings.NewReader("ok\n"+oversized+"\nnever\n"), func(line string) {
		lines = append(lines, line)
	})
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Fatalf("err = %v, want bufio.ErrTooLong", err)
	}
	// Lines completed before the oversized one are delivered; nothing after.
	if len(lines) != 1 || lines[0] != "ok" {
		t.Errorf("lines = %v, want only the line before the oversized one", lines)
	}
}

// errReader fails after yielding some data.
type errReader struct {
	data string
	read bool
}

func (r *errReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("stream aborted")
}

func TestSplitLinesSurfacesStreamError(t *testing.T) {
	var lines []string
	err := splitLines(&errReader{data: "before\n"}, func(line string) {
		lines = append(lines, line)
	})
	if err == nil {
		t.Fatal("expected stream error, got nil")
	}
	if len(lines) != 1 || lines[0] != "before" {
		t.Errorf("lines before the error should be delivered: %v", lines)
	}
}

// pipeWriter delivers chunks with delays to verify incremental emission.
func TestSplitLinesEmitsIncrementally(t *testing.T) {
	pr, pw := newBlockingPipe()
	got := make(chan string, 4)

	go func() {
		_ = splitLines(pr, func(line string) { got <- line })
		close(got)
	}()

	pw.write("first\n")
	select {
	case line := <-got:
		if line != "first" {
			t.Errorf("line = %q, want %q", line, "first")
		}
	case <-time.After(time.Second):
		t.Fatal("line not emitted before stream end")
	}

	pw.write("second\n")
	pw.close()

	if line := <-got; line != "second" {
		t.Errorf("line = %q, want %q", line, "second")
	}
}

type blockingPipe struct {
	ch chan []byte
}

func newBlockingPipe() (*blockingPipe, *blockingPipe) {
	p := &blockingPipe{ch: make(chan []byte)}
	return p, p
}

func (p *blockingPipe) Read(b []byte) (int, error) {
	data, ok := <-p.ch
	if !ok {
		return 0, io.EOF
	}
	return copy(b, data), nil
}

func (p *blockingPipe) write(s string) { p.ch <- []byte(s) }
func (p *blockingPipe) close()         { close(p.ch) }

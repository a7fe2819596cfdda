package supervisor

import (
	"bufio"
	"io"
)

// An output line longer than this ends the capture of its stream: the
// scanner reports bufio.ErrTooLong and stops. Tunnel servers do not
// normally emit lines anywhere near this size.
const maxLineBytes = 1024 * 1024

// splitLines incrementally consumes the byte stream r and emits each
// LF-terminated line to sink, with the trailing CR stripped. A non-empty
// partial line at stream end is emitted once as the final line. The whole
// stream is never buffered; the sink is called as each line completes.
//
// splitLines is channel-agnostic: tagging lines with their originating
// stream is the caller's responsibility.
func splitLines(r io.Reader, sink func(line string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		sink(scanner.Text())
	}
	return scanner.Err()
}

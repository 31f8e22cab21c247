package supervisor

import (
	"bytes"

	"github.com/rs/zerolog"
)

// maxLine bounds a buffered partial line so a child that never writes a
// newline cannot grow the buffer without limit.
const maxLine = 64 * 1024

// lineWriter forwards complete lines of a child stream to the log.
type lineWriter struct {
	log   zerolog.Logger
	level zerolog.Level
	buf   []byte
}

func newLineWriter(log zerolog.Logger, stream string, level zerolog.Level) *lineWriter {
	return &lineWriter{
		log:   log.With().Str("stream", stream).Logger(),
		level: level,
	}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	if len(w.buf) > maxLine {
		w.emit(w.buf)
		w.buf = nil
	}
	return len(p), nil
}

// Flush emits a trailing line that had no newline.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *lineWriter) emit(line []byte) {
	line = bytes.TrimRight(line, "\r")
	if len(line) == 0 {
		return
	}
	w.log.WithLevel(w.level).Msg(string(line))
}

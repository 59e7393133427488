package progress

import "bytes"

// LineWriter adapts an Estimator to io.Writer so it can sit directly on an
// encode process's output pipe. Encoders rewrite their status line with \r,
// so both \n and \r terminate a line.
type LineWriter struct {
	est *Estimator
	buf bytes.Buffer
}

func NewLineWriter(est *Estimator) *LineWriter {
	return &LineWriter{est: est}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		b := w.buf.Bytes()
		i := bytes.IndexAny(b, "\r\n")
		if i < 0 {
			break
		}
		line := string(b[:i])
		w.buf.Next(i + 1)
		if line != "" {
			w.est.Feed(line)
		}
	}
	return len(p), nil
}

// Flush feeds any unterminated trailing text as a final line.
func (w *LineWriter) Flush() {
	if w.buf.Len() > 0 {
		w.est.Feed(w.buf.String())
		w.buf.Reset()
	}
}

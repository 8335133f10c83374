package testhelpers

import (
	"io"
	"strings"
	"testing"
)

// Writer sends log output to t.Log so that it is only shown for failing tests.
//
// Writing after the test has completed panics. A late write means a goroutine outlived the test, typically a server
// that was not shut down or a sqlite.Database that was not closed.
type Writer struct {
	t        *testing.T
	testDone chan struct{}
}

func NewWriter(t *testing.T) io.Writer {
	w := &Writer{
		t:        t,
		testDone: make(chan struct{}),
	}
	t.Cleanup(func() {
		close(w.testDone)
	})
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	select {
	case <-w.testDone:
		panic("testwriter: write after " + w.t.Name() + " completed; shut down servers and close databases in t.Cleanup")
	default:
		// t.Log adds its own newline.
		if output := strings.TrimSuffix(string(p), "\n"); output != "" {
			w.t.Log(output)
		}
		return len(p), nil
	}
}

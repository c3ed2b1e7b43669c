package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// asyncWriter decouples log emission from sink I/O. Lines are queued and a
// single goroutine fans them out, so a slow disk sink never stalls a
// webhook request.
type asyncWriter struct {
	lines chan []byte
	flush chan chan error
	done  chan struct{}

	closeOnce sync.Once
	sinks     []*bufio.Writer
	// first write error, sticky for the lifetime of the writer
	err atomic.Pointer[error]
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		flush: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.run()
	return w
}

// run owns the sinks; no other goroutine touches them.
func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.flushSinks()
				return
			}
			w.writeLine(line)
		case ack := <-w.flush:
			ack <- w.flushSinks()
		}
	}
}

// Write copies p and queues it; a full queue blocks instead of dropping.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.loadErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.lines <- line
	return nil
}

// Flush pushes buffered content out to every sink and waits for it.
func (w *asyncWriter) Flush() error {
	if err := w.loadErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flush <- ack
	return <-ack
}

// Close drains the queue, flushes the sinks, and reports the first write
// error seen over the writer's lifetime.
func (w *asyncWriter) Close() error {
	w.closeOnce.Do(func() { close(w.lines) })
	<-w.done
	return w.loadErr()
}

func (w *asyncWriter) writeLine(line []byte) {
	if len(line) == 0 {
		return
	}
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			w.storeErr(err)
			return
		}
		if err := sink.Flush(); err != nil {
			w.storeErr(err)
			return
		}
	}
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	w.storeErr(err)
	return err
}

func (w *asyncWriter) loadErr() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (w *asyncWriter) storeErr(err error) {
	if err == nil {
		return
	}
	w.err.CompareAndSwap(nil, &err)
}

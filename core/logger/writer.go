package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// asyncWriter moves log lines off the caller's goroutine and fans them out to
// every sink. Sinks are flushed whenever the queue runs dry.
type asyncWriter struct {
	queue    chan []byte
	flushReq chan chan error
	done     chan struct{}

	state  sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error

	sinks []*bufio.Writer
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		queue:    make(chan []byte, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
	}
	for _, out := range writers {
		if out != nil {
			w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
		}
	}
	go w.loop()
	return w
}

// loop owns the sinks; nothing else touches them.
func (w *asyncWriter) loop() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.keepErr(w.flushSinks())
				return
			}
			w.keepErr(w.writeSinks(line))
			if len(w.queue) == 0 {
				w.keepErr(w.flushSinks())
			}
		case ack := <-w.flushReq:
			ack <- w.flushSinks()
		}
	}
}

// Write copies p and enqueues it. A full queue blocks rather than dropping
// lines; writes after Close are discarded.
func (w *asyncWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.state.RLock()
	defer w.state.RUnlock()
	if w.closed {
		return nil
	}
	w.queue <- append([]byte(nil), p...)
	return w.firstErr()
}

// Flush waits until everything enqueued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flushReq <- ack:
		return <-ack
	case <-w.done:
		return w.firstErr()
	}
}

// Close drains the queue and reports the first write error.
func (w *asyncWriter) Close() error {
	w.state.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.state.Unlock()
	<-w.done
	return w.firstErr()
}

func (w *asyncWriter) writeSinks(p []byte) error {
	var errs []error
	for _, sink := range w.sinks {
		if _, err := sink.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) flushSinks() error {
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) keepErr(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

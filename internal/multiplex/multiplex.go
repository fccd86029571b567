// Package multiplex implements a non-blocking HTTP transfer driver: many
// in-flight requests progressed from a single event loop, with readiness
// (FDSet/Timeout), progress (Perform), completion harvest (InfoRead), and
// cancellation (CancelAll) — the Go analogue of the curl_multi handle an
// equivalent C implementation would wrap (http_multi.h / http_multi_info.c).
//
// Go has no portable way to pull net/http's underlying socket fds out for a
// caller-driven select() loop, so this adapts the contract rather than
// replicating it byte-for-byte: each transfer runs on its own goroutine, and
// FDSet exports a single real, OS-level descriptor — the read end of a
// self-pipe — that a caller's own select/poll/epoll loop can watch for
// wakeups. Perform and InfoRead still do all of their work synchronously on
// the calling goroutine, preserving the "callbacks execute synchronously
// inside perform/info-read" invariant.
package multiplex

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// StatusType categorizes a finished transfer, mirroring ik_http_status_type_t.
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusClientError StatusType = "client-error"
	StatusServerError StatusType = "server-error"
	StatusNetworkError StatusType = "network-error"
)

// Request describes a single HTTP transfer to enqueue.
type Request struct {
	URL     string
	Method  string
	Headers http.Header
	Body    []byte
}

// Completion is passed to a transfer's completion callback exactly once.
type Completion struct {
	Type         StatusType
	HTTPStatus   int
	Err          error
	Message      string
	ResponseBody []byte
	Headers      http.Header
}

// WriteFunc receives response body chunks in arrival order. Returning an
// error aborts the transfer — libcurl's write callback signals the same
// thing by returning less than the offered length; a plain error return
// says it more directly since a chunk is always consumed atomically here.
type WriteFunc func(chunk []byte) error

// CompletionFunc is invoked exactly once per transfer, from InfoRead, never
// from the transfer's own goroutine.
type CompletionFunc func(Completion)

// transfer is the Go analogue of active_request_t.
type transfer struct {
	id       int
	cancel   context.CancelFunc
	chunks   chan []byte
	done     chan Completion
	write    WriteFunc
	onDone   CompletionFunc
	streamed bool // true when a WriteFunc was supplied (streaming transfer)
}

// Multi is the Go multiplex handle. The zero value is not usable; construct
// with New.
type Multi struct {
	mu        sync.Mutex
	transfers map[int]*transfer
	nextID    int

	pipeRead  int
	pipeWrite int

	logger *slog.Logger
}

// New constructs a Multi with its wakeup self-pipe open. logger receives a
// line per transfer InfoRead harvests (completion category, HTTP status);
// a nil logger falls back to slog.Default(), the same convention
// obslog.FromContext follows. Callers should Close the Multi when it is no longer needed to
// release the pipe fds.
func New(logger *slog.Logger) (*Multi, error) {
	var p [2]int
	if err := pipe2(&p); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(p[0], true); err != nil {
		return nil, err
	}
	if err := unix.SetNonblock(p[1], true); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Multi{
		transfers: make(map[int]*transfer),
		pipeRead:  p[0],
		pipeWrite: p[1],
		logger:    logger,
	}, nil
}

// SetLogger replaces the logger InfoRead reports transfer completions to.
func (m *Multi) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

func pipe2(p *[2]int) error {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, 0); err != nil {
		return err
	}
	p[0], p[1] = fds[0], fds[1]
	return nil
}

// Close releases the self-pipe's descriptors.
func (m *Multi) Close() error {
	_ = unix.Close(m.pipeWrite)
	return unix.Close(m.pipeRead)
}

// ReadFD returns the self-pipe's read end: the single real descriptor
// FDSet merges into a caller's readiness set.
func (m *Multi) ReadFD() int {
	return m.pipeRead
}

// FDSet merges the multiplex's wakeup descriptor into readFDs. maxFD is set
// to -1 when there is no active transfer ("no active socket"), or to the
// self-pipe's fd otherwise.
func (m *Multi) FDSet(readFDs map[int]struct{}) (maxFD int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.transfers) == 0 {
		return -1
	}
	readFDs[m.pipeRead] = struct{}{}
	return m.pipeRead
}

// Timeout reports how long the caller may sleep in its readiness wait.
// -1 means "no timeout hint — may wait indefinitely", matching the original
// CURLM_NO_TIMEOUT case. This adaptation has no protocol-level timer to
// consult (net/http drives its own deadlines); a short, fixed poll interval
// is returned whenever transfers are outstanding so that a caller using a
// plain sleep-loop (rather than real select() on ReadFD) still makes
// progress promptly.
func (m *Multi) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.transfers) == 0 {
		return -1
	}
	return 50 * time.Millisecond
}

// Add enqueues a transfer and returns immediately; the transfer's network
// I/O runs on its own goroutine. write may be nil for non-streaming
// requests (the multiplex buffers the full body itself). onDone is invoked
// exactly once, from InfoRead.
func (m *Multi) Add(ctx context.Context, client *http.Client, req Request, write WriteFunc, onDone CompletionFunc) {
	if client == nil {
		client = http.DefaultClient
	}

	transferCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	t := &transfer{
		id:       id,
		cancel:   cancel,
		chunks:   make(chan []byte, 64),
		done:     make(chan Completion, 1),
		write:    write,
		onDone:   onDone,
		streamed: write != nil,
	}
	m.transfers[id] = t
	m.mu.Unlock()

	go m.run(transferCtx, client, req, t)
}

// run performs the actual HTTP transfer on its own goroutine. It never
// invokes write or onDone directly — it only pushes onto t.chunks / t.done
// and wakes the self-pipe, so callbacks still execute on whichever
// goroutine calls Perform/InfoRead.
func (m *Multi) run(ctx context.Context, client *http.Client, req Request, t *transfer) {
	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		t.done <- Completion{Type: StatusNetworkError, Err: err, Message: err.Error()}
		m.wake()
		return
	}
	httpReq.Header = req.Headers

	resp, err := client.Do(httpReq)
	if err != nil {
		t.done <- Completion{Type: StatusNetworkError, Err: err, Message: err.Error()}
		m.wake()
		return
	}
	defer resp.Body.Close()

	var bodyBuf bytes.Buffer
	readBuf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(readBuf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, readBuf[:n])
			if t.streamed {
				t.chunks <- chunk
				m.wake()
			} else {
				bodyBuf.Write(chunk)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			t.done <- Completion{Type: StatusNetworkError, Err: readErr, Message: readErr.Error()}
			m.wake()
			return
		}
	}

	t.done <- categorize(resp.StatusCode, bodyBuf.Bytes(), resp.Header)
	m.wake()
}

func categorize(status int, body []byte, headers http.Header) Completion {
	switch {
	case status >= 200 && status < 300:
		return Completion{Type: StatusSuccess, HTTPStatus: status, ResponseBody: body, Headers: headers}
	case status >= 400 && status < 500:
		return Completion{Type: StatusClientError, HTTPStatus: status, Message: "HTTP client error", ResponseBody: body, Headers: headers}
	case status >= 500 && status < 600:
		return Completion{Type: StatusServerError, HTTPStatus: status, Message: "HTTP server error", ResponseBody: body, Headers: headers}
	default:
		return Completion{Type: StatusNetworkError, HTTPStatus: status, Message: "unexpected HTTP response code", ResponseBody: body, Headers: headers}
	}
}

func (m *Multi) wake() {
	_, _ = unix.Write(m.pipeWrite, []byte{0})
}

func (m *Multi) drainPipe() {
	buf := make([]byte, 64)
	for {
		n, err := unix.Read(m.pipeRead, buf)
		if n <= 0 || err != nil {
			return
		}
	}
}

// Perform progresses every in-flight transfer: it drains each streaming
// transfer's pending chunks (invoking write synchronously, on the calling
// goroutine) and drains the wakeup pipe. It returns the number of transfers
// still in flight.
func (m *Multi) Perform() (stillRunning int, err error) {
	m.drainPipe()

	m.mu.Lock()
	ts := make([]*transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		ts = append(ts, t)
	}
	m.mu.Unlock()

	for _, t := range ts {
	drain:
		for {
			select {
			case chunk := <-t.chunks:
				if t.write != nil {
					if werr := t.write(chunk); werr != nil {
						t.cancel()
					}
				}
			default:
				break drain
			}
		}
	}

	m.mu.Lock()
	stillRunning = len(m.transfers)
	m.mu.Unlock()
	return stillRunning, nil
}

// InfoRead harvests every transfer whose completion has arrived, invokes its
// completion callback exactly once (synchronously, on the calling
// goroutine), and removes the transfer record. Callback ordering among
// simultaneously-completed transfers is unspecified.
func (m *Multi) InfoRead() {
	m.mu.Lock()
	ts := make([]*transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		ts = append(ts, t)
	}
	m.mu.Unlock()

	for _, t := range ts {
		select {
		case completion := <-t.done:
			// Drain any remaining chunks that arrived before completion.
			for {
				select {
				case chunk := <-t.chunks:
					if t.write != nil {
						_ = t.write(chunk)
					}
				default:
					goto drained
				}
			}
		drained:
			m.logger.Debug("transfer completed", "transfer_id", t.id, "status_type", completion.Type, "http_status", completion.HTTPStatus)
			if t.onDone != nil {
				t.onDone(completion)
			}
			m.mu.Lock()
			delete(m.transfers, t.id)
			m.mu.Unlock()
		default:
			// Not finished yet.
		}
	}
}

// CancelAll removes every in-flight transfer without invoking completion
// callbacks; the caller is responsible for any cleanup of its own state.
func (m *Multi) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.transfers {
		t.cancel()
		delete(m.transfers, id)
	}
}

// Package host implements the root dispatcher of spec §4.D: the
// single process-level owner of stdio that parses inbound frames,
// answers VersionRequest directly, routes CompileRequest to an acquired
// worker, and routes callback responses back to the worker that issued
// the matching request.
//
// The shape — a Serve-style read loop driven straight off the transport
// (server.go's Serve) and a mutex-guarded outstanding table in place of
// the teacher's cancelFuncs map (connection.go) — is grounded directly in
// those two files; see DESIGN.md. Diagnostics are written straight to the
// errOut writer with fmt, one line each, without timestamps; there is no
// separate logger.
package host

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sass-embedded/compiler-host/internal/frame"
	"github.com/sass-embedded/compiler-host/pool"
	"github.com/sass-embedded/compiler-host/protocol"
)

// Exit codes (spec §6.3, §7).
const (
	ExitOK            = 0
	ExitUsageError    = 64
	ExitProtocolError = 76
)

// Dispatcher owns the compiler host's stdio streams for the lifetime of
// one process.
type Dispatcher struct {
	// DrainOnEOF controls the stdin-EOF-mid-compilation policy (spec §9's
	// first open question): when true (the default), a clean EOF on stdin
	// waits for every in-flight compilation to finish before the process
	// exits 0. When false, EOF exits immediately without draining.
	DrainOnEOF bool

	in     io.Reader
	errOut io.Writer
	pool   *pool.Pool

	writeMu sync.Mutex
	writer  *frame.Writer

	tableMu        sync.Mutex
	outstanding    map[uint32]chan<- *protocol.InboundMessage
	nextOutboundID uint32

	wg sync.WaitGroup

	fatalOnce sync.Once
	fatalCode int32
	fatalCh   chan struct{}
}

// New constructs a Dispatcher reading inbound frames from in, writing
// outbound frames to out, and writing diagnostic lines to errOut. p
// supplies the worker pool CompileRequests are dispatched through.
func New(in io.Reader, out io.Writer, errOut io.Writer, p *pool.Pool) *Dispatcher {
	return &Dispatcher{
		DrainOnEOF:  true,
		in:          in,
		errOut:      errOut,
		pool:        p,
		writer:      frame.NewWriter(out),
		outstanding: make(map[uint32]chan<- *protocol.InboundMessage),
		fatalCh:     make(chan struct{}),
	}
}

// Run reads and dispatches inbound frames until stdin closes or a fatal
// protocol error occurs, and returns the process exit code spec §6.3/§7
// specifies for the outcome.
func (d *Dispatcher) Run() int {
	r := frame.NewReader(d.in)
	for {
		payload, err := r.Next()
		if err == io.EOF {
			if d.DrainOnEOF {
				d.wg.Wait()
			}
			select {
			case <-d.fatalCh:
				return int(atomic.LoadInt32(&d.fatalCode))
			default:
				return ExitOK
			}
		}
		if err != nil {
			d.raiseFatal(protocol.NoRequestID, protocol.ErrorParse, err.Error())
			return ExitProtocolError
		}

		msg, err := protocol.UnmarshalInbound(payload)
		if err != nil {
			d.raiseFatal(protocol.NoRequestID, protocol.ErrorParse, err.Error())
			return ExitProtocolError
		}

		if !d.dispatch(msg) {
			return ExitProtocolError
		}

		select {
		case <-d.fatalCh:
			return int(atomic.LoadInt32(&d.fatalCode))
		default:
		}
	}
}

// dispatch handles one decoded inbound message. It returns false when a
// fatal error has been raised and Run should stop.
func (d *Dispatcher) dispatch(msg *protocol.InboundMessage) bool {
	switch protocol.WhichInbound(msg) {
	case protocol.InboundVersionRequest:
		d.writeOutbound(&protocol.OutboundMessage{
			VersionResponse: protocol.NewVersionResponse(msg.VersionRequest.ID),
		})
		return true

	case protocol.InboundCompileRequest:
		d.wg.Add(1)
		go d.runCompile(msg.CompileRequest)
		return true

	case protocol.InboundCanonicalizeResponse,
		protocol.InboundImportResponse,
		protocol.InboundFileImportResponse,
		protocol.InboundFunctionCallResponse:
		id, _ := protocol.InboundID(msg)
		if !d.routeResponse(id, msg) {
			d.raiseFatal(id, protocol.ErrorParams, fmt.Sprintf("no outstanding request with id %d", id))
			return false
		}
		return true

	default:
		d.raiseFatal(protocol.NoRequestID, protocol.ErrorParse, "InboundMessage.message is not set.")
		return false
	}
}

// runCompile drives one compilation through an acquired worker to
// completion, emitting every frame the worker produces along the way and
// returning the worker to the pool when its CompileResponse is ready.
//
// It runs on its own goroutine per spec §4.D's "begin consuming the
// worker's outbound channel" — concurrently with the dispatcher's main
// read loop and any other in-flight compilation's runCompile goroutine.
// The engine itself runs on the worker's own persistent goroutine, not
// here, so the isolation spec §4.E requires against an engine panic
// ("a worker's crash does not poison the dispatcher's address space") is
// implemented in worker.Worker.runEngine, not by this recover — this one
// only guards against a panic in the dispatcher's own bookkeeping below,
// reporting it as an INTERNAL protocol error rather than crashing the
// process. (A protocol.SetOutboundID error is not a panic; it is reported
// as an INTERNAL error by the explicit check in the loop.)
func (d *Dispatcher) runCompile(req *protocol.CompileRequest) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.raiseFatal(req.ID, protocol.ErrorInternal, fmt.Sprintf("%v\n%s", r, debug.Stack()))
		}
	}()

	w, err := d.pool.Acquire(context.Background())
	if err != nil {
		d.raiseFatal(req.ID, protocol.ErrorInternal, err.Error())
		return
	}

	w.Inbound <- &protocol.InboundMessage{CompileRequest: req}

	for {
		out := <-w.Outbound

		if out.CompileResponse != nil {
			out.CompileResponse.ID = req.ID
			d.writeOutbound(&protocol.OutboundMessage{CompileResponse: out.CompileResponse})
			d.pool.Release(w)
			return
		}

		if protocol.WhichOutbound(out) == protocol.OutboundLogEvent {
			d.writeOutbound(out)
			continue
		}

		id := atomic.AddUint32(&d.nextOutboundID, 1)
		if err := protocol.SetOutboundID(out, id); err != nil {
			d.raiseFatal(req.ID, protocol.ErrorInternal, err.Error())
			return
		}
		d.recordOutstanding(id, w.Inbound)
		d.writeOutbound(out)
	}
}

func (d *Dispatcher) recordOutstanding(id uint32, sink chan<- *protocol.InboundMessage) {
	d.tableMu.Lock()
	d.outstanding[id] = sink
	d.tableMu.Unlock()
}

// routeResponse delivers msg to the worker awaiting the outstanding
// request named by id, freeing the slot. It reports false if no such
// request is outstanding (spec §4.D's PARAMS case).
func (d *Dispatcher) routeResponse(id uint32, msg *protocol.InboundMessage) bool {
	d.tableMu.Lock()
	sink, ok := d.outstanding[id]
	if ok {
		delete(d.outstanding, id)
	}
	d.tableMu.Unlock()

	if !ok {
		return false
	}
	sink <- msg
	return true
}

// writeOutbound encodes and frames out, serialized against every other
// writer (the main loop and every in-flight runCompile goroutine share
// one stdout).
func (d *Dispatcher) writeOutbound(out *protocol.OutboundMessage) {
	b, err := protocol.MarshalOutbound(out)
	if err != nil {
		// A message this process itself built failed to marshal: a bug, not
		// a wire-level PARSE condition. There's no further frame to emit
		// describing the failure to emit a frame, so this is logged and
		// dropped rather than re-entering raiseFatal.
		fmt.Fprintf(d.errOut, "Internal compiler error: failed to marshal outbound message: %v\n", err)
		return
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	// A write failure here means the host end of stdout is gone (e.g. a
	// broken pipe); there is no useful recovery beyond letting the process
	// wind down through the normal EOF/fatal paths.
	_ = d.writer.Write(b)
}

// raiseFatal is the single entry point for every fatal protocol condition
// (spec §4.D's "Failure handling", §7). It is idempotent: only the first
// call emits the stderr diagnostic and the Error frame and sets the exit
// code; later calls (e.g. a panic racing a PARAMS error) are no-ops.
func (d *Dispatcher) raiseFatal(id uint32, kind protocol.ErrorKind, message string) {
	d.fatalOnce.Do(func() {
		atomic.StoreInt32(&d.fatalCode, ExitProtocolError)
		d.logFatal(id, kind, message)
		d.writeOutbound(&protocol.OutboundMessage{Error: &protocol.ProtocolError{
			ID:      id,
			Type:    kind,
			Message: message,
		}})
		close(d.fatalCh)
	})
}

func (d *Dispatcher) logFatal(id uint32, kind protocol.ErrorKind, message string) {
	if kind == protocol.ErrorInternal {
		fmt.Fprintf(d.errOut, "Internal compiler error: %s\n", message)
		return
	}
	if id == protocol.NoRequestID {
		fmt.Fprintf(d.errOut, "Host caused %s error: %s\n", kind, message)
		return
	}
	fmt.Fprintf(d.errOut, "Host caused %s error with request %d: %s\n", kind, id, message)
}

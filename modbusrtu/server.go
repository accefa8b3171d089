package modbusrtu

import (
	"errors"
	"io"
	"sync"

	"golang.org/x/exp/slog"

	"github.com/fieldbuslabs/modbus"
)

// Server is a Modbus RTU server: it owns a serial port, reads request frames off it,
// and answers them against a modbus.Context.
type Server struct {
	state   connState
	address uint8
	ctx     modbus.Context
	ctxMu   *sync.RWMutex
	observer modbus.Observer
	log     *slog.Logger
	txbuf   [264]byte
}

// ServerConfig provides configuration parameters to NewServer.
type ServerConfig struct {
	// Address is the device's unit id, in the range 1-247 inclusive.
	Address uint8
	// Context is the register model requests are executed against. If nil, a
	// modbus.NewStorageSmall() is used.
	Context modbus.Context
	// ContextLock, if non-nil, is RLocked around ProcessRead and Locked around
	// ProcessWrite so a Context can be shared with other goroutines.
	ContextLock *sync.RWMutex
	// Observer, if non-nil, is invoked after a successful write, before the
	// response is finalized onto the wire.
	Observer modbus.Observer
	// Log receives diagnostic messages. If nil, slog.Default() is used.
	Log *slog.Logger
}

// NewServer returns a Server reading and writing over port (typically a
// go.bug.st/serial.Port already opened at the bus's baud rate).
func NewServer(port io.ReadWriter, cfg ServerConfig) *Server {
	if port == nil {
		panic("nil port")
	}
	if cfg.Address < 1 || cfg.Address > 247 {
		panic("invalid address")
	}
	if cfg.Context == nil {
		cfg.Context = modbus.NewStorageSmall()
	}
	if cfg.ContextLock == nil {
		cfg.ContextLock = &sync.RWMutex{}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Server{
		address:  cfg.Address,
		ctx:      cfg.Context,
		ctxMu:    cfg.ContextLock,
		observer: cfg.Observer,
		log:      cfg.Log,
		state: connState{
			closeErr: errors.New("not yet connected"),
			port:     port,
		},
	}
}

// Context returns the active register context.
func (sv *Server) Context() modbus.Context { return sv.ctx }

// HandleNext reads the next frame off the port and, if addressed to this server (or
// broadcast), answers it. This call blocks until a complete frame has been read.
func (sv *Server) HandleNext() error {
	var pdu []byte
	var addr uint8
	var err error
	for {
		pdu, addr, err = sv.state.tryRx(false, 0)
		if err != nil {
			if errors.Is(err, ErrMissingPacketData) {
				continue
			}
			return err
		}
		if addr == sv.address || addr == 0 {
			break
		}
	}

	sink := modbus.NewSliceSink(sv.txbuf[:])
	frame := modbus.NewFrame(sv.address, pdu, modbus.ProtoRTU, sink)
	if err := frame.Parse(); err != nil {
		sv.log.Warn("modbusrtu: parse failed", "err", err)
		return err
	}
	if frame.ProcessingRequired {
		if frame.ReadOnly {
			sv.ctxMu.RLock()
			err = frame.ProcessRead(sv.ctx)
			sv.ctxMu.RUnlock()
		} else {
			sv.ctxMu.Lock()
			err = frame.ProcessWrite(sv.ctx, sv.observer)
			sv.ctxMu.Unlock()
		}
		if err != nil {
			return err
		}
	}
	if !frame.ResponseRequired {
		return nil
	}
	if err := frame.FinalizeResponse(); err != nil {
		return err
	}
	_, err = sv.state.port.Write(sink.Bytes())
	return err
}

package modbustcp

import (
	"context"
	"errors"
	"io"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"github.com/fieldbuslabs/modbus"
)

const (
	defaultKeepalive = 2*time.Hour - time.Minute
	defaultPort      = ":502"
)

// Server is a Modbus TCP server. A Server listens on a network and awaits a single
// client's requests, answering them against a modbus.Context. Servers are typically
// sensors or actuators in an industrial setting.
//
// Server's methods are not all safe for concurrent use; Err, IsConnected and Addr are.
type Server struct {
	state      serverState
	unitID     uint8
	ctxMu      *sync.RWMutex
	tcpTimeout time.Duration
	address    net.TCPAddr
	log        *slog.Logger
	rxbuf      [264]byte
	txbuf      [264]byte
}

// ServerConfig provides configuration parameters to NewServer.
type ServerConfig struct {
	// Formatted numeric IP with port. i.e: "192.168.1.35:502"
	Address string
	// UnitID is the unit id this server answers for. A request for any other unit id
	// (0 and 255 included) is not processed and gets an empty response echoing its
	// unit id and function code.
	UnitID uint8
	// ConnectTimeout is the maximum amount of time a call to Accept will wait for a
	// connect to complete.
	ConnectTimeout time.Duration
	// Context is the register model requests are executed against. If nil, a
	// modbus.NewStorageSmall() is used.
	Context modbus.Context
	// ContextLock, if non-nil, is RLocked around ProcessRead and Locked around
	// ProcessWrite so a Context can be shared with other goroutines. If nil, the
	// Server assumes it has exclusive ownership of Context.
	ContextLock *sync.RWMutex
	// Observer, if non-nil, is invoked after a successful write, before the
	// response is finalized onto the wire.
	Observer modbus.Observer
	// Log receives diagnostic messages. If nil, slog.Default() is used.
	Log *slog.Logger
}

// NewServer returns a Server ready for use.
// `localhost` in a server address is replaced with `127.0.0.1`.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Context == nil {
		cfg.Context = modbus.NewStorageSmall()
	}
	if cfg.ContextLock == nil {
		cfg.ContextLock = &sync.RWMutex{}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	cfg.Address = strings.Replace(cfg.Address, "localhost", "127.0.0.1", 1)
	address, err := netip.ParseAddrPort(cfg.Address)
	if err != nil {
		return nil, err
	}

	sv := &Server{
		state:      serverState{closeErr: errors.New("not yet connected"), ctx: cfg.Context, observer: cfg.Observer},
		unitID:     cfg.UnitID,
		ctxMu:      cfg.ContextLock,
		tcpTimeout: cfg.ConnectTimeout,
		address:    *net.TCPAddrFromAddrPort(address),
		log:        cfg.Log,
	}
	return sv, nil
}

// Context returns the active register context. Changes made through it are reflected
// in the server's behavior immediately; callers sharing it with other goroutines
// should hold the ContextLock passed to NewServer.
func (sv *Server) Context() modbus.Context {
	return sv.state.ctx
}

// Accept begins listening on the server's TCP address. If the server already has a
// connection this method returns an error. By design a Server maintains one connection
// at a time.
func (sv *Server) Accept(ctx context.Context) error {
	if sv.state.IsConnected() {
		return errors.New("already connected or incorrectly initialized client/server")
	}
	listener, err := net.ListenTCP("tcp", &sv.address)
	if err != nil {
		return err
	}
	if sv.tcpTimeout > 0 {
		listener.SetDeadline(time.Now().Add(sv.tcpTimeout))
	}
	conn, err := listener.AcceptTCP()
	if err != nil {
		listener.Close()
		return err
	}
	sv.state.mu.Lock()
	listener.SetDeadline(time.Time{})
	sv.state.closeErr = nil
	sv.state.listener = listener
	sv.state.conn = conn
	sv.state.mu.Unlock()
	sv.log.Info("modbustcp: accepted connection", "remote", conn.RemoteAddr())
	return nil
}

// HandleNext reads the next request on the network and answers it. This call blocks
// until a complete frame has been read or the connection fails.
func (sv *Server) HandleNext() error {
	if err := sv.Err(); err != nil {
		return errors.New("disconnected: " + err.Error())
	}
	rcvBuf := sv.rxbuf[:]
	const hdrLen = 7
	if _, err := io.ReadFull(sv.state.conn, rcvBuf[:hdrLen]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			sv.state.CloseConn(err)
		}
		return err
	}
	more, _ := modbus.GuessRequestFrameLen(modbus.ProtoTCP, rcvBuf[:hdrLen])
	if hdrLen+more > len(rcvBuf) {
		err := errors.New("modbustcp: request longer than buffer")
		sv.state.CloseConn(err)
		return err
	}
	if more > 0 {
		if _, err := io.ReadFull(sv.state.conn, rcvBuf[hdrLen:hdrLen+more]); err != nil {
			sv.state.CloseConn(err)
			return err
		}
	}
	reqBuf := rcvBuf[:hdrLen+more]

	sink := modbus.NewSliceSink(sv.txbuf[:])
	frame := modbus.NewFrame(sv.unitID, reqBuf, modbus.ProtoTCP, sink)
	if err := frame.Parse(); err != nil {
		sv.log.Warn("modbustcp: parse failed", "err", err)
		sv.state.CloseConn(err)
		return err
	}
	if frame.ProcessingRequired {
		var err error
		if frame.ReadOnly {
			sv.ctxMu.RLock()
			err = frame.ProcessRead(sv.state.ctx)
			sv.ctxMu.RUnlock()
		} else {
			sv.ctxMu.Lock()
			err = frame.ProcessWrite(sv.state.ctx, sv.state.observer)
			sv.ctxMu.Unlock()
		}
		if err != nil {
			sv.state.CloseConn(err)
			return err
		}
	}
	if !frame.ResponseRequired {
		return nil
	}
	if err := frame.FinalizeResponse(); err != nil {
		sv.state.CloseConn(err)
		return err
	}
	_, err := sv.state.conn.Write(sink.Bytes())
	if err != nil {
		sv.state.CloseConn(err)
	}
	return err
}

// Err returns the error that caused disconnection. Is safe for concurrent use.
func (sv *Server) Err() error {
	return sv.state.Err()
}

// IsConnected returns true if the server has an active connection. Is safe for
// concurrent use.
func (sv *Server) IsConnected() bool {
	return sv.state.IsConnected()
}

// Addr returns the address of the last active connection. If the server has not yet
// initialized a connection it returns an empty *net.TCPAddr.
func (sv *Server) Addr() net.Addr {
	sv.state.mu.Lock()
	defer sv.state.mu.Unlock()
	if sv.state.listener == nil {
		return &net.TCPAddr{}
	}
	return sv.state.listener.Addr()
}

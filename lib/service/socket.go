// Copyright 2026 The Boxoffice Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/boxoffice-pos/boxoffice/lib/clock"
	"github.com/boxoffice-pos/boxoffice/lib/codec"
	"github.com/boxoffice-pos/boxoffice/lib/fault"
	"github.com/boxoffice-pos/boxoffice/lib/netutil"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

const (
	fieldAction  = "action"
	fieldStatus  = "status"
	fieldMessage = "message"
)

// Result is the action-specific payload of a success response. Its
// keys are merged into the response next to "status".
type Result map[string]any

// ActionFunc processes one request for a specific action. Return a
// Result to add payload fields to the success response (nil adds
// none), or an error for a failure response. Errors carrying a fault
// kind are reported with their own message; anything else is logged
// and reported as an internal error.
type ActionFunc func(ctx context.Context, request *Request) (Result, error)

// Limiter decides whether a peer may make another request. Errors
// are treated as "allow".
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Defaults for SocketConfig fields left at zero.
const (
	DefaultMaxMessageSize = 4096
	DefaultMaxConnections = 256
	defaultWriteTimeout   = 10 * time.Second
)

// SocketConfig configures a SocketServer. Address is required.
type SocketConfig struct {
	// Address is the TCP listen address, e.g. "localhost:9999". Port
	// 0 picks a free port; read it back with Addr after Ready.
	Address string

	// Codec decodes requests and encodes responses. Defaults to JSON.
	Codec codec.MessageCodec

	// MaxMessageSize is the read buffer size. Each read from the
	// connection is treated as exactly one request, so a message
	// larger than this arrives in pieces and each piece fails to
	// decode.
	MaxMessageSize int

	// MaxConnections caps concurrent sessions. A connection beyond the
	// cap gets one "server busy" error response and is closed.
	MaxConnections int

	// IdleTimeout closes a session that sends nothing for this long.
	// Zero waits forever.
	IdleTimeout time.Duration

	// WriteTimeout bounds writing one response. Defaults to 10s.
	WriteTimeout time.Duration

	// Limiter, when set, is consulted once per request keyed by the
	// peer's IP address.
	Limiter Limiter

	// Clock measures uptime. Defaults to the wall clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// SocketServer serves the flat-map request/response protocol over TCP.
// Every accepted connection gets its own session goroutine, which
// reads one request at a time, dispatches it to the registered
// ActionFunc, and writes the response before reading the next. No
// state is shared between sessions except what handlers share.
//
// Actions are registered with Handle before calling Serve. Unknown
// actions receive an error response.
type SocketServer struct {
	address        string
	codec          codec.MessageCodec
	maxMessageSize int
	idleTimeout    time.Duration
	writeTimeout   time.Duration
	limiter        Limiter
	clock          clock.Clock
	logger         *slog.Logger

	handlers map[string]ActionFunc

	connectionSlots *semaphore.Weighted

	ready    chan struct{}
	addr     net.Addr
	started  time.Time
	requests atomic.Uint64
	active   atomic.Int64

	// sessions tracks open connections so shutdown can wake the ones
	// blocked in Read.
	sessionsMu sync.Mutex
	sessions   map[net.Conn]struct{}

	// activeSessions lets Serve wait for every session to finish
	// before returning.
	activeSessions sync.WaitGroup
}

// NewSocketServer creates a server from cfg. Register actions with
// Handle before calling Serve.
func NewSocketServer(cfg SocketConfig) *SocketServer {
	if cfg.Codec == nil {
		cfg.Codec = codec.JSON{}
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultMaxMessageSize
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = DefaultMaxConnections
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &SocketServer{
		address:         cfg.Address,
		codec:           cfg.Codec,
		maxMessageSize:  cfg.MaxMessageSize,
		idleTimeout:     cfg.IdleTimeout,
		writeTimeout:    cfg.WriteTimeout,
		limiter:         cfg.Limiter,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		handlers:        make(map[string]ActionFunc),
		connectionSlots: semaphore.NewWeighted(int64(cfg.MaxConnections)),
		ready:           make(chan struct{}),
		sessions:        make(map[net.Conn]struct{}),
	}
}

// Handle registers a handler for the given action name. Panics if
// the action is already registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// Ready is closed once the listener is bound.
func (s *SocketServer) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address. Only valid after Ready is
// closed.
func (s *SocketServer) Addr() net.Addr {
	return s.addr
}

// ActiveConnections reports the number of open sessions.
func (s *SocketServer) ActiveConnections() int64 {
	return s.active.Load()
}

// RequestsServed reports how many requests have been answered.
func (s *SocketServer) RequestsServed() uint64 {
	return s.requests.Load()
}

// Uptime reports how long the server has been listening.
func (s *SocketServer) Uptime() time.Duration {
	select {
	case <-s.ready:
		return s.clock.Since(s.started)
	default:
		return 0
	}
}

// Serve binds the listen address and accepts connections until ctx
// is cancelled. Cancellation stops accepting, wakes idle sessions so
// they close, and lets a session in the middle of a request finish
// writing its response. Serve returns once every session has ended.
func (s *SocketServer) Serve(ctx context.Context) error {
	var listenConfig net.ListenConfig
	listener, err := listenConfig.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	defer listener.Close()

	s.addr = listener.Addr()
	s.started = s.clock.Now()
	close(s.ready)

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening",
		"address", s.addr.String(),
		"wire_format", s.codec.Format(),
		"max_message_size", s.maxMessageSize,
	)

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			// Transient failures such as EMFILE: back off so the loop
			// does not spin while descriptors are exhausted.
			backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
			s.logger.Error("accept failed", "error", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
			continue
		}
		backoff = 0

		if !s.connectionSlots.TryAcquire(1) {
			s.rejectBusy(conn)
			continue
		}

		s.track(conn)
		s.activeSessions.Add(1)
		go func() {
			defer s.activeSessions.Done()
			defer s.connectionSlots.Release(1)
			defer s.untrack(conn)
			s.runSession(ctx, conn)
		}()
	}

	s.wakeSessions()
	s.activeSessions.Wait()
	s.logger.Info("socket server stopped", "requests_served", s.requests.Load())
	return nil
}

// runSession is the per-connection loop: read one request, dispatch,
// write the response, repeat until the peer closes, a transport error
// occurs, the idle timeout fires, or the server shuts down.
func (s *SocketServer) runSession(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr()
	logger := s.logger.With("remote", remote.String())
	logger.Info("connection accepted")

	// Handlers run to completion even during shutdown, so the request
	// being processed when ctx is cancelled still gets its response.
	handlerContext := context.WithoutCancel(ctx)

	buffer := make([]byte, s.maxMessageSize)
	served := 0
	for {
		var deadline time.Time
		if s.idleTimeout > 0 {
			deadline = time.Now().Add(s.idleTimeout)
		}
		conn.SetReadDeadline(deadline)
		// Checked after setting the deadline: shutdown cancels ctx
		// before it expires the deadlines of tracked connections, so
		// either this check or the expired deadline stops the read.
		if ctx.Err() != nil {
			logger.Info("connection closed", "reason", "shutdown", "requests", served)
			return
		}

		count, err := conn.Read(buffer)
		if count == 0 || err != nil {
			s.logSessionEnd(ctx, logger, err, served)
			return
		}

		response := s.handleMessage(handlerContext, logger, remote, buffer[:count])
		if err := s.writeResponse(conn, response); err != nil {
			reason := "transport error"
			if netutil.IsExpectedCloseError(err) {
				reason = "peer closed"
			}
			logger.Info("connection closed", "reason", reason, "error", err, "requests", served)
			return
		}
		served++
	}
}

func (s *SocketServer) logSessionEnd(ctx context.Context, logger *slog.Logger, err error, served int) {
	var netError net.Error
	switch {
	case err == nil || netutil.IsExpectedCloseError(err):
		logger.Info("connection closed", "reason", "peer closed", "requests", served)
	case ctx.Err() != nil:
		logger.Info("connection closed", "reason", "shutdown", "requests", served)
	case errors.As(err, &netError) && netError.Timeout():
		logger.Info("connection closed", "reason", "idle timeout", "requests", served)
	default:
		logger.Info("connection closed", "reason", "transport error", "error", err, "requests", served)
	}
}

// handleMessage turns one request chunk into a response map. It never
// panics: a panic inside a handler becomes an internal error response.
func (s *SocketServer) handleMessage(ctx context.Context, logger *slog.Logger, remote net.Addr, data []byte) (response map[string]any) {
	s.requests.Add(1)
	action := ""
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("action panicked",
				"action", action,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			response = s.errorResponse(logger, action, fault.New(fault.Internal, "panic: %v", recovered))
		}
	}()

	if !s.allow(ctx, logger, remote) {
		return s.errorResponse(logger, "", fault.New(fault.RateLimited, "rate limit exceeded"))
	}

	fields, err := s.codec.Decode(data)
	if err != nil {
		attrs := []any{"error", err, "bytes", len(data)}
		if s.codec.Format() == codec.FormatCBOR {
			if notation, diagErr := codec.Diagnose(data); diagErr == nil {
				attrs = append(attrs, "diagnostic", notation)
			}
		}
		logger.Debug("undecodable request", attrs...)
		return s.errorResponse(logger, "", fault.Wrap(fault.Decode, err, "invalid request: could not decode %s message", s.codec.Format()))
	}

	request := &Request{Fields: fields, Remote: remote}
	request.Action = actionName(fields)
	action = request.Action

	// A missing or non-string action matches no handler.
	handler, exists := s.handlers[action]
	if !exists {
		return s.errorResponse(logger, action, fault.UnknownAction(action))
	}

	result, err := handler(ctx, request)
	if err != nil {
		return s.errorResponse(logger, action, err)
	}
	return successResponse(result)
}

func (s *SocketServer) allow(ctx context.Context, logger *slog.Logger, remote net.Addr) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(ctx, peerKey(remote))
	if err != nil {
		logger.Debug("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return allowed
}

// peerKey is the rate-limit key for a remote address: its IP, so that
// reconnecting from a new port does not reset the budget.
func peerKey(remote net.Addr) string {
	host, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		return remote.String()
	}
	return host
}

// errorResponse builds {status: "error", message}. Classified errors
// carry their own message. Unclassified ones are logged with detail
// and reported generically.
func (s *SocketServer) errorResponse(logger *slog.Logger, action string, err error) map[string]any {
	kind := fault.KindOf(err)
	message := fault.Message(err)
	if kind == fault.Internal {
		logger.Error("action failed", "action", action, "error", err)
		if action != "" {
			message = fmt.Sprintf("internal error processing %q", action)
		}
	} else {
		logger.Debug("action rejected", "action", action, "kind", kind, "error", err)
	}
	return map[string]any{
		fieldStatus:  StatusError,
		fieldMessage: message,
	}
}

func successResponse(result Result) map[string]any {
	response := make(map[string]any, len(result)+1)
	for key, value := range result {
		response[key] = value
	}
	response[fieldStatus] = StatusSuccess
	return response
}

func (s *SocketServer) writeResponse(conn net.Conn, response map[string]any) error {
	payload, err := s.codec.Encode(response)
	if err != nil {
		s.logger.Error("encoding response failed", "error", err)
		payload, err = s.codec.Encode(map[string]any{
			fieldStatus:  StatusError,
			fieldMessage: "internal error: could not encode response",
		})
		if err != nil {
			return fmt.Errorf("encoding fallback response: %w", err)
		}
	}
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return nil
}

// rejectBusy answers a connection beyond the cap and closes it.
func (s *SocketServer) rejectBusy(conn net.Conn) {
	defer conn.Close()
	s.logger.Warn("connection rejected: server busy", "remote", conn.RemoteAddr().String())
	busy := map[string]any{
		fieldStatus:  StatusError,
		fieldMessage: "server busy: too many open connections",
	}
	if err := s.writeResponse(conn, busy); err != nil {
		s.logger.Debug("failed to write busy response", "error", err)
	}
}

func (s *SocketServer) track(conn net.Conn) {
	s.active.Add(1)
	s.sessionsMu.Lock()
	s.sessions[conn] = struct{}{}
	s.sessionsMu.Unlock()
}

func (s *SocketServer) untrack(conn net.Conn) {
	s.sessionsMu.Lock()
	delete(s.sessions, conn)
	s.sessionsMu.Unlock()
	s.active.Add(-1)
}

// wakeSessions expires the read deadline of every open connection so
// sessions blocked waiting for a request return. A session that is
// processing a request is unaffected until its next read.
func (s *SocketServer) wakeSessions() {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	now := time.Now()
	for conn := range s.sessions {
		conn.SetReadDeadline(now)
	}
}

// actionName returns the request's action as text. A missing action is
// the empty string, and a non-string action is rendered as its value.
func actionName(fields map[string]any) string {
	switch value := fields[fieldAction].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

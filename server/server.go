// Package server exposes the workbook engine and the script sandbox
// over a websocket session for front-end dispatchers. Files travel by
// storage handle, never inline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/swizzylabs/swizzy-cli/sandbox"
	"github.com/swizzylabs/swizzy-cli/storage"
)

const (
	jsonRPCVersion = "2.0"
	rpcErrorCode   = -32000
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler serves one method. A returned error becomes the response's
// error payload.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Server dispatches session methods onto the engine and the sandbox.
type Server struct {
	store    storage.Store
	executor *sandbox.Executor
	logger   *slog.Logger
	handlers map[string]Handler
}

func New(store storage.Store, executor *sandbox.Executor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		store:    store,
		executor: executor,
		logger:   logger,
	}
	s.handlers = map[string]Handler{
		"xlsx.create":  s.handleCreate,
		"xlsx.apply":   s.handleApply,
		"xlsx.analyze": s.handleAnalyze,
		"script.run":   s.handleScriptRun,
	}
	return s
}

// Run serves websocket sessions on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.Info("server.listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("session.accept_failed", "error", err.Error())
		return
	}
	defer conn.CloseNow()

	s.logger.Info("session.open", "remote", r.RemoteAddr)
	s.serveSession(r.Context(), conn)
	s.logger.Info("session.closed", "remote", r.RemoteAddr)
}

func (s *Server) serveSession(ctx context.Context, conn *websocket.Conn) {
	for {
		var req Request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("session.read_failed", "error", err.Error())
			return
		}

		resp := s.dispatch(ctx, req)
		if req.ID == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			s.logger.Warn("session.write_failed", "error", err.Error())
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	if req.JSONRPC != jsonRPCVersion {
		return errorResponse(req.ID, "invalid jsonrpc version")
	}
	handler, ok := s.handlers[req.Method]
	if !ok {
		s.logger.Warn("session.method_not_found", "method", req.Method)
		return errorResponse(req.ID, fmt.Sprintf("method not found: %s", req.Method))
	}

	s.logger.Debug("session.request", "method", req.Method, "id", string(req.ID))
	result, err := handler(ctx, req.Params)
	if err != nil {
		s.logger.Error("session.request_failed", "method", req.Method, "error", err.Error())
		return errorResponse(req.ID, err.Error())
	}
	return Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, message string) Response {
	return Response{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &ErrorPayload{Code: rpcErrorCode, Message: message},
	}
}

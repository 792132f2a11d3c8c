// Package server exposes the dispatcher over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"

	"github.com/tulinowpavel/ticketgate"
)

const (
	PathRPC       = "/api/v1/mcp"
	PathWebsocket = "/api/v1/ws"
	PathHealth    = "/api/v1/health"

	HeaderAPIKey    = "X-API-KEY"
	HeaderRequestID = "X-Request-ID"

	defaultMaxBodyBytes = 1 << 20
)

type Config struct {
	// APIKey is compared with the X-API-KEY header of every RPC request.
	APIKey string

	// CORSOrigin is sent as Access-Control-Allow-Origin and checked against
	// the Origin of websocket upgrades unless it is "*".
	CORSOrigin string

	MaxBodyBytes int64
}

type Server struct {
	dispatcher *ticketgate.Dispatcher
	apiKey     string
	corsOrigin string
	maxBody    int64
	upgrader   websocket.Upgrader
}

func New(cfg Config, dispatcher *ticketgate.Dispatcher) *Server {
	s := &Server{
		dispatcher: dispatcher,
		apiKey:     cfg.APIKey,
		corsOrigin: cfg.CORSOrigin,
		maxBody:    cfg.MaxBodyBytes,
	}

	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	return s
}

// Handler returns the routed handler with CORS and trace ids applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST "+PathRPC, gzhttp.GzipHandler(s.authenticate(http.HandlerFunc(s.handleRPC))))
	mux.Handle("GET "+PathWebsocket, s.authenticate(http.HandlerFunc(s.handleWebsocket)))
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)

	return trace(cors(mux, s.corsOrigin))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	// The call runs to completion even if the caller goes away.
	ctx := context.WithoutCancel(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(ctx, w, http.StatusRequestEntityTooLarge, ticketgate.NewErrorResponse(nil, &ticketgate.Error{
				Code:    ticketgate.CodeInvalidRequest,
				Message: "Invalid Request",
				Data:    "request body too large",
			}))
			return
		}

		slog.WarnContext(ctx, "failed to read rpc request", slog.String("error", err.Error()))
		writeJSON(ctx, w, http.StatusBadRequest, ticketgate.NewErrorResponse(nil, &ticketgate.Error{
			Code:    ticketgate.CodeParseError,
			Message: "Parse error",
		}))
		return
	}

	msg, rpcErr := ticketgate.ParseMessage(body)
	if rpcErr != nil {
		slog.WarnContext(ctx, "rejected rpc request",
			slog.Int("code", rpcErr.Code),
			slog.String("remote", r.RemoteAddr),
		)
		writeJSON(ctx, w, http.StatusBadRequest, ticketgate.NewErrorResponse(nil, rpcErr))
		return
	}

	slog.InfoContext(ctx, "rpc call",
		slog.String("method", msg.Method),
		slog.String("id", string(msg.ID)),
		slog.String("remote", r.RemoteAddr),
	)

	w.Header().Set("Content-Type", "application/json")
	if err = s.dispatcher.Serve(ctx, w, msg); err != nil {
		slog.WarnContext(ctx, "failed to write rpc response", slog.String("error", err.Error()))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.WarnContext(ctx, "failed to write response", slog.String("error", err.Error()))
	}
}

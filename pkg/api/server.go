package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ctxprotocol/hyperliquid-mcp/pkg/auth"
)

// Server is the HTTP surface: the MCP endpoint behind the auth middleware,
// plus a health check. Everything else lives in the tool handlers.
type Server struct {
	router         *mux.Router
	allowedOrigins []string
	httpSrv        *http.Server
	log            *zap.Logger
}

// NewServer mounts the streamable MCP handler at /mcp. The verifier's
// middleware sits in front of it and decides per JSON-RPC method whether a
// bearer token is required.
func NewServer(mcp *mcpserver.MCPServer, verifier *auth.Verifier, allowedOrigins []string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		router:         mux.NewRouter(),
		allowedOrigins: allowedOrigins,
		log:            log,
	}

	streamable := mcpserver.NewStreamableHTTPServer(mcp)
	s.router.PathPrefix("/mcp").Handler(verifier.Middleware(streamable))
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	return s
}

// Handler returns the fully wrapped handler, CORS included. Exposed
// separately from Start so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Mcp-Session-Id"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("http server starting", zap.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

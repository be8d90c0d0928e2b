// Package api exposes the certificate registry over HTTP: upload a
// document to issue, upload it again (or present its key) to verify, and
// revoke as the issuing identity.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/anushankari123/docuchain/internal/registry"
)

// Pinner stores a document with the external content-addressed storage
// service and returns its opaque locator.
type Pinner interface {
	Add(ctx context.Context, name string, data []byte) (string, error)
	GatewayURL(cid string) string
}

// Server routes HTTP requests to the registry.
type Server struct {
	router    *mux.Router
	svc       registry.Service
	pinner    Pinner // nil when pinning is disabled
	logger    *slog.Logger
	issuers   map[string]string // bearer token -> issuer identity
	maxUpload int64
}

// Options configures a Server.
type Options struct {
	Service registry.Service
	Pinner  Pinner
	Logger  *slog.Logger
	// Issuers maps bearer tokens to issuer identities. Requests without a
	// matching token cannot issue or revoke.
	Issuers        map[string]string
	MaxUploadBytes int64
}

// NewServer builds the router and handlers.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}

	s := &Server{
		router:    mux.NewRouter(),
		svc:       opts.Service,
		pinner:    opts.Pinner,
		logger:    opts.Logger,
		issuers:   opts.Issuers,
		maxUpload: opts.MaxUploadBytes,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.Handle("/certificates", s.requireIssuer(s.handleIssue)).Methods(http.MethodPost)
	api.HandleFunc("/certificates/verify", s.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/certificates/{key}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/certificates/{key}/qr", s.handleQR).Methods(http.MethodGet)
	api.Handle("/certificates/{key}/revoke", s.requireIssuer(s.handleRevoke)).Methods(http.MethodPost)
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return requestID(s.logRequests(s.router))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Package api exposes the bridge over HTTP: contact list, chat
// timelines, outbound sends and session status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"zapbridge/internal/config"
	"zapbridge/internal/domain"
	"zapbridge/internal/metrics"
	"zapbridge/internal/phone"
	"zapbridge/internal/relay"
	"zapbridge/internal/session"
)

// Files arrive base64-encoded in JSON, so the body limit has to be
// comfortably larger than the raw media cap.
const maxBodySize = 64 << 20

// Server is the HTTP face of the bridge.
type Server struct {
	host     string
	port     int
	store    domain.MessageStore
	sender   *relay.Sender
	tracker  *session.Tracker
	operator func() string
	metrics  config.MetricsConfig
	logger   *slog.Logger
	server   *http.Server
}

type ServerConfig struct {
	HTTP     config.HTTPConfig
	Store    domain.MessageStore
	Sender   *relay.Sender
	Tracker  *session.Tracker
	Operator func() string
	Metrics  config.MetricsConfig
	Logger   *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		host:     cfg.HTTP.Host,
		port:     cfg.HTTP.Port,
		store:    cfg.Store,
		sender:   cfg.Sender,
		tracker:  cfg.Tracker,
		operator: cfg.Operator,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
	}
}

// Handler builds the route table. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", s.handleContacts)
	mux.HandleFunc("GET /chat/{telefone}", s.handleChat)
	mux.HandleFunc("POST /send-message", s.handleSendMessage)
	mux.HandleFunc("POST /send-file", s.handleSendFile)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /qrcode", s.handleQRCode)
	if s.metrics.Enabled {
		mux.HandleFunc("GET "+s.metrics.Endpoint, metrics.Collector.Handler())
	}
	return cors(mux)
}

// Start serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("http server started", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleContacts returns the deduplicated contact list, most recently
// active first.
func (s *Server) handleContacts(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.All(r.Context(), domain.Descending)
	if err != nil {
		s.logger.Error("failed to list messages", "err", err)
		writeError(w, http.StatusInternalServerError, "erro ao buscar contatos")
		return
	}
	writeJSON(w, http.StatusOK, relay.Contacts(records, s.operator()))
}

// handleChat returns the two-party timeline with the given phone,
// oldest first.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	tel := r.PathValue("telefone")
	if !strings.Contains(tel, "@") {
		tel = phone.Normalize(tel)
	}

	records, err := s.store.ByParticipant(r.Context(), tel)
	if err != nil {
		s.logger.Error("failed to load chat", "err", err, "telefone", tel)
		writeError(w, http.StatusInternalServerError, "erro ao buscar conversa")
		return
	}
	writeJSON(w, http.StatusOK, relay.Timeline(records, tel, s.operator()))
}

type sendMessageRequest struct {
	Telefone string `json:"telefone"`
	Mensagem string `json:"mensagem"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	id, err := s.sender.SendText(r.Context(), req.Telefone, req.Mensagem)
	if err != nil {
		s.sendFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

type sendFileRequest struct {
	Telefone string `json:"telefone"`
	Base64   string `json:"base64"`
	Filename string `json:"filename"`
	MimeType string `json:"mimetype"`
	Legenda  string `json:"legenda"`
}

func (s *Server) handleSendFile(w http.ResponseWriter, r *http.Request) {
	var req sendFileRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	att := domain.Attachment{
		MimeType: req.MimeType,
		Filename: req.Filename,
		Data:     req.Base64,
	}
	if err := s.sender.SendFile(r.Context(), req.Telefone, att, req.Legenda); err != nil {
		s.sendFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) sendFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, relay.ErrValidation) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var status string
	switch s.tracker.Snapshot().State {
	case domain.SessionConnected:
		status = "connected"
	case domain.SessionPairing, domain.SessionUninitialized:
		status = "waiting"
	default:
		status = "disconnected"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	if snap.State == domain.SessionConnected {
		writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
		return
	}

	resp := map[string]string{"status": "waiting"}
	if snap.QR != "" {
		resp["qr"] = snap.QR
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

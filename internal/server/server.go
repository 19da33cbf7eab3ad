// Package server exposes a trained network over HTTP: a drawing page and a
// JSON prediction endpoint.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/digitnet/internal/canvas"
	"github.com/born-ml/digitnet/internal/numeric"
)

//go:embed index.html
var indexHTML []byte

// MaxBodyBytes bounds the size of a /predict request.
const MaxBodyBytes = 8 << 20

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// Predictor is the read-only part of a network the server needs.
// Forward must be safe for concurrent use.
type Predictor interface {
	Forward(x mat.Vector) *mat.VecDense
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Image string `json:"image"` // data URL produced by canvas.toDataURL
}

// PredictResponse is a successful /predict reply.
type PredictResponse struct {
	Result        int       `json:"result"`
	Probabilities []float64 `json:"probabilities"`
}

// ErrorResponse is the body of every 4xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server routes HTTP requests to a Predictor.
type Server struct {
	router *mux.Router
	model  Predictor
	logger *slog.Logger
}

// New wires the routes. A nil logger uses slog.Default.
func New(model Predictor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{router: mux.NewRouter(), model: model, logger: logger}

	s.router.Use(s.requestID, s.accessLog)
	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(&req); err != nil || req.Image == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request"})
		return
	}

	x, err := canvas.Vectorize(req.Image)
	if err != nil {
		s.logger.Info("rejected drawing", "request_id", RequestID(r.Context()), "err", err)
		msg := canvas.ErrDecode.Error()
		if errors.Is(err, canvas.ErrBlank) {
			msg = canvas.ErrBlank.Error()
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg})
		return
	}

	probs := s.model.Forward(x)
	digit := numeric.Argmax(probs)
	s.logger.Info("prediction", "request_id", RequestID(r.Context()), "digit", digit, "p", probs.AtVec(digit))
	writeJSON(w, http.StatusOK, PredictResponse{
		Result:        digit,
		Probabilities: append([]float64(nil), probs.RawVector().Data...),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

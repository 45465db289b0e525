// Package api exposes the analyzer's decode -> window -> dataflow ->
// signature pipeline as a small synchronous HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dolscan/dolscan/internal/analysis"
	"github.com/dolscan/dolscan/internal/disasmfmt"
	"github.com/dolscan/dolscan/internal/dol"
	"github.com/dolscan/dolscan/internal/window"
)

// Server is the HTTP API server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	port   int
}

// NewServer creates a new API server listening on port.
func NewServer(port int) *Server {
	s := &Server{
		mux:  http.NewServeMux(),
		port: port,
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler with CORS middleware applied.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/analyze", s.handleAnalyze)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("API server starting on http://127.0.0.1:%d", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// corsMiddleware adds CORS headers restricted to localhost origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isAllowedOrigin(origin string) bool {
	if origin == "" {
		return true
	}
	if strings.HasPrefix(origin, "file://") {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost") ||
		strings.HasPrefix(origin, "https://localhost") ||
		strings.HasPrefix(origin, "http://127.0.0.1") ||
		strings.HasPrefix(origin, "https://127.0.0.1")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeRequest is the POST /api/v1/analyze request body.
type analyzeRequest struct {
	DolPath string `json:"dol_path"`
	Address string `json:"address"`
	End     string `json:"end,omitempty"`
}

// analyzeResponse is the POST /api/v1/analyze success response body.
type analyzeResponse struct {
	Instructions []instructionView `json:"instructions"`
	Signature    signatureView     `json:"signature"`
	DecodeError  string            `json:"decode_error,omitempty"`
}

type instructionView struct {
	Addr uint32 `json:"addr"`
	Text string `json:"text"`
}

type signatureView struct {
	ParamCount int  `json:"param_count"`
	HasReturn  bool `json:"has_return"`
}

// handleAnalyze maps request errors to §7's taxonomy: malformed input is
// 400, a decode failure partway through the window is reported in-band on
// a 200 (there is no stderr to print the diagnostic to), and an analysis
// (transfer function) failure is 422.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	addr, err := parseHexAddr(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address: "+err.Error())
		return
	}

	rng := window.AddrRange{Start: addr, End: window.Unbounded}
	if req.End != "" {
		end, err := parseHexAddr(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
			return
		}
		rng.End = window.Bounded(end)
	}

	fileBytes, err := readDolFile(req.DolPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	d, err := dol.New(fileBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	buf, err := d.SliceFromLoadAddr(rng.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, decErr := analysis.Decode(buf, rng)
	if decErr != nil {
		// The instructions decoded before the failure are still useful;
		// report them alongside the diagnostic rather than discarding them.
		writeJSON(w, http.StatusOK, analyzeResponse{
			Instructions: instructionViews(f),
			DecodeError:  decErr.Error(),
		})
		return
	}

	sig, analysisErr := runAnalysis(f)
	if analysisErr != nil {
		writeError(w, http.StatusUnprocessableEntity, analysisErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Instructions: instructionViews(f),
		Signature: signatureView{
			ParamCount: sig.ParamCount(),
			HasReturn:  sig.HasReturn,
		},
	})
}

func instructionViews(f *analysis.Function) []instructionView {
	var out []instructionView
	for _, item := range f.Instrs {
		out = append(out, instructionView{
			Addr: item.Addr,
			Text: disasmfmt.Line(item.Addr, item.Inst, disasmfmt.DefaultOptions()),
		})
	}
	return out
}

// runAnalysis recovers from the transfer function's panic on an unmodeled
// instruction and reports it as an analysis error instead of a 500.
func runAnalysis(f *analysis.Function) (sig analysis.Signature, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("analysis error: %v", rec)
		}
	}()
	sig = analysis.RunAndReconstruct(f)
	return sig, nil
}

func parseHexAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func readDolFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- user-supplied analysis input
	if err != nil {
		return nil, fmt.Errorf("reading dol file: %w", err)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1024*1024))
	return decoder.Decode(v)
}

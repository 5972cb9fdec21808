package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oddslab/scratch-analyzer/internal/analysis"
	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type APIErrorResponse struct {
	Status    string    `json:"status"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// APIFailureResponse reports a game that reached the engine but could not be
// analyzed. Kind separates missing preconditions from estimation dead ends.
type APIFailureResponse struct {
	Status    string    `json:"status"`
	Kind      string    `json:"kind"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// OptionsPayload overrides the server's configured adjustment options for one
// request. Absent fields keep the configured values.
type OptionsPayload struct {
	IgnoreUnder500 *bool    `json:"ignore_under_500,omitempty"`
	ApplyTax       *bool    `json:"apply_tax,omitempty"`
	TaxRate        *float64 `json:"tax_rate,omitempty"`
}

type AnalyzeRequest struct {
	Game    types.RawGame   `json:"game"`
	Options *OptionsPayload `json:"options,omitempty"`
}

type AnalyzeResponse struct {
	Status       string       `json:"status"`
	Report       types.Report `json:"report"`
	DroppedTiers int          `json:"dropped_tiers"`
}

type CompareRequest struct {
	Games   []types.RawGame `json:"games"`
	Options *OptionsPayload `json:"options,omitempty"`
}

type CompareResponse struct {
	Status      string             `json:"status"`
	Comparisons []types.Comparison `json:"comparisons"`
	Skipped     int                `json:"skipped"`
}

type AnalyzerHTTPHandler struct {
	version  string
	defaults analysis.Options
}

func NewAnalyzerHTTPHandler(version string, defaults analysis.Options) *AnalyzerHTTPHandler {
	return &AnalyzerHTTPHandler{
		version:  version,
		defaults: defaults,
	}
}

func (h *AnalyzerHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/api/v1/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/v1/compare", h.HandleCompare)
}

func (h *AnalyzerHTTPHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AnalyzerHTTPHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	game, dropped := analysis.NormalizeGame(req.Game)
	report, err := analysis.Analyze(&game, h.resolveOptions(req.Options))
	if err != nil {
		writeAnalysisErrorJSON(w, err)
		return
	}

	response := AnalyzeResponse{
		Status:       "ok",
		Report:       report,
		DroppedTiers: dropped,
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AnalyzerHTTPHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	key, descending, err := parseSortParams(r)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Games) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "no games in request")
		return
	}

	games := make([]types.Game, 0, len(req.Games))
	for _, raw := range req.Games {
		game, _ := analysis.NormalizeGame(raw)
		games = append(games, game)
	}

	rows := analysis.CompareAll(games, h.resolveOptions(req.Options))
	if key != "" {
		types.SortComparisons(rows, key, descending)
	}

	response := CompareResponse{
		Status:      "ok",
		Comparisons: rows,
		Skipped:     len(games) - len(rows),
	}
	writeJSON(w, http.StatusOK, response)
}

func parseSortParams(r *http.Request) (enum.SortKey, bool, error) {
	key := enum.SortKey(strings.TrimSpace(r.URL.Query().Get("sort")))
	if key == "" {
		return "", false, nil
	}
	if !key.IsValid() {
		return "", false, fmt.Errorf(
			"invalid sort key (supported: price, name, number, odds, claimed, current, delta)")
	}

	switch strings.TrimSpace(r.URL.Query().Get("dir")) {
	case "", "asc":
		return key, false, nil
	case "desc":
		return key, true, nil
	default:
		return "", false, fmt.Errorf("invalid dir (supported: asc, desc)")
	}
}

func (h *AnalyzerHTTPHandler) resolveOptions(payload *OptionsPayload) analysis.Options {
	opts := h.defaults
	if payload == nil {
		return opts
	}
	if payload.IgnoreUnder500 != nil {
		opts.IgnoreUnder500 = *payload.IgnoreUnder500
	}
	if payload.ApplyTax != nil {
		opts.ApplyTax = *payload.ApplyTax
	}
	if payload.TaxRate != nil {
		opts.TaxRate = *payload.TaxRate
	}
	return opts
}

func startHTTPServer(port int, defaults analysis.Options) *http.Server {
	mux := http.NewServeMux()

	handler := NewAnalyzerHTTPHandler(appVersion, defaults)
	handler.Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info(
			"Analyzer HTTP server started",
			"port", port,
			"health_endpoint", "/health",
			"analyze_endpoint", "/api/v1/analyze",
			"compare_endpoint", "/api/v1/compare",
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed to start", "error", err)
		}
	}()

	return server
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "status", statusCode, "err", err)
	}
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, APIErrorResponse{
		Status:    "error",
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}

func writeAnalysisErrorJSON(w http.ResponseWriter, err error) {
	var failure *analysis.Failure
	if errors.As(err, &failure) {
		writeJSON(w, http.StatusUnprocessableEntity, APIFailureResponse{
			Status:    "error",
			Kind:      string(failure.Kind),
			Error:     failure.Reason,
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeErrorJSON(w, http.StatusInternalServerError, err.Error())
}

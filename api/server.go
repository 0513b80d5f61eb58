package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gorilla/mux"
	"github.com/wricardo/mars-rovers/game/config"
	"github.com/wricardo/mars-rovers/game/engine"
	"github.com/wricardo/mars-rovers/game/service"
	"github.com/wricardo/mars-rovers/game/session"
	"github.com/wricardo/mars-rovers/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.MissionService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil when nobody streams
// runs.
func NewServer(missionService service.MissionService, hub *websocket.Hub) *Server {
	s := &Server{
		service: missionService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("", s.handleIndex).Methods("GET")

	// Runs
	api.HandleFunc("/runs", s.handleCreateRun).Methods("POST")
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")
	api.HandleFunc("/runs/{id}/frames", s.handleGetFrames).Methods("GET")
	api.HandleFunc("/runs/{id}/report", s.handleGetReport).Methods("GET")

	// Missions
	api.HandleFunc("/missions", s.handleListMissions).Methods("GET")
	api.HandleFunc("/missions", s.handleCreateMission).Methods("POST")
	api.HandleFunc("/missions/{name}", s.handleGetMission).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError picks the status code for an error from the service
// layer.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrFormat), errors.Is(err, engine.ErrDuplicateLanding), errors.Is(err, config.ErrInvalidMission):
		status = http.StatusBadRequest
	case errors.Is(err, config.ErrMissionNotFound), errors.Is(err, session.ErrRunNotFound):
		status = http.StatusNotFound
	}
	body := map[string]string{"error": err.Error()}
	if status == http.StatusBadRequest {
		body["error_code"] = engine.ErrorCode(err)
	}
	respondJSON(w, status, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"name": "mars-rovers",
		"endpoints": []string{
			"POST /api/runs",
			"GET /api/runs",
			"GET /api/runs/{id}",
			"DELETE /api/runs/{id}",
			"GET /api/runs/{id}/frames",
			"GET /api/runs/{id}/report",
			"GET /api/missions",
			"POST /api/missions",
			"GET /api/missions/{name}",
			"GET /ws?run={id}",
		},
	})
}

// Run Handlers

// createRunRequest runs a stored mission by MissionID, or raw mission text
// given as Lines or Input.
type createRunRequest struct {
	MissionID      string   `json:"mission_id,omitempty"`
	Lines          []string `json:"lines,omitempty"`
	Input          string   `json:"input,omitempty"`
	Name           string   `json:"name,omitempty"`
	SelfPreserving bool     `json:"self_preserving"`
	Crossing       string   `json:"crossing,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	crossing := engine.CrossingPolicy(strings.ToLower(req.Crossing))
	if crossing != "" && crossing != engine.AllowCrossing && crossing != engine.AbortOnCrossing {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("crossing must be '%s' or '%s'", engine.AllowCrossing, engine.AbortOnCrossing))
		return
	}

	opts := service.RunOptions{
		MissionName:    req.Name,
		SelfPreserving: req.SelfPreserving,
		Crossing:       crossing,
	}

	lines := req.Lines
	if len(lines) == 0 && req.Input != "" {
		lines = SplitInput(req.Input)
	}

	var result *service.RunResult
	var err error
	if len(lines) > 0 {
		result, err = s.service.RunLines(r.Context(), lines, opts)
	} else {
		result, err = s.service.RunMission(r.Context(), req.MissionID, opts)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := "completed"
	if result.Aborted {
		status = "aborted:" + result.ErrorCode
	}
	log.Printf("[RUN] run=%s mission=%s rovers=%d steps=%d advisories=%d status=%s",
		result.ID, result.MissionName, len(result.Rovers), result.Steps, len(result.Advisories), status)

	s.publish(r, result)

	respondJSON(w, http.StatusCreated, result)
}

// publish streams a new run to websocket watchers
func (s *Server) publish(r *http.Request, result *service.RunResult) {
	if s.hub == nil {
		return
	}
	frames, err := s.allFrames(r, result.ID)
	if err != nil {
		log.Printf("Failed to load frames for run %s: %v", result.ID, err)
		return
	}
	s.hub.BroadcastFrames(result.ID, frames, runEvent(result), result)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created" (default), "accessed"
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of runs to return

	if sortBy == "" {
		sortBy = "created"
	}
	if order == "" {
		order = "desc"
	}

	sort.SliceStable(runs, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "accessed" {
			ti, tj = runs[i].LastAccessedAt, runs[j].LastAccessedAt
		} else {
			ti, tj = runs[i].CreatedAt, runs[j].CreatedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(runs)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	runs = runs[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
		"sort":  sortBy,
		"order": order,
	})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if run.Aborted {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintln(w, run.Error)
		return
	}
	fmt.Fprintln(w, run.Report)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), runID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", runID),
	})
}

func (s *Server) handleGetFrames(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	opts := service.FrameOptions{
		Page:  1,
		Limit: 50,
		Order: "asc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	frames, err := s.service.GetFrames(r.Context(), runID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, frames)
}

// Mission Handlers

func (s *Server) handleListMissions(w http.ResponseWriter, r *http.Request) {
	missions, err := s.service.ListMissions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if missions == nil {
		missions = []*service.MissionInfo{}
	}

	respondJSON(w, http.StatusOK, missions)
}

func (s *Server) handleGetMission(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	mission, err := s.service.LoadMission(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mission)
}

// handleCreateMission saves the mission in the body. The file name comes from
// ?id=, or from the mission's name; ?format=yaml stores it as YAML.
func (s *Server) handleCreateMission(w http.ResponseWriter, r *http.Request) {
	var mission engine.MissionConfig
	if err := json.NewDecoder(r.Body).Decode(&mission); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if mission.Name == "" {
		respondError(w, http.StatusBadRequest, "Mission name is required")
		return
	}

	query := r.URL.Query()
	missionID := query.Get("id")
	if missionID == "" {
		missionID = MissionID(mission.Name)
	}
	filename := missionID
	if format := strings.ToLower(query.Get("format")); format == "yaml" || format == "yml" {
		filename += ".yaml"
	}

	if err := s.service.SaveMission(r.Context(), filename, &mission); err != nil {
		if errors.Is(err, config.ErrInvalidMission) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save mission: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Mission saved successfully",
		"mission_id": missionID,
	})
}

// WebSocket Handler

// handleWebSocket follows one run (?run=<id>), replaying its frames first,
// or every new run when no ID is given.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "streaming disabled", http.StatusServiceUnavailable)
		return
	}

	runID := r.URL.Query().Get("run")
	if runID == "" {
		s.hub.ServeWS(w, r, websocket.AllRuns, nil)
		return
	}

	run, err := s.service.GetRun(r.Context(), runID)
	if err != nil {
		http.Error(w, "Invalid run", http.StatusNotFound)
		return
	}
	frames, err := s.allFrames(r, run.ID)
	if err != nil {
		http.Error(w, "Failed to load frames", http.StatusInternalServerError)
		return
	}

	s.hub.ServeWS(w, r, run.ID, websocket.FrameMessages(run.ID, frames, runEvent(run), run))
}

// allFrames pages through a run's whole step trace
func (s *Server) allFrames(r *http.Request, runID string) ([]engine.Step, error) {
	var frames []engine.Step
	opts := service.FrameOptions{Page: 1, Limit: 500, Order: "asc"}
	for {
		page, err := s.service.GetFrames(r.Context(), runID, opts)
		if err != nil {
			return nil, err
		}
		frames = append(frames, page.Frames...)
		if !page.HasNext {
			return frames, nil
		}
		opts.Page++
	}
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func runEvent(result *service.RunResult) string {
	if result.Aborted {
		return "run_aborted"
	}
	return "run_completed"
}

// SplitInput turns raw mission text into lines. Carriage returns and
// trailing blank lines are dropped; blank lines inside the text are kept as
// empty command lists.
func SplitInput(input string) []string {
	lines := strings.Split(strings.ReplaceAll(input, "\r", ""), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// MissionID derives a file-friendly identifier from a display name, e.g.
// "Near Miss" becomes "near_miss".
func MissionID(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

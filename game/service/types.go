package service

import (
	"time"

	"github.com/wricardo/mars-rovers/game/engine"
)

// RunOptions adjusts a mission before it runs
type RunOptions struct {
	MissionName    string                `json:"mission_name,omitempty"` // Label for ad-hoc missions
	SelfPreserving bool                  `json:"self_preserving"`        // Forces self-preserving rovers on
	Crossing       engine.CrossingPolicy `json:"crossing,omitempty"`     // Overrides the mission's policy when set
}

// RunResult describes a finished run
type RunResult struct {
	ID             string                `json:"id"`
	MissionID      string                `json:"mission_id"`
	MissionName    string                `json:"mission_name"`
	Plateau        engine.Grid           `json:"plateau"`
	SelfPreserving bool                  `json:"self_preserving"`
	Crossing       engine.CrossingPolicy `json:"crossing"`
	Report         string                `json:"report"`
	Rovers         []engine.RoverState   `json:"rovers"`
	Advisories     []string              `json:"advisories,omitempty"`
	Steps          int                   `json:"steps"`
	Aborted        bool                  `json:"aborted"`
	ErrorCode      string                `json:"error_code,omitempty"` // Machine-friendly code: collision|out_of_bounds|crossed_own_path
	Error          string                `json:"error,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
}

// FrameOptions configures frame retrieval
type FrameOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// FramesResponse contains a page of a run's step trace
type FramesResponse struct {
	RunID       string        `json:"run_id"`
	Frames      []engine.Step `json:"frames"`
	TotalFrames int           `json:"total_frames"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
}

// MissionInfo provides information about a mission file
type MissionInfo struct {
	Filename       string `json:"filename"`
	MissionID      string `json:"mission_id"` // The identifier to use when running the mission
	Name           string `json:"name"`       // Display name
	Description    string `json:"description"`
	Plateau        string `json:"plateau"`
	Rovers         int    `json:"rovers"`
	SelfPreserving bool   `json:"self_preserving"`
	Crossing       string `json:"crossing"`
}

// RunEvent is pushed to websocket clients when a run finishes
type RunEvent struct {
	Type      string    `json:"type"` // "run_completed", "run_aborted", "advisory"
	RunID     string    `json:"run_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

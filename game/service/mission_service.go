package service

import (
	"context"
	"time"

	"github.com/wricardo/mars-rovers/game/engine"
)

// MissionService defines all mission-related operations
type MissionService interface {
	// Runs
	RunLines(ctx context.Context, lines []string, opts RunOptions) (*RunResult, error)
	RunMission(ctx context.Context, missionName string, opts RunOptions) (*RunResult, error)
	GetRun(ctx context.Context, runID string) (*RunResult, error)
	ListRuns(ctx context.Context) ([]*RunResult, error)
	DeleteRun(ctx context.Context, runID string) error
	GetFrames(ctx context.Context, runID string, opts FrameOptions) (*FramesResponse, error)

	// Missions
	ListMissions(ctx context.Context) ([]*MissionInfo, error)
	LoadMission(ctx context.Context, missionName string) (*engine.MissionConfig, error)
	SaveMission(ctx context.Context, missionName string, mission *engine.MissionConfig) error
}

// RunStore defines run storage operations
type RunStore interface {
	Create(id string, run *Run) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// MissionManager handles mission file loading
type MissionManager interface {
	LoadMission(name string) (*engine.MissionConfig, error)
	ListMissions() ([]*MissionInfo, error)
	GetDefault() *engine.MissionConfig
	SaveMission(name string, mission *engine.MissionConfig) error
}

// Run is a finished simulation. Err is nil when every rover completed its
// commands.
type Run struct {
	ID             string
	MissionID      string
	Mission        *engine.MissionConfig
	Simulation     *engine.Simulation
	Frames         []engine.Step
	Report         string
	Err            error
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

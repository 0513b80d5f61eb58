package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mars-rovers/game/engine"
)

// missionServiceImpl implements the MissionService interface
type missionServiceImpl struct {
	runs     RunStore
	missions MissionManager
	mu       sync.RWMutex
}

// NewMissionService creates a new mission service instance
func NewMissionService(runs RunStore, missions MissionManager) MissionService {
	return &missionServiceImpl{
		runs:     runs,
		missions: missions,
	}
}

// RunLines parses raw mission lines and runs them. Input that does not parse
// is returned as an error and no run is recorded.
func (s *missionServiceImpl) RunLines(ctx context.Context, lines []string, opts RunOptions) (*RunResult, error) {
	if _, _, err := engine.ParseSpecs(lines, opts.SelfPreserving); err != nil {
		return nil, err
	}

	name := opts.MissionName
	if name == "" {
		name = "adhoc"
	}
	mission := engine.MissionFromLines(name, lines, opts.SelfPreserving)
	if opts.Crossing != "" {
		mission.Crossing = string(opts.Crossing)
	}

	return s.execute(ctx, "", mission)
}

// RunMission runs a stored mission, or the default mission when missionName
// is empty.
func (s *missionServiceImpl) RunMission(ctx context.Context, missionName string, opts RunOptions) (*RunResult, error) {
	var loaded *engine.MissionConfig
	var err error
	if missionName != "" {
		loaded, err = s.missions.LoadMission(missionName)
		if err != nil {
			if strings.Contains(err.Error(), "mission not found") {
				available, listErr := s.missions.ListMissions()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, m := range available {
						ids = append(ids, m.MissionID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available missions: %v", err, missionName, ids)
				}
			}
			return nil, fmt.Errorf("failed to load mission %s: %w", missionName, err)
		}
	} else {
		loaded = s.missions.GetDefault()
		missionName = "default"
	}

	// Overrides apply to a copy; the cached mission stays untouched.
	mission := *loaded
	if opts.SelfPreserving {
		mission.SelfPreserving = true
	}
	if opts.Crossing != "" {
		mission.Crossing = string(opts.Crossing)
	}

	return s.execute(ctx, missionName, &mission)
}

// GetRun retrieves a finished run and marks it as accessed. LastAccessedAt
// is only written under the write lock.
func (s *missionServiceImpl) GetRun(ctx context.Context, runID string) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	s.runs.UpdateLastAccessed(runID)

	return toRunResult(run), nil
}

// ListRuns returns every stored run, oldest first
func (s *missionServiceImpl) ListRuns(ctx context.Context) ([]*RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.runs.List()
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.Before(runs[j].CreatedAt)
	})

	result := make([]*RunResult, 0, len(runs))
	for _, run := range runs {
		result = append(result, toRunResult(run))
	}
	return result, nil
}

// DeleteRun removes a run
func (s *missionServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runs.Delete(runID)
}

// GetFrames returns a page of the run's step trace
func (s *missionServiceImpl) GetFrames(ctx context.Context, runID string, opts FrameOptions) (*FramesResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	total := len(run.Frames)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Limit > 500 {
		opts.Limit = 500
	}
	if opts.Order == "" {
		opts.Order = "asc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var frames []engine.Step
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			frames = append(frames, run.Frames[i])
		}
	} else if start < total {
		frames = run.Frames[start:end]
	}
	if frames == nil {
		frames = []engine.Step{}
	}

	return &FramesResponse{
		RunID:       run.ID,
		Frames:      frames,
		TotalFrames: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListMissions returns available missions
func (s *missionServiceImpl) ListMissions(ctx context.Context) ([]*MissionInfo, error) {
	return s.missions.ListMissions()
}

// LoadMission loads a specific mission
func (s *missionServiceImpl) LoadMission(ctx context.Context, missionName string) (*engine.MissionConfig, error) {
	return s.missions.LoadMission(missionName)
}

// SaveMission saves a mission to disk
func (s *missionServiceImpl) SaveMission(ctx context.Context, missionName string, mission *engine.MissionConfig) error {
	return s.missions.SaveMission(missionName, mission)
}

// execute builds the simulation, runs it to completion and stores the run.
// A mission that aborts is still stored; only input errors are returned.
func (s *missionServiceImpl) execute(ctx context.Context, missionID string, mission *engine.MissionConfig) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sim, err := mission.Simulation()
	if err != nil {
		return nil, err
	}

	var frames []engine.Step
	sim.OnStep(func(step engine.Step) {
		frames = append(frames, step)
	})

	report, runErr := sim.Run()

	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Create("", &Run{
		MissionID:  missionID,
		Mission:    mission,
		Simulation: sim,
		Frames:     frames,
		Report:     report,
		Err:        runErr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	for _, advisory := range sim.Advisories() {
		log.Printf("[ADVISORY] run=%s %s", run.ID, advisory)
	}
	if runErr != nil {
		log.Printf("[ABORT] run=%s mission=%s code=%s %v", run.ID, mission.Name, engine.ErrorCode(runErr), runErr)
	}

	return toRunResult(run), nil
}

func toRunResult(run *Run) *RunResult {
	sim := run.Simulation
	result := &RunResult{
		ID:             run.ID,
		MissionID:      run.MissionID,
		MissionName:    run.Mission.Name,
		Plateau:        sim.Grid(),
		SelfPreserving: run.Mission.SelfPreserving,
		Crossing:       sim.CrossingPolicy(),
		Report:         run.Report,
		Rovers:         sim.Snapshot().Rovers,
		Advisories:     sim.Advisories(),
		Steps:          len(run.Frames),
		CreatedAt:      run.CreatedAt,
		LastAccessedAt: run.LastAccessedAt,
	}
	if run.Err != nil {
		result.Aborted = true
		result.ErrorCode = engine.ErrorCode(run.Err)
		result.Error = run.Err.Error()
	}
	return result
}

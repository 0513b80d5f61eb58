package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mars-rovers/game/engine"
	"github.com/wricardo/mars-rovers/game/service"
	"github.com/wricardo/mars-rovers/game/session"
)

var errMissionNotFound = errors.New("mission not found")

// MockRunStore implements service.RunStore for testing
type MockRunStore struct {
	runs map[string]*service.Run
}

func NewMockRunStore() *MockRunStore {
	return &MockRunStore{
		runs: make(map[string]*service.Run),
	}
}

func (m *MockRunStore) Create(id string, run *service.Run) (*service.Run, error) {
	// Generate ID if empty (mimics real run store behavior)
	if id == "" {
		id = fmt.Sprintf("run%d", len(m.runs)+1)
	}
	if _, exists := m.runs[id]; exists {
		return nil, errors.New("run already exists")
	}

	run.ID = id
	run.CreatedAt = time.Now().Add(time.Duration(len(m.runs)) * time.Millisecond)
	run.LastAccessedAt = run.CreatedAt
	m.runs[id] = run
	return run, nil
}

func (m *MockRunStore) Get(id string) (*service.Run, error) {
	run, exists := m.runs[id]
	if !exists {
		return nil, errors.New("run not found")
	}
	return run, nil
}

func (m *MockRunStore) List() []*service.Run {
	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	return result
}

func (m *MockRunStore) Delete(id string) error {
	if _, exists := m.runs[id]; !exists {
		return errors.New("run not found")
	}
	delete(m.runs, id)
	return nil
}

func (m *MockRunStore) UpdateLastAccessed(id string) error {
	if run, exists := m.runs[id]; exists {
		run.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("run not found")
}

// MockMissionManager implements service.MissionManager for testing
type MockMissionManager struct {
	missions map[string]*engine.MissionConfig
}

func NewMockMissionManager() *MockMissionManager {
	return &MockMissionManager{
		missions: map[string]*engine.MissionConfig{
			"classic": engine.DefaultMission(),
			"near_miss": {
				Name:           "Near miss",
				Plateau:        "5 5",
				SelfPreserving: true,
				Rovers: []engine.RoverConfig{
					{Position: "2 2 W", Commands: "M"},
					{Position: "1 2 W", Commands: "MM"},
				},
			},
		},
	}
}

func (m *MockMissionManager) LoadMission(name string) (*engine.MissionConfig, error) {
	mission, exists := m.missions[name]
	if !exists {
		return nil, errMissionNotFound
	}
	return mission, nil
}

func (m *MockMissionManager) ListMissions() ([]*service.MissionInfo, error) {
	var result []*service.MissionInfo
	for id, mission := range m.missions {
		result = append(result, &service.MissionInfo{MissionID: id, Name: mission.Name, Rovers: len(mission.Rovers)})
	}
	return result, nil
}

func (m *MockMissionManager) GetDefault() *engine.MissionConfig {
	return m.missions["classic"]
}

func (m *MockMissionManager) SaveMission(name string, mission *engine.MissionConfig) error {
	if err := engine.ValidateMissionConfig(mission); err != nil {
		return err
	}
	m.missions[name] = mission
	return nil
}

func newTestService() (service.MissionService, *MockRunStore, *MockMissionManager) {
	runs := NewMockRunStore()
	missions := NewMockMissionManager()
	return service.NewMissionService(runs, missions), runs, missions
}

func TestRunMission_Classic(t *testing.T) {
	svc, runs, _ := newTestService()

	result, err := svc.RunMission(context.Background(), "classic", service.RunOptions{})
	if err != nil {
		t.Fatalf("Failed to run mission: %v", err)
	}

	if result.Report != "1 3 N\n5 1 E" {
		t.Errorf("Expected classic report, got %q", result.Report)
	}
	if result.Aborted {
		t.Errorf("Expected mission to complete, got error %s", result.Error)
	}
	if result.MissionID != "classic" || result.MissionName != "classic" {
		t.Errorf("Unexpected mission identity: %s / %s", result.MissionID, result.MissionName)
	}
	if result.Steps != 19 {
		t.Errorf("Expected 19 steps, got %d", result.Steps)
	}
	if result.Plateau != (engine.Grid{Width: 5, Height: 5}) {
		t.Errorf("Expected 5x5 plateau, got %+v", result.Plateau)
	}
	if len(runs.runs) != 1 {
		t.Errorf("Expected 1 stored run, got %d", len(runs.runs))
	}
}

func TestRunMission_Default(t *testing.T) {
	svc, _, _ := newTestService()

	result, err := svc.RunMission(context.Background(), "", service.RunOptions{})
	if err != nil {
		t.Fatalf("Failed to run default mission: %v", err)
	}
	if result.MissionID != "default" {
		t.Errorf("Expected mission id 'default', got '%s'", result.MissionID)
	}
}

func TestRunMission_NotFound(t *testing.T) {
	svc, runs, _ := newTestService()

	_, err := svc.RunMission(context.Background(), "nope", service.RunOptions{})
	if !errors.Is(err, errMissionNotFound) {
		t.Fatalf("Expected wrapped mission not found error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available missions") {
		t.Errorf("Expected available missions in error, got %v", err)
	}
	if len(runs.runs) != 0 {
		t.Error("Expected no run to be stored")
	}
}

func TestRunMission_Overrides(t *testing.T) {
	svc, _, missions := newTestService()

	result, err := svc.RunMission(context.Background(), "classic", service.RunOptions{Crossing: engine.AbortOnCrossing})
	if err != nil {
		t.Fatalf("Failed to run mission: %v", err)
	}
	if !result.Aborted || result.ErrorCode != "crossed_own_path" {
		t.Errorf("Expected crossed_own_path abort, got %+v", result)
	}
	if result.Report != "" {
		t.Errorf("Expected no report for aborted run, got %q", result.Report)
	}
	if missions.missions["classic"].Crossing != "" {
		t.Error("Override leaked into the stored mission")
	}
}

func TestRunOptions_UnknownCrossing(t *testing.T) {
	svc, runs, _ := newTestService()
	ctx := context.Background()
	opts := service.RunOptions{Crossing: "abrt"}

	if _, err := svc.RunMission(ctx, "classic", opts); !errors.Is(err, engine.ErrFormat) {
		t.Errorf("RunMission: expected ErrFormat, got %v", err)
	}
	if _, err := svc.RunLines(ctx, engine.DefaultMission().Lines(), opts); !errors.Is(err, engine.ErrFormat) {
		t.Errorf("RunLines: expected ErrFormat, got %v", err)
	}
	if len(runs.runs) != 0 {
		t.Errorf("Expected no runs stored, got %d", len(runs.runs))
	}
}

func TestRunLines(t *testing.T) {
	svc, _, _ := newTestService()

	lines := []string{"5 5", "0 0 S", "M"}

	result, err := svc.RunLines(context.Background(), lines, service.RunOptions{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Aborted || result.ErrorCode != "out_of_bounds" {
		t.Errorf("Expected out_of_bounds abort, got %+v", result)
	}
	if result.MissionName != "adhoc" {
		t.Errorf("Expected mission name 'adhoc', got '%s'", result.MissionName)
	}
	if len(result.Rovers) != 1 || result.Rovers[0].String() != "0 0 S" {
		t.Errorf("Expected rover to stay at 0 0 S, got %v", result.Rovers)
	}

	careful, err := svc.RunLines(context.Background(), lines, service.RunOptions{SelfPreserving: true, MissionName: "careful"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if careful.Aborted || careful.Report != "0 0 S" || len(careful.Advisories) != 1 {
		t.Errorf("Expected skipped move with one advisory, got %+v", careful)
	}
}

func TestRunLines_InvalidInput(t *testing.T) {
	svc, runs, _ := newTestService()

	tests := []struct {
		name    string
		lines   []string
		wantErr error
	}{
		{"empty", nil, engine.ErrFormat},
		{"bad plateau", []string{"five five", "1 2 N", "M"}, engine.ErrFormat},
		{"odd lines", []string{"5 5", "1 2 N"}, engine.ErrFormat},
		{"duplicate landing", []string{"5 5", "1 2 N", "", "1 2 E", ""}, engine.ErrDuplicateLanding},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := svc.RunLines(context.Background(), test.lines, service.RunOptions{})
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Expected %v, got %v", test.wantErr, err)
			}
		})
	}

	if len(runs.runs) != 0 {
		t.Errorf("Expected no runs stored for invalid input, got %d", len(runs.runs))
	}
}

func TestRunLines_CanceledContext(t *testing.T) {
	svc, _, _ := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.RunLines(ctx, engine.DefaultMission().Lines(), service.RunOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGetListDeleteRun(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.RunMission(ctx, "classic", service.RunOptions{})
	second, _ := svc.RunMission(ctx, "near_miss", service.RunOptions{})

	got, err := svc.GetRun(ctx, second.ID)
	if err != nil {
		t.Fatalf("Failed to get run: %v", err)
	}
	if got.Report != "2 2 W\n0 2 W" {
		t.Errorf("Unexpected report %q", got.Report)
	}

	list, err := svc.ListRuns(ctx)
	if err != nil {
		t.Fatalf("Failed to list runs: %v", err)
	}
	if len(list) != 2 || list[0].ID != first.ID {
		t.Errorf("Expected runs oldest first, got %v", list)
	}

	if err := svc.DeleteRun(ctx, first.ID); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if _, err := svc.GetRun(ctx, first.ID); err == nil {
		t.Error("Expected error for deleted run")
	}
	if err := svc.DeleteRun(ctx, first.ID); err == nil {
		t.Error("Expected error deleting twice")
	}
}

func TestGetRun_ConcurrentReaders(t *testing.T) {
	runs := session.NewManager()
	svc := service.NewMissionService(runs, NewMockMissionManager())
	ctx := context.Background()

	result, err := svc.RunMission(ctx, "classic", service.RunOptions{})
	if err != nil {
		t.Fatalf("Failed to run mission: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got, err := svc.GetRun(ctx, result.ID)
				if err != nil {
					t.Errorf("Failed to get run: %v", err)
					return
				}
				if got.LastAccessedAt.Before(result.CreatedAt) {
					t.Errorf("LastAccessedAt %v is before creation", got.LastAccessedAt)
				}
				if _, err := svc.ListRuns(ctx); err != nil {
					t.Errorf("Failed to list runs: %v", err)
				}
				if _, err := svc.GetFrames(ctx, result.ID, service.FrameOptions{}); err != nil {
					t.Errorf("Failed to get frames: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	if removed := runs.CleanupExpiredRuns(time.Hour); removed != 0 {
		t.Errorf("Expected recently read run to survive cleanup, removed %d", removed)
	}
}

func TestGetFrames(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	result, _ := svc.RunMission(ctx, "classic", service.RunOptions{})

	page, err := svc.GetFrames(ctx, result.ID, service.FrameOptions{Limit: 5})
	if err != nil {
		t.Fatalf("Failed to get frames: %v", err)
	}
	if page.TotalFrames != 19 || page.TotalPages != 4 || len(page.Frames) != 5 {
		t.Errorf("Unexpected page: total=%d pages=%d len=%d", page.TotalFrames, page.TotalPages, len(page.Frames))
	}
	if !page.HasNext || page.HasPrevious {
		t.Errorf("Expected first page flags, got next=%v prev=%v", page.HasNext, page.HasPrevious)
	}
	if page.Frames[0].Rover != 0 || page.Frames[0].Command != "L" {
		t.Errorf("Unexpected first frame: %+v", page.Frames[0])
	}

	last, _ := svc.GetFrames(ctx, result.ID, service.FrameOptions{Page: 4, Limit: 5})
	if len(last.Frames) != 4 || last.HasNext {
		t.Errorf("Expected 4 frames on the last page, got %d", len(last.Frames))
	}

	desc, _ := svc.GetFrames(ctx, result.ID, service.FrameOptions{Limit: 1, Order: "desc"})
	if len(desc.Frames) != 1 || desc.Frames[0].Rover != 1 || desc.Frames[0].To != (engine.Position{X: 5, Y: 1}) {
		t.Errorf("Expected final frame first, got %+v", desc.Frames)
	}

	beyond, _ := svc.GetFrames(ctx, result.ID, service.FrameOptions{Page: 10, Limit: 5})
	if beyond.Frames == nil || len(beyond.Frames) != 0 {
		t.Errorf("Expected empty non-nil frames past the end, got %v", beyond.Frames)
	}

	if _, err := svc.GetFrames(ctx, "zzzz", service.FrameOptions{}); err == nil {
		t.Error("Expected error for unknown run")
	}
}

func TestMissions(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	list, err := svc.ListMissions(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Expected 2 missions, got %d (%v)", len(list), err)
	}

	mission := &engine.MissionConfig{
		Name:    "Solo",
		Plateau: "3 3",
		Rovers:  []engine.RoverConfig{{Position: "0 0 N", Commands: "MMM"}},
	}
	if err := svc.SaveMission(ctx, "solo", mission); err != nil {
		t.Fatalf("Failed to save mission: %v", err)
	}

	loaded, err := svc.LoadMission(ctx, "solo")
	if err != nil || loaded.Name != "Solo" {
		t.Fatalf("Expected saved mission back, got %v (%v)", loaded, err)
	}

	result, err := svc.RunMission(ctx, "solo", service.RunOptions{})
	if err != nil {
		t.Fatalf("Failed to run saved mission: %v", err)
	}
	if result.Report != "0 3 N" {
		t.Errorf("Expected '0 3 N', got %q", result.Report)
	}

	if err := svc.SaveMission(ctx, "broken", &engine.MissionConfig{Name: "Broken"}); err == nil {
		t.Error("Expected validation error for broken mission")
	}
}

package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mars-rovers/game/engine"
	"github.com/wricardo/mars-rovers/game/service"
)

func createTestRun(t *testing.T) *service.Run {
	t.Helper()

	mission := engine.DefaultMission()
	sim, err := mission.Simulation()
	if err != nil {
		t.Fatalf("Failed to build simulation: %v", err)
	}
	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Failed to run simulation: %v", err)
	}
	return &service.Run{Mission: mission, Simulation: sim, Report: report}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()

	t.Run("create with custom ID", func(t *testing.T) {
		run, err := manager.Create("test-run", createTestRun(t))
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if run.ID != "test-run" {
			t.Errorf("Expected run ID 'test-run', got '%s'", run.ID)
		}
		if run.CreatedAt.IsZero() || run.LastAccessedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		run, err := manager.Create("", createTestRun(t))
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}
		if len(run.ID) != 4 {
			t.Errorf("Expected 4-character ID, got '%s'", run.ID)
		}
	})

	t.Run("duplicate ID", func(t *testing.T) {
		manager.Create("dup", createTestRun(t))
		if _, err := manager.Create("DUP", createTestRun(t)); err != ErrRunAlreadyExists {
			t.Errorf("Expected ErrRunAlreadyExists, got %v", err)
		}
	})

	t.Run("incomplete run", func(t *testing.T) {
		if _, err := manager.Create("", nil); err != ErrInvalidRun {
			t.Errorf("Expected ErrInvalidRun for nil run, got %v", err)
		}
		if _, err := manager.Create("", &service.Run{Mission: engine.DefaultMission()}); err != ErrInvalidRun {
			t.Errorf("Expected ErrInvalidRun without simulation, got %v", err)
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	manager.Create("AbCd", createTestRun(t))

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"AbCd", false},
		{"abcd", false},
		{"ABCD", false},
		{"zzzz", true},
	}

	for _, test := range tests {
		run, err := manager.Get(test.id)
		if test.wantErr {
			if err != ErrRunNotFound {
				t.Errorf("Get(%q): expected ErrRunNotFound, got %v", test.id, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Get(%q): unexpected error %v", test.id, err)
			continue
		}
		if run.Report != "1 3 N\n5 1 E" {
			t.Errorf("Get(%q): unexpected report %q", test.id, run.Report)
		}
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("del1", createTestRun(t))

	if err := manager.Delete("DEL1"); err != nil {
		t.Fatalf("Failed to delete run: %v", err)
	}
	if _, err := manager.Get("del1"); err != ErrRunNotFound {
		t.Error("Expected run to be deleted")
	}
	if err := manager.Delete("del1"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound deleting twice, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	for i := 0; i < 3; i++ {
		manager.Create(fmt.Sprintf("run%d", i), createTestRun(t))
	}

	if got := len(manager.List()); got != 3 {
		t.Errorf("Expected 3 runs, got %d", got)
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()

	active, _ := manager.Create("active", createTestRun(t))
	expired, _ := manager.Create("expired", createTestRun(t))

	// Simulate expired run
	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	deleted := manager.CleanupExpiredRuns(1 * time.Hour)
	if deleted != 1 {
		t.Errorf("Expected 1 run to be deleted, got %d", deleted)
	}

	if _, err := manager.Get("expired"); err != ErrRunNotFound {
		t.Error("Expected expired run to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active run to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()

	run, _ := manager.Create("access-test", createTestRun(t))
	originalTime := run.LastAccessedAt

	// Wait a bit to ensure time difference
	time.Sleep(10 * time.Millisecond)

	if err := manager.UpdateLastAccessed("ACCESS-TEST"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}

	updated, _ := manager.Get("access-test")
	if !updated.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}

	if err := manager.UpdateLastAccessed("missing"); err != ErrRunNotFound {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()

	runs := make([]*service.Run, 100)
	for i := range runs {
		runs[i] = createTestRun(t)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(run *service.Run) {
			defer wg.Done()
			created, err := manager.Create("", run)
			if err != nil {
				errs <- err
				return
			}
			if _, err := manager.Get(created.ID); err != nil {
				errs <- err
			}
		}(runs[i])
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 100 {
		t.Errorf("Expected 100 runs, got %d", manager.Count())
	}
}

func TestManager_RunIDGeneration(t *testing.T) {
	manager := NewManager()
	generatedIDs := make(map[string]bool)

	for i := 0; i < 50; i++ {
		run, err := manager.Create("", createTestRun(t))
		if err != nil {
			t.Fatalf("Failed to create run: %v", err)
		}

		if generatedIDs[run.ID] {
			t.Errorf("Duplicate run ID generated: %s", run.ID)
		}
		generatedIDs[run.ID] = true

		if len(run.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(run.ID))
		}
	}
}

package engine

import (
	"errors"
	"strings"
	"testing"
)

func mustParse(t *testing.T, lines []string, selfPreserving bool, opts ...Option) *Simulation {
	t.Helper()
	sim, err := ParseMission(lines, selfPreserving, opts...)
	if err != nil {
		t.Fatalf("Failed to parse mission: %v", err)
	}
	return sim
}

func TestRun_ClassicMission(t *testing.T) {
	sim := mustParse(t, DefaultMission().Lines(), false)

	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report != "1 3 N\n5 1 E" {
		t.Errorf("Expected '1 3 N\\n5 1 E', got %q", report)
	}
}

func TestRun_ClassicMissionAbortsOnCrossing(t *testing.T) {
	// Rover 1 only returns to its landing cell; rover 2 drives over (5,1)
	// twice.
	sim := mustParse(t, DefaultMission().Lines(), false, WithCrossingPolicy(AbortOnCrossing))

	report, err := sim.Run()
	if !errors.Is(err, ErrCrossedOwnPath) {
		t.Fatalf("Expected ErrCrossedOwnPath, got %v", err)
	}
	if report != "" {
		t.Errorf("Expected no report after abort, got %q", report)
	}

	var moveErr *MoveError
	if !errors.As(err, &moveErr) || moveErr.Rover != 1 {
		t.Errorf("Expected rover index 1 to fail, got %v", err)
	}
}

func TestRun_SelfPreservingSkips(t *testing.T) {
	sim := mustParse(t, []string{
		"5 5",
		"2 2 W", "M",
		"1 2 W", "MM",
		"4 4 E", "MMM",
	}, true)

	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report != "2 2 W\n0 2 W\n5 4 E" {
		t.Errorf("Unexpected report %q", report)
	}

	// Rover 1 is blocked by rover 2. Rover 2 and rover 3 stop at the edge.
	advisories := sim.Advisories()
	if len(advisories) != 4 {
		t.Fatalf("Expected 4 advisories, got %d: %v", len(advisories), advisories)
	}
	if !strings.Contains(advisories[0], "bumped") {
		t.Errorf("Expected collision advisory first, got %q", advisories[0])
	}
	if !strings.Contains(advisories[3], "rolled off") {
		t.Errorf("Expected boundary advisory last, got %q", advisories[3])
	}
}

func TestRun_NearMissOnLargePlateau(t *testing.T) {
	sim := mustParse(t, []string{
		"10 10",
		"2 2 W", "M",
		"1 2 S", "RM",
		"3 3 N", "MRM",
	}, true)

	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report != "2 2 W\n0 2 W\n4 4 E" {
		t.Errorf("Unexpected report %q", report)
	}
	// Only rover 1 is blocked; rover 2 reaches the edge without leaving it.
	if len(sim.Advisories()) != 1 {
		t.Errorf("Expected 1 advisory, got %v", sim.Advisories())
	}
}

func TestRun_Fatal(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr error
	}{
		{"collision", []string{"5 5", "1 1 N", "M", "1 3 S", "M"}, ErrCollision},
		{"off the edge", []string{"5 5", "0 0 S", "M"}, ErrOutOfBounds},
		{"second rover off the edge", []string{"5 5", "1 1 N", "M", "5 5 E", "M"}, ErrOutOfBounds},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sim := mustParse(t, test.lines, false)
			report, err := sim.Run()
			if !errors.Is(err, test.wantErr) {
				t.Errorf("Expected %v, got %v", test.wantErr, err)
			}
			if report != "" {
				t.Errorf("Expected empty report, got %q", report)
			}
			if !strings.Contains(err.Error(), "MISSION FAILED") {
				t.Errorf("Expected failure message, got %q", err.Error())
			}
		})
	}
}

func TestRun_LaterRoverSeesFinalPositions(t *testing.T) {
	// Rover 1 has left (1,1) by the time rover 2 drives into it.
	sim := mustParse(t, []string{"5 5", "1 1 E", "M", "0 1 E", "M"}, false)
	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report != "2 1 E\n1 1 E" {
		t.Errorf("Unexpected report %q", report)
	}

	sim = mustParse(t, []string{"5 5", "1 1 E", "M", "0 1 E", "MM"}, false)
	_, err = sim.Run()
	if !errors.Is(err, ErrCollision) {
		t.Fatalf("Expected ErrCollision against rover 1's final cell, got %v", err)
	}
	var moveErr *MoveError
	if errors.As(err, &moveErr) && moveErr.Target != (Position{X: 2, Y: 1}) {
		t.Errorf("Expected collision at (2,1), got %v", moveErr.Target)
	}
}

func TestRun_Twice(t *testing.T) {
	sim := mustParse(t, []string{"5 5", "1 2 N", "M"}, false)
	if _, err := sim.Run(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := sim.Run(); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("Expected ErrAlreadyRun, got %v", err)
	}
}

func TestRun_EmptyCommands(t *testing.T) {
	sim := mustParse(t, []string{"5 5", "1 2 N", "", "3 3 E", ""}, false)
	report, err := sim.Run()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report != "1 2 N\n3 3 E" {
		t.Errorf("Expected landing positions, got %q", report)
	}
}

func TestOnStep(t *testing.T) {
	sim := mustParse(t, []string{"5 5", "1 2 N", "LM", "3 3 E", "M"}, false)

	var steps []Step
	sim.OnStep(func(s Step) { steps = append(steps, s) })

	if _, err := sim.Run(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(steps))
	}

	if steps[0].Outcome != Rotated || steps[0].Facing != "W" {
		t.Errorf("Unexpected first step: %+v", steps[0])
	}
	if steps[1].Outcome != Moved || steps[1].From != (Position{X: 1, Y: 2}) || steps[1].To != (Position{X: 0, Y: 2}) {
		t.Errorf("Unexpected second step: %+v", steps[1])
	}
	last := steps[2]
	if last.Rover != 1 || last.Index != 0 || last.Command != "M" {
		t.Errorf("Unexpected last step: %+v", last)
	}
	if len(last.Snapshot.Rovers) != 2 || last.Snapshot.Rovers[1].Position != (Position{X: 4, Y: 3}) {
		t.Errorf("Unexpected snapshot: %+v", last.Snapshot)
	}
}

func TestOnStep_FatalStepIsReported(t *testing.T) {
	sim := mustParse(t, []string{"5 5", "0 0 S", "M"}, false)

	var last Step
	sim.OnStep(func(s Step) { last = s })
	sim.Run()

	if last.Outcome != Fatal || last.To != (Position{X: 0, Y: 0}) {
		t.Errorf("Expected fatal step at (0,0), got %+v", last)
	}
}

func TestSnapshot(t *testing.T) {
	sim := mustParse(t, DefaultMission().Lines(), false)
	snap := sim.Snapshot()

	if snap.Width != 5 || snap.Height != 5 {
		t.Errorf("Expected 5x5, got %dx%d", snap.Width, snap.Height)
	}
	if len(snap.Rovers) != 2 || snap.Rovers[1].Index != 1 || snap.Rovers[1].String() != "3 3 E" {
		t.Errorf("Unexpected rovers: %+v", snap.Rovers)
	}
}

func TestBuild(t *testing.T) {
	sim := NewSimulation(Grid{Width: 5, Height: 5})

	if err := sim.Build([]RoverSpec{{X: 1, Y: 1, Facing: North}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err := sim.Build([]RoverSpec{{X: 2, Y: 2, Facing: East}, {X: 1, Y: 1, Facing: South}})
	if !errors.Is(err, ErrDuplicateLanding) {
		t.Errorf("Expected ErrDuplicateLanding, got %v", err)
	}
	if len(sim.Rovers()) != 1 {
		t.Errorf("Expected failed build to add nothing, got %d rovers", len(sim.Rovers()))
	}

	if err := sim.Build([]RoverSpec{{X: 9, Y: 0, Facing: North}}); !errors.Is(err, ErrFormat) {
		t.Errorf("Expected ErrFormat for off-plateau landing, got %v", err)
	}
	if err := sim.Build([]RoverSpec{{X: 0, Y: 0, Facing: Heading('Q')}}); !errors.Is(err, ErrFormat) {
		t.Errorf("Expected ErrFormat for unknown facing, got %v", err)
	}

	if err := sim.Build([]RoverSpec{{X: 2, Y: 2, Facing: East}}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := sim.Rovers()[1].State().Index; got != 1 {
		t.Errorf("Expected second rover index 1, got %d", got)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{&MoveError{Kind: ErrCollision}, "collision"},
		{&MoveError{Kind: ErrOutOfBounds}, "out_of_bounds"},
		{&MoveError{Kind: ErrCrossedOwnPath}, "crossed_own_path"},
		{&DuplicateLandingError{}, "duplicate_landing"},
		{&FormatError{}, "format"},
		{errors.New("boom"), "internal"},
	}

	for _, test := range tests {
		if got := ErrorCode(test.err); got != test.expected {
			t.Errorf("ErrorCode(%v): expected %q, got %q", test.err, test.expected, got)
		}
	}
}

package engine

import (
	"errors"
	"strings"
)

// ErrAlreadyRun is returned when Run is called on a finished simulation.
var ErrAlreadyRun = errors.New("simulation already ran")

// Option configures a Simulation.
type Option func(*Simulation)

// WithCrossingPolicy sets what happens when a rover re-enters its own track.
// The default is AllowCrossing.
func WithCrossingPolicy(p CrossingPolicy) Option {
	return func(s *Simulation) {
		s.crossing = p
	}
}

// Simulation owns the plateau and the rovers in landing order.
type Simulation struct {
	grid       Grid
	crossing   CrossingPolicy
	rovers     []*Rover
	advisories []string
	observers  []func(Step)
	ran        bool
}

// NewSimulation creates an empty simulation on grid.
func NewSimulation(grid Grid, opts ...Option) *Simulation {
	s := &Simulation{grid: grid, crossing: AllowCrossing}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CrossingPolicy returns the policy applied to every rover.
func (s *Simulation) CrossingPolicy() CrossingPolicy {
	return s.crossing
}

// Grid returns the plateau bounds.
func (s *Simulation) Grid() Grid {
	return s.grid
}

// Build lands one rover per spec, in order. Specs are checked against the
// plateau and against the rovers already landed; on error nothing is added.
func (s *Simulation) Build(specs []RoverSpec) error {
	claimed := make(map[Position]int, len(s.rovers)+len(specs))
	for _, r := range s.rovers {
		claimed[r.Position()]++
	}

	var dups []Position
	for _, spec := range specs {
		p := Position{X: spec.X, Y: spec.Y}
		if !s.grid.Contains(p.X, p.Y) {
			return &FormatError{Input: RoverState{Position: p, Facing: spec.Facing.String()}.String(), Reason: "rover landed off the plateau"}
		}
		if _, ok := unitVectors[spec.Facing]; !ok {
			return &FormatError{Input: RoverState{Position: p, Facing: spec.Facing.String()}.String(), Reason: "unknown facing"}
		}
		claimed[p]++
		if claimed[p] == 2 {
			dups = append(dups, p)
		}
	}
	if len(dups) > 0 {
		return &DuplicateLandingError{Cells: dups}
	}

	for _, spec := range specs {
		rover := NewRover(spec)
		rover.Crossing = s.crossing
		rover.index = len(s.rovers)
		s.rovers = append(s.rovers, rover)
	}
	return nil
}

// Rovers returns the rovers in landing order.
func (s *Simulation) Rovers() []*Rover {
	return s.rovers
}

// Advisories returns the notices emitted by self-preserving rovers that
// skipped a move.
func (s *Simulation) Advisories() []string {
	return s.advisories
}

// OnStep registers fn to be called after every executed command.
func (s *Simulation) OnStep(fn func(Step)) {
	s.observers = append(s.observers, fn)
}

// Snapshot returns the plateau size and every rover's live position.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Width:  s.grid.Width,
		Height: s.grid.Height,
		Rovers: make([]RoverState, len(s.rovers)),
	}
	for i, r := range s.rovers {
		snap.Rovers[i] = r.State()
	}
	return snap
}

// Run executes every rover's commands, one rover after another, and returns
// the report. A fatal move aborts the whole mission and no report is
// returned.
func (s *Simulation) Run() (string, error) {
	if s.ran {
		return "", ErrAlreadyRun
	}
	s.ran = true

	for i := range s.rovers {
		if err := s.runRover(i); err != nil {
			return "", err
		}
	}
	return s.Report(), nil
}

// Report joins every rover's "x y F" line in landing order.
func (s *Simulation) Report() string {
	lines := make([]string, len(s.rovers))
	for i, r := range s.rovers {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// runRover executes rover i's commands. The other rovers' cells are taken
// once up front: rovers earlier in landing order have finished and later ones
// have not started, so nothing else moves while rover i drives.
func (s *Simulation) runRover(i int) error {
	rover := s.rovers[i]
	occupied := s.occupiedExcept(i)

	for n, cmd := range rover.Commands {
		step := Step{Rover: i, Index: n, Command: cmd.String(), From: rover.Position()}

		switch cmd {
		case RotateLeft:
			rover.Rotate(Left)
			step.Outcome = Rotated
		case RotateRight:
			rover.Rotate(Right)
			step.Outcome = Rotated
		case Advance:
			res, err := rover.Advance(occupied, s.grid)
			step.Outcome = res.Outcome
			if err != nil {
				s.emit(step, rover)
				return err
			}
			if res.Advisory != "" {
				step.Advisory = res.Advisory
				s.advisories = append(s.advisories, res.Advisory)
			}
		}
		s.emit(step, rover)
	}
	return nil
}

func (s *Simulation) emit(step Step, rover *Rover) {
	if len(s.observers) == 0 {
		return
	}
	step.To = rover.Position()
	step.Facing = rover.Facing.String()
	step.Snapshot = s.Snapshot()
	for _, fn := range s.observers {
		fn(step)
	}
}

func (s *Simulation) occupiedExcept(i int) map[Position]bool {
	occupied := make(map[Position]bool, len(s.rovers))
	for j, r := range s.rovers {
		if j != i {
			occupied[r.Position()] = true
		}
	}
	return occupied
}

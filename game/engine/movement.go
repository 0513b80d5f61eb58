package engine

import (
	"fmt"
	"strings"
)

// Rover is one of potentially many rovers on the plateau that can turn and
// move. It is mutated only by its own Rotate and Advance calls.
type Rover struct {
	X              int
	Y              int
	Facing         Heading
	Commands       []Command
	SelfPreserving bool
	Crossing       CrossingPolicy

	index   int
	visited map[Position]bool
}

// NewRover lands a rover. The landing cell is not recorded as visited, so a
// rover may drive back onto it once.
func NewRover(spec RoverSpec) *Rover {
	return &Rover{
		X:              spec.X,
		Y:              spec.Y,
		Facing:         spec.Facing,
		Commands:       append([]Command(nil), spec.Commands...),
		SelfPreserving: spec.SelfPreserving,
		visited:        make(map[Position]bool),
	}
}

// Position returns the rover's current cell.
func (r *Rover) Position() Position {
	return Position{X: r.X, Y: r.Y}
}

// State returns a read-only view of the rover.
func (r *Rover) State() RoverState {
	return RoverState{Index: r.index, Position: r.Position(), Facing: r.Facing.String()}
}

// String matches the report format, e.g. "1 3 N".
func (r *Rover) String() string {
	return fmt.Sprintf("%d %d %s", r.X, r.Y, r.Facing)
}

// Visited reports whether the rover has already driven onto p.
func (r *Rover) Visited(p Position) bool {
	return r.visited[p]
}

// Rotate turns the rover 90 degrees and returns the new heading.
func (r *Rover) Rotate(direction Turn) Heading {
	switch direction {
	case Left:
		r.Facing = counterClockwise[r.Facing]
	case Right:
		r.Facing = clockwise[r.Facing]
	}
	return r.Facing
}

// AdvanceResult describes a single advance attempt.
type AdvanceResult struct {
	Outcome  Outcome
	Position Position
	Advisory string
}

// Advance moves the rover one cell forward. occupied holds the cells of every
// other rover. The checks run in a fixed order: collision, then bounds, then
// the rover's own path. A self-preserving rover skips a move that would
// collide or leave the plateau and gets an advisory instead of an error.
// The own-path check only applies under AbortOnCrossing.
func (r *Rover) Advance(occupied map[Position]bool, grid Grid) (AdvanceResult, error) {
	from := r.Position()
	step, ok := unitVectors[r.Facing]
	if !ok {
		return AdvanceResult{Outcome: Fatal, Position: from},
			&FormatError{Input: r.String(), Reason: "unknown facing"}
	}
	target := from.Add(step)

	if occupied[target] {
		if r.SelfPreserving {
			return AdvanceResult{
				Outcome:  Skipped,
				Position: from,
				Advisory: fmt.Sprintf("rover %d almost bumped into another rover at %v, skipping this move", r.index+1, target),
			}, nil
		}
		return AdvanceResult{Outcome: Fatal, Position: from},
			&MoveError{Kind: ErrCollision, Rover: r.index, From: from, Target: target}
	}

	if !grid.Contains(target.X, target.Y) {
		if r.SelfPreserving {
			return AdvanceResult{
				Outcome:  Skipped,
				Position: from,
				Advisory: fmt.Sprintf("rover %d almost rolled off the plateau at %v, skipping this move", r.index+1, target),
			}, nil
		}
		return AdvanceResult{Outcome: Fatal, Position: from},
			&MoveError{Kind: ErrOutOfBounds, Rover: r.index, From: from, Target: target}
	}

	// Fatal whether or not the rover is self-preserving.
	if r.Crossing == AbortOnCrossing && r.visited[target] {
		return AdvanceResult{Outcome: Fatal, Position: from},
			&MoveError{Kind: ErrCrossedOwnPath, Rover: r.index, From: from, Target: target}
	}

	if r.visited == nil {
		r.visited = make(map[Position]bool)
	}
	r.X, r.Y = target.X, target.Y
	r.visited[target] = true
	return AdvanceResult{Outcome: Moved, Position: target}, nil
}

// CommandString renders the rover's pending commands, e.g. "LMLMLMLMM".
func (r *Rover) CommandString() string {
	var b strings.Builder
	for _, c := range r.Commands {
		b.WriteByte(byte(c))
	}
	return b.String()
}

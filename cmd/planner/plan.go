package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/mars-rovers/game/engine"
)

// ErrUnreachable means no command sequence brings the rover to the goal.
var ErrUnreachable = errors.New("goal unreachable")

// Goal is the cell a rover should finish on. AnyFacing ignores Facing.
type Goal struct {
	Position  engine.Position
	Facing    engine.Heading
	AnyFacing bool
}

func (g Goal) String() string {
	if g.AnyFacing {
		return fmt.Sprintf("%d %d", g.Position.X, g.Position.Y)
	}
	return fmt.Sprintf("%d %d %s", g.Position.X, g.Position.Y, g.Facing)
}

// Reached reports whether a report line such as "1 3 N" satisfies the goal.
func (g Goal) Reached(line string) bool {
	if g.AnyFacing {
		return strings.HasPrefix(line, g.String()+" ")
	}
	return line == g.String()
}

// ParseGoal reads "x y F" or "x y" and checks the cell is on the plateau.
func ParseGoal(line string, grid engine.Grid) (Goal, error) {
	fields := strings.Fields(line)
	anyFacing := len(fields) == 2
	if anyFacing {
		fields = append(fields, string(engine.North))
	}

	specs, err := engine.ParseRovers([]string{strings.Join(fields, " "), ""}, grid, false)
	if err != nil {
		return Goal{}, fmt.Errorf("goal: %w", err)
	}
	return Goal{
		Position:  engine.Position{X: specs[0].X, Y: specs[0].Y},
		Facing:    specs[0].Facing,
		AnyFacing: anyFacing,
	}, nil
}

type pose struct {
	pos    engine.Position
	facing engine.Heading
}

// Plan finds a shortest command sequence that drives a rover from start to
// goal without touching the parked rovers or the plateau edge. Rovers are
// moved through the engine so every step follows the same rules as a run.
func Plan(grid engine.Grid, start engine.RoverSpec, goal Goal, parked []engine.RoverSpec) ([]engine.Command, error) {
	occupied := make(map[engine.Position]bool, len(parked))
	for _, p := range parked {
		occupied[engine.Position{X: p.X, Y: p.Y}] = true
	}
	if occupied[goal.Position] {
		return nil, fmt.Errorf("%w: %v is taken by a parked rover", ErrUnreachable, goal.Position)
	}

	done := func(p pose) bool {
		return p.pos == goal.Position && (goal.AnyFacing || p.facing == goal.Facing)
	}

	type queueItem struct {
		pose pose
		path []engine.Command
	}

	first := pose{pos: engine.Position{X: start.X, Y: start.Y}, facing: start.Facing}
	if done(first) {
		return []engine.Command{}, nil
	}

	queue := []queueItem{{pose: first}}
	visited := map[pose]bool{first: true}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, cmd := range []engine.Command{engine.Advance, engine.RotateLeft, engine.RotateRight} {
			next, ok := step(current.pose, cmd, occupied, grid)
			if !ok || visited[next] {
				continue
			}

			path := append(append([]engine.Command{}, current.path...), cmd)
			if done(next) {
				return path, nil
			}

			visited[next] = true
			queue = append(queue, queueItem{pose: next, path: path})
		}
	}

	return nil, fmt.Errorf("%w: no route from %v to %v", ErrUnreachable, first.pos, goal.Position)
}

// step applies one command to a throwaway rover.
func step(from pose, cmd engine.Command, occupied map[engine.Position]bool, grid engine.Grid) (pose, bool) {
	rover := engine.NewRover(engine.RoverSpec{X: from.pos.X, Y: from.pos.Y, Facing: from.facing})

	switch cmd {
	case engine.RotateLeft:
		rover.Rotate(engine.Left)
	case engine.RotateRight:
		rover.Rotate(engine.Right)
	case engine.Advance:
		if _, err := rover.Advance(occupied, grid); err != nil {
			return from, false
		}
	}
	return pose{pos: rover.Position(), facing: rover.Facing}, true
}

// MissionLines lays out the parked rovers first, with no commands, and the
// planned rover last.
func MissionLines(plateau string, parked []string, start string, commands []engine.Command) []string {
	lines := []string{plateau}
	for _, p := range parked {
		lines = append(lines, p, "")
	}

	var sb strings.Builder
	for _, c := range commands {
		sb.WriteString(c.String())
	}
	return append(lines, start, sb.String())
}

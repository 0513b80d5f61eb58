// Command analyze prints quick, human-readable heuristics about the mission
// files in the project's missions directory. For each rover it summarizes the
// commands, where the rover ends up, how far that is from where it landed,
// and how many moves went to backtracking. It also flags skipped moves and
// rovers that re-enter their own path, which would fail under crossing: abort.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mars-rovers/game/engine"
)

// RoverAnalysis is what analyze learns about one rover from a dry run.
type RoverAnalysis struct {
	Landing  engine.Position
	Final    engine.RoverState
	Commands map[engine.Command]int
	Moved    int
	Skipped  int
	Revisits int
	Distance int
	Finished bool
}

// Backtracked is the number of moves that did not add to the net distance.
func (a RoverAnalysis) Backtracked() int {
	return a.Moved - a.Distance
}

// MissionAnalysis is the dry-run outcome of a whole mission.
type MissionAnalysis struct {
	Rovers []RoverAnalysis
	Err    error
}

func main() {
	missionDir := "missions"
	if len(os.Args) > 1 {
		missionDir = os.Args[1]
	}

	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, _ := filepath.Glob(filepath.Join(missionDir, pattern))
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(file))
		if err := analyzeMission(os.Stdout, file); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// analyzeRovers dry-runs mission and collects per-rover statistics. A
// mission that aborts is still analyzed; the failure is kept in Err and the
// statistics cover every command executed before it.
func analyzeRovers(mission *engine.MissionConfig) (*MissionAnalysis, error) {
	_, specs, err := engine.ParseSpecs(mission.Lines(), mission.SelfPreserving)
	if err != nil {
		return nil, err
	}
	sim, err := mission.Simulation()
	if err != nil {
		return nil, err
	}

	analysis := &MissionAnalysis{Rovers: make([]RoverAnalysis, len(specs))}
	paths := make([]map[engine.Position]bool, len(specs))
	for i, spec := range specs {
		analysis.Rovers[i] = RoverAnalysis{
			Landing:  engine.Position{X: spec.X, Y: spec.Y},
			Commands: engine.CountCommands(spec.Commands),
		}
		paths[i] = make(map[engine.Position]bool)
	}

	sim.OnStep(func(step engine.Step) {
		a := &analysis.Rovers[step.Rover]
		switch step.Outcome {
		case engine.Moved:
			a.Moved++
			if paths[step.Rover][step.To] {
				a.Revisits++
			}
			paths[step.Rover][step.To] = true
		case engine.Skipped:
			a.Skipped++
		}
	})

	_, analysis.Err = sim.Run()

	var moveErr *engine.MoveError
	failed := len(specs)
	if errors.As(analysis.Err, &moveErr) {
		failed = moveErr.Rover
	}

	for i, state := range sim.Snapshot().Rovers {
		a := &analysis.Rovers[i]
		a.Final = state
		a.Distance = engine.ManhattanDistance(a.Landing, state.Position)
		a.Finished = i < failed
	}
	return analysis, nil
}

// analyzeMission loads a mission file and writes its analysis to out.
func analyzeMission(out io.Writer, path string) error {
	mission, err := engine.LoadMissionConfig(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Name: %s\n", mission.Name)
	fmt.Fprintf(out, "Plateau: %s\n", mission.Plateau)
	fmt.Fprintf(out, "Rovers: %d\n", len(mission.Rovers))
	fmt.Fprintf(out, "Self-preserving: %t, Crossing: %s\n", mission.SelfPreserving, mission.CrossingPolicy())

	analysis, err := analyzeRovers(mission)
	if err != nil {
		return err
	}

	for i, a := range analysis.Rovers {
		fmt.Fprintf(out, "Rover %d: (%d, %d) -> %s  L %d, R %d, M %d\n",
			i+1, a.Landing.X, a.Landing.Y, a.Final,
			a.Commands[engine.RotateLeft], a.Commands[engine.RotateRight], a.Commands[engine.Advance])
		fmt.Fprintf(out, "   moved %d, net distance %d, backtracked %d\n", a.Moved, a.Distance, a.Backtracked())

		if !a.Finished {
			fmt.Fprintf(out, "   ⚠️  did not finish its commands\n")
		}
		if a.Skipped > 0 {
			fmt.Fprintf(out, "   ⚠️  %d moves skipped to avoid a collision or the edge\n", a.Skipped)
		}
		if a.Revisits > 0 && mission.CrossingPolicy() == engine.AllowCrossing {
			fmt.Fprintf(out, "   ⚠️  re-enters its own path %d time(s); crossing: abort would fail this mission\n", a.Revisits)
		}
	}

	if analysis.Err != nil {
		fmt.Fprintf(out, "⚠️  CRITICAL: mission aborts (%s): %v\n", engine.ErrorCode(analysis.Err), analysis.Err)
	} else {
		fmt.Fprintf(out, "✅ Mission completes\n")
	}
	return nil
}

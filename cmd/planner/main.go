// Command planner works out the commands that drive a rover to a goal cell.
// Other rovers can be parked on the plateau; the planned route goes around
// them and never rolls off the edge or back over its own tracks. The route
// is then checked by running the mission, on a mars-rovers server when --api
// is set and locally otherwise.
//
//	planner --plateau "5 5" --start "0 0 E" --goal "2 0 E" --parked "1 0 N"
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mars-rovers/game/engine"
)

type planOptions struct {
	plateau string
	start   string
	goal    string
	parked  []string
	apiURL  string
}

func main() {
	app := &cli.Command{
		Name:  "planner",
		Usage: "Plan rover commands that reach a goal cell",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "plateau", Value: "5 5", Usage: "Upper-right corner of the plateau"},
			&cli.StringFlag{Name: "start", Required: true, Usage: "Landing position, e.g. \"1 2 N\""},
			&cli.StringFlag{Name: "goal", Required: true, Usage: "Goal cell \"x y\" or pose \"x y F\""},
			&cli.StringSliceFlag{Name: "parked", Usage: "Position of a rover that stays put (repeatable)"},
			&cli.StringFlag{Name: "api", Usage: "mars-rovers server to verify the plan on", Sources: cli.EnvVars("MARS_ROVERS_API")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return plan(ctx, os.Stdout, planOptions{
				plateau: cmd.String("plateau"),
				start:   cmd.String("start"),
				goal:    cmd.String("goal"),
				parked:  cmd.StringSlice("parked"),
				apiURL:  cmd.String("api"),
			})
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// plan validates the mission, finds the commands and verifies them.
func plan(ctx context.Context, out io.Writer, opts planOptions) error {
	withoutCommands := []string{opts.plateau}
	for _, p := range opts.parked {
		withoutCommands = append(withoutCommands, p, "")
	}
	withoutCommands = append(withoutCommands, opts.start, "")

	grid, specs, err := engine.ParseSpecs(withoutCommands, false)
	if err != nil {
		return err
	}
	goal, err := ParseGoal(opts.goal, grid)
	if err != nil {
		return err
	}

	start := specs[len(specs)-1]
	commands, err := Plan(grid, start, goal, specs[:len(specs)-1])
	if err != nil {
		return err
	}

	lines := MissionLines(opts.plateau, opts.parked, opts.start, commands)
	fmt.Fprintf(out, "Commands: %s (%d)\n", lines[len(lines)-1], len(commands))
	fmt.Fprintln(out, strings.Join(lines, "\n"))

	report, where, err := verify(ctx, opts.apiURL, lines)
	if err != nil {
		return fmt.Errorf("verify plan: %w", err)
	}
	reportLines := strings.Split(report, "\n")
	final := reportLines[len(reportLines)-1]
	if !goal.Reached(final) {
		return fmt.Errorf("verify plan: rover finished at %s, wanted %s", final, goal)
	}
	fmt.Fprintf(out, "✅ Verified %s: %s\n", where, final)
	return nil
}

// verify runs lines under AbortOnCrossing and returns the report.
func verify(ctx context.Context, apiURL string, lines []string) (string, string, error) {
	if apiURL != "" {
		result, err := NewClient(apiURL).CreateRun(ctx, "planner", lines)
		if err != nil {
			return "", "", err
		}
		if result.Aborted {
			return "", "", fmt.Errorf("run %s aborted (%s): %s", result.ID, result.ErrorCode, result.Error)
		}
		return result.Report, "on run " + result.ID, nil
	}

	sim, err := engine.ParseMission(lines, false, engine.WithCrossingPolicy(engine.AbortOnCrossing))
	if err != nil {
		return "", "", err
	}
	report, err := sim.Run()
	if err != nil {
		return "", "", err
	}
	return report, "locally", nil
}

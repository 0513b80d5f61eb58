package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mars-rovers/api"
	"github.com/wricardo/mars-rovers/game/config"
	"github.com/wricardo/mars-rovers/game/engine"
)

// runOptions collects the run command's flags.
type runOptions struct {
	file           string
	mission        string
	missionDir     string
	selfPreserving bool
	crossing       string
	interactive    bool
	trace          bool
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run a mission and print the final rover positions",
		ArgsUsage: "[FILE]",
		Description: `Reads the mission from FILE (mission text, or a .json/.yaml mission file),
from a stored mission with --mission, or from stdin until the first blank line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "self-preserving",
				Aliases: []string{"s"},
				Usage:   "Skip moves that would collide or leave the plateau",
			},
			&cli.StringFlag{
				Name:  "crossing",
				Usage: "Policy when a rover re-enters its own path: allow or abort",
			},
			&cli.StringFlag{
				Name:    "mission",
				Aliases: []string{"m"},
				Usage:   "Stored mission to run",
			},
			missionDirFlag(),
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Prompt for the mission",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print every executed command to stderr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			root := cmd.Root()
			return runMission(ctx, root.Reader, root.Writer, root.ErrWriter, runOptions{
				file:           cmd.Args().First(),
				mission:        cmd.String("mission"),
				missionDir:     cmd.String("mission-dir"),
				selfPreserving: cmd.Bool("self-preserving"),
				crossing:       cmd.String("crossing"),
				interactive:    cmd.Bool("interactive"),
				trace:          cmd.Bool("trace"),
			})
		},
	}
}

// runMission loads the mission, runs it and prints the report to out.
// Advisories and the trace go to errOut.
func runMission(ctx context.Context, in io.Reader, out, errOut io.Writer, opts runOptions) error {
	crossing := engine.CrossingPolicy(strings.ToLower(opts.crossing))
	if crossing != "" && crossing != engine.AllowCrossing && crossing != engine.AbortOnCrossing {
		return fmt.Errorf("crossing must be '%s' or '%s', got %q", engine.AllowCrossing, engine.AbortOnCrossing, opts.crossing)
	}

	mission, err := loadMission(in, out, opts)
	if err != nil {
		return err
	}
	if opts.selfPreserving {
		mission.SelfPreserving = true
	}
	if crossing != "" {
		mission.Crossing = string(crossing)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	sim, err := mission.Simulation()
	if err != nil {
		return err
	}
	if opts.trace {
		sim.OnStep(func(step engine.Step) {
			fmt.Fprintln(errOut, formatStep(step))
		})
	}

	report, runErr := sim.Run()
	for _, advisory := range sim.Advisories() {
		fmt.Fprintf(errOut, "advisory: %s\n", advisory)
	}
	if runErr != nil {
		return fmt.Errorf("mission failed: %w", runErr)
	}

	fmt.Fprintln(out, report)
	return nil
}

// loadMission picks the mission source named by opts.
func loadMission(in io.Reader, out io.Writer, opts runOptions) (*engine.MissionConfig, error) {
	switch {
	case opts.mission != "":
		manager, err := config.NewManager(opts.missionDir)
		if err != nil {
			return nil, err
		}
		return manager.LoadMission(opts.mission)

	case opts.interactive:
		lines, selfPreserving, err := promptMission(in, out)
		if err != nil {
			return nil, err
		}
		return missionFromLines(lines, selfPreserving || opts.selfPreserving)

	case opts.file != "" && opts.file != "-":
		switch strings.ToLower(filepath.Ext(opts.file)) {
		case ".json", ".yaml", ".yml":
			return engine.LoadMissionConfig(opts.file)
		}
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read mission: %w", err)
		}
		return missionFromLines(api.SplitInput(string(data)), opts.selfPreserving)
	}

	lines, err := readLines(bufio.NewScanner(in), nil, "")
	if err != nil {
		return nil, err
	}
	return missionFromLines(lines, opts.selfPreserving)
}

func missionFromLines(lines []string, selfPreserving bool) (*engine.MissionConfig, error) {
	if _, _, err := engine.ParseSpecs(lines, selfPreserving); err != nil {
		return nil, err
	}
	return engine.MissionFromLines("adhoc", lines, selfPreserving), nil
}

// readLines reads until the first blank line or EOF, writing prompt before
// each line when out is set.
func readLines(scanner *bufio.Scanner, out io.Writer, prompt string) ([]string, error) {
	var lines []string
	for {
		if out != nil {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mission: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no mission given")
	}
	return lines, nil
}

// promptMission asks for the self-preserving setting and the mission lines.
func promptMission(in io.Reader, out io.Writer) ([]string, bool, error) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Rovers are in danger of running into each other, or off the edge of the plateau...")
	selfPreserving, err := askYesNo(scanner, out, `Will these rovers be "self-preserving"? `)
	if err != nil {
		return nil, false, err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Enter the plateau size, then each rover's position and commands, for example:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "    5 5")
	fmt.Fprintln(out, "    1 2 N")
	fmt.Fprintln(out, "    LMLMLMLMM")
	fmt.Fprintln(out, "    3 3 E")
	fmt.Fprintln(out, "    MMRMMRMRRM")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Hit ENTER on an empty line when finished.")

	lines, err := readLines(scanner, out, "> ")
	if err != nil {
		return nil, false, err
	}
	return lines, selfPreserving, nil
}

func askYesNo(scanner *bufio.Scanner, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)
	for scanner.Scan() {
		switch strings.ToUpper(strings.TrimSpace(scanner.Text())) {
		case "Y", "YES":
			return true, nil
		case "N", "NO":
			return false, nil
		}
		fmt.Fprint(out, "Please type `Y` or `N`: ")
	}
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, io.ErrUnexpectedEOF
}

func formatStep(step engine.Step) string {
	line := fmt.Sprintf("rover %d #%d %s %s", step.Rover, step.Index, step.Command, step.Outcome)
	if step.From != step.To {
		line += fmt.Sprintf(" (%d,%d)->(%d,%d)", step.From.X, step.From.Y, step.To.X, step.To.Y)
	}
	line += " facing " + step.Facing
	if step.Advisory != "" {
		line += ": " + step.Advisory
	}
	return line
}

func missionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "missions",
		Usage: "List stored missions",
		Flags: []cli.Flag{missionDirFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listMissions(cmd.Root().Writer, cmd.String("mission-dir"))
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print a stored mission as mission text",
				ArgsUsage: "NAME",
				Flags:     []cli.Flag{missionDirFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one mission name")
					}
					return showMission(cmd.Root().Writer, cmd.String("mission-dir"), cmd.Args().First())
				},
			},
		},
	}
}

func listMissions(out io.Writer, missionDir string) error {
	manager, err := config.NewManager(missionDir)
	if err != nil {
		return err
	}
	missions, err := manager.ListMissions()
	if err != nil {
		return err
	}

	if len(missions) == 0 {
		fmt.Fprintf(out, "No missions in %s\n", missionDir)
		return nil
	}
	for _, m := range missions {
		fmt.Fprintf(out, "%-16s %-24s plateau %-6s rovers %d  %s\n",
			m.MissionID, m.Name, m.Plateau, m.Rovers, m.Description)
	}
	return nil
}

func showMission(out io.Writer, missionDir, name string) error {
	manager, err := config.NewManager(missionDir)
	if err != nil {
		return err
	}
	mission, err := manager.LoadMission(name)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "# %s\n", mission.Name)
	if mission.Description != "" {
		fmt.Fprintf(out, "# %s\n", mission.Description)
	}
	fmt.Fprintf(out, "# self-preserving: %t, crossing: %s\n", mission.SelfPreserving, mission.CrossingPolicy())
	fmt.Fprintln(out, strings.Join(mission.Lines(), "\n"))
	return nil
}

package engine

import (
	"strconv"
	"strings"
)

// ParsePlateau reads the plateau's upper-right corner from a line such as
// " 5  5 ". The lower-left corner is always (0,0).
func ParsePlateau(line string) (Grid, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Grid{}, &FormatError{Input: line, Reason: "plateau needs exactly two non-negative integers"}
	}

	dims := make([]int, 2)
	for i, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return Grid{}, &FormatError{Input: line, Reason: "plateau needs exactly two non-negative integers"}
		}
		dims[i] = n
	}

	if dims[0]+dims[1] <= MinPlateauExtent {
		return Grid{}, &FormatError{Input: line, Reason: "plateau must be at least 1 x 1"}
	}
	return Grid{Width: dims[0], Height: dims[1]}, nil
}

// ParseRovers reads rover landings from pairs of lines: a position line
// ("1 2 N") followed by a commands line ("LMLMLMLMM"). Coordinates are
// single digits on the plateau; the facing letter and the commands are
// case-insensitive and spaces are ignored. Nothing is returned unless every
// pair is valid and no two rovers land on the same cell.
func ParseRovers(lines []string, grid Grid, selfPreserving bool) ([]RoverSpec, error) {
	if len(lines) == 0 || len(lines)%2 != 0 {
		return nil, &FormatError{
			Input:  strings.Join(lines, "\n"),
			Reason: "every rover needs a position line and a commands line",
		}
	}

	specs := make([]RoverSpec, 0, len(lines)/2)
	for i := 0; i < len(lines); i += 2 {
		spec, err := parsePosition(lines[i], grid)
		if err != nil {
			return nil, err
		}
		commands, err := ParseCommands(lines[i+1])
		if err != nil {
			return nil, err
		}
		spec.Commands = commands
		spec.SelfPreserving = selfPreserving
		specs = append(specs, spec)
	}

	if dups := duplicateLandings(specs); len(dups) > 0 {
		return nil, &DuplicateLandingError{Cells: dups}
	}
	return specs, nil
}

// ParseCommands strips whitespace from line and returns its L, R and M
// commands in order. An empty line is a rover with nothing to do.
func ParseCommands(line string) ([]Command, error) {
	compact := strings.Join(strings.Fields(line), "")
	commands := make([]Command, 0, len(compact))
	for i := 0; i < len(compact); i++ {
		cmd, ok := ParseCommand(compact[i])
		if !ok {
			return nil, &FormatError{Input: line, Reason: "commands may only contain L, R and M"}
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// ParseSpecs splits a mission into its plateau line and rover lines.
func ParseSpecs(lines []string, selfPreserving bool) (Grid, []RoverSpec, error) {
	if len(lines) == 0 {
		return Grid{}, nil, &FormatError{Reason: "mission is empty"}
	}
	grid, err := ParsePlateau(lines[0])
	if err != nil {
		return Grid{}, nil, err
	}
	specs, err := ParseRovers(lines[1:], grid, selfPreserving)
	if err != nil {
		return Grid{}, nil, err
	}
	return grid, specs, nil
}

// ParseMission parses lines and returns a simulation ready to run.
func ParseMission(lines []string, selfPreserving bool, opts ...Option) (*Simulation, error) {
	grid, specs, err := ParseSpecs(lines, selfPreserving)
	if err != nil {
		return nil, err
	}
	sim := NewSimulation(grid, opts...)
	if err := sim.Build(specs); err != nil {
		return nil, err
	}
	return sim, nil
}

func parsePosition(line string, grid Grid) (RoverSpec, error) {
	fail := &FormatError{
		Input:  line,
		Reason: "use two digits between 0 and the plateau size and a direction (N, E, S, W)",
	}

	compact := strings.Join(strings.Fields(line), "")
	if len(compact) != 3 || !isDigit(compact[0]) || !isDigit(compact[1]) {
		return RoverSpec{}, fail
	}
	facing, ok := ParseHeading(compact[2])
	if !ok {
		return RoverSpec{}, fail
	}

	x, y := int(compact[0]-'0'), int(compact[1]-'0')
	if !grid.Contains(x, y) {
		return RoverSpec{}, fail
	}
	return RoverSpec{X: x, Y: y, Facing: facing}, nil
}

func duplicateLandings(specs []RoverSpec) []Position {
	claimed := make(map[Position]int, len(specs))
	var dups []Position
	for _, spec := range specs {
		p := Position{X: spec.X, Y: spec.Y}
		claimed[p]++
		if claimed[p] == 2 {
			dups = append(dups, p)
		}
	}
	return dups
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

package engine

import "fmt"

// Heading is one of the four cardinal directions a rover can face.
type Heading byte

const (
	North Heading = 'N'
	East  Heading = 'E'
	South Heading = 'S'
	West  Heading = 'W'
)

// Turn is a rotation direction.
type Turn byte

const (
	Left  Turn = 'L'
	Right Turn = 'R'
)

// Command is a single rover instruction.
type Command byte

const (
	RotateLeft  Command = 'L'
	RotateRight Command = 'R'
	Advance     Command = 'M'
)

// Outcome reports what happened to a single command.
type Outcome string

const (
	Rotated Outcome = "rotated"
	Moved   Outcome = "moved"
	Skipped Outcome = "skipped"
	Fatal   Outcome = "fatal"
)

// CrossingPolicy decides what happens when a rover drives back onto a cell
// it has already driven over.
type CrossingPolicy string

const (
	// AllowCrossing lets rovers re-enter their own tracks.
	AllowCrossing CrossingPolicy = "allow"
	// AbortOnCrossing fails the mission with ErrCrossedOwnPath, whether or
	// not the rover is self-preserving.
	AbortOnCrossing CrossingPolicy = "abort"
)

// MinPlateauExtent is the exclusive lower bound on width+height.
const MinPlateauExtent = 1

// Rotation and movement tables, shared by every rover.
var (
	clockwise        = map[Heading]Heading{North: East, East: South, South: West, West: North}
	counterClockwise = map[Heading]Heading{North: West, West: South, South: East, East: North}

	unitVectors = map[Heading]Position{
		North: {X: 0, Y: 1},
		East:  {X: 1, Y: 0},
		South: {X: 0, Y: -1},
		West:  {X: -1, Y: 0},
	}
)

// ParseHeading accepts N, E, S or W in either case.
func ParseHeading(c byte) (Heading, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch h := Heading(c); h {
	case North, East, South, West:
		return h, true
	}
	return 0, false
}

func (h Heading) String() string {
	return string(rune(h))
}

// MarshalText encodes the heading as its letter.
func (h Heading) MarshalText() ([]byte, error) {
	return []byte{byte(h)}, nil
}

// UnmarshalText decodes a single heading letter.
func (h *Heading) UnmarshalText(text []byte) error {
	if len(text) == 1 {
		if parsed, ok := ParseHeading(text[0]); ok {
			*h = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid heading %q", text)
}

// ParseCommand accepts L, R or M in either case.
func ParseCommand(c byte) (Command, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	switch cmd := Command(c); cmd {
	case RotateLeft, RotateRight, Advance:
		return cmd, true
	}
	return 0, false
}

func (c Command) String() string {
	return string(rune(c))
}

// MarshalText encodes the command as its letter.
func (c Command) MarshalText() ([]byte, error) {
	return []byte{byte(c)}, nil
}

// UnmarshalText decodes a single command letter.
func (c *Command) UnmarshalText(text []byte) error {
	if len(text) == 1 {
		if parsed, ok := ParseCommand(text[0]); ok {
			*c = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid command %q", text)
}

// Position represents x,y coordinates on the plateau
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p shifted by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Grid is the plateau. The lower-left corner is (0,0) and the upper-right
// corner is (Width,Height); both corners are on the plateau.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether (x, y) lies on the plateau.
func (g Grid) Contains(x, y int) bool {
	return x >= 0 && x <= g.Width && y >= 0 && y <= g.Height
}

// RoverSpec is a validated landing: where a rover starts and what it will do.
type RoverSpec struct {
	X              int       `json:"x"`
	Y              int       `json:"y"`
	Facing         Heading   `json:"facing"`
	Commands       []Command `json:"commands"`
	SelfPreserving bool      `json:"self_preserving"`
}

// RoverState is a read-only view of a rover at one instant.
type RoverState struct {
	Index    int      `json:"index"`
	Position Position `json:"position"`
	Facing   string   `json:"facing"`
}

// String matches the report format, e.g. "1 3 N".
func (s RoverState) String() string {
	return fmt.Sprintf("%d %d %s", s.Position.X, s.Position.Y, s.Facing)
}

// Snapshot is what an external renderer needs to draw the plateau.
type Snapshot struct {
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Rovers []RoverState `json:"rovers"`
}

// Step records one executed command and the plateau right after it.
type Step struct {
	Rover    int      `json:"rover"`
	Index    int      `json:"index"`
	Command  string   `json:"command"`
	Outcome  Outcome  `json:"outcome"`
	From     Position `json:"from"`
	To       Position `json:"to"`
	Facing   string   `json:"facing"`
	Advisory string   `json:"advisory,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
}

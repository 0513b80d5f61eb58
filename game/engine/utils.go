package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// CountCommands counts how many of each command a rover carries.
func CountCommands(commands []Command) map[Command]int {
	counts := make(map[Command]int, 3)
	for _, c := range commands {
		counts[c]++
	}
	return counts
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

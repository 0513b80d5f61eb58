// Command validate checks the mission files in a missions directory
// (../missions by default, or the directory given as the first argument). It
// checks:
//   - JSON/YAML structure and required fields
//   - The plateau line and every rover's position and commands lines
//   - That every rover lands on the plateau and no two share a landing cell
//   - The crossing policy
//
// Valid missions are then dry-run and the outcome is reported. A mission
// that aborts is still valid; some missions are written to fail.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mars-rovers/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateMission loads and validates a single mission file, then dry-runs
// it when it is valid.
func validateMission(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	mission, err := engine.DecodeMissionConfig(data, filepath.Ext(filePath))
	if err != nil {
		result.fail("Invalid %s: %v", strings.ToUpper(strings.TrimPrefix(filepath.Ext(filePath), ".")), err)
		return result
	}

	if mission.Name == "" {
		result.fail("Name is required")
	}

	if p := mission.CrossingPolicy(); p != engine.AllowCrossing && p != engine.AbortOnCrossing {
		result.fail("crossing must be '%s' or '%s', got '%s'", engine.AllowCrossing, engine.AbortOnCrossing, mission.Crossing)
	}

	grid, err := engine.ParsePlateau(mission.Plateau)
	if err != nil {
		result.fail("Invalid plateau: %v", err)
		return result
	}

	if len(mission.Rovers) == 0 {
		result.fail("Must have at least 1 rover")
	}

	commandCounts := make(map[engine.Command]int)
	landings := make(map[engine.Position]int)
	for i, rover := range mission.Rovers {
		specs, err := engine.ParseRovers([]string{rover.Position, rover.Commands}, grid, mission.SelfPreserving)
		if err != nil {
			result.fail("Rover %d: %v", i+1, err)
			continue
		}
		spec := specs[0]

		cell := engine.Position{X: spec.X, Y: spec.Y}
		if first, taken := landings[cell]; taken {
			result.fail("Rovers %d and %d both land on (%d,%d)", first, i+1, cell.X, cell.Y)
		} else {
			landings[cell] = i + 1
		}

		for cmd, n := range engine.CountCommands(spec.Commands) {
			commandCounts[cmd] += n
		}
	}

	if !result.Valid {
		return result
	}

	// Add informational data
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", mission.Name))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Plateau: %dx%d cells", grid.Width+1, grid.Height+1))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Rovers: %d", len(mission.Rovers)))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Commands: L %d, R %d, M %d",
		commandCounts[engine.RotateLeft], commandCounts[engine.RotateRight], commandCounts[engine.Advance]))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Self-preserving: %t, crossing: %s", mission.SelfPreserving, mission.CrossingPolicy()))
	result.Errors = append(result.Errors, dryRun(mission))

	return result
}

// dryRun runs the mission and describes the outcome in one line.
func dryRun(mission *engine.MissionConfig) string {
	sim, err := mission.Simulation()
	if err != nil {
		return fmt.Sprintf("✓ Dry run: could not start: %v", err)
	}

	report, err := sim.Run()
	advisories := len(sim.Advisories())
	if err != nil {
		return fmt.Sprintf("✓ Dry run: aborted (%s): %v", engine.ErrorCode(err), err)
	}
	return fmt.Sprintf("✓ Dry run: %s (%d advisories)", strings.ReplaceAll(report, "\n", " | "), advisories)
}

// missionFiles lists the JSON and YAML files in dir, sorted by name.
func missionFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every mission file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	missionDir := "../missions"
	if len(os.Args) > 1 {
		missionDir = os.Args[1]
	}

	files, err := missionFiles(missionDir)
	if err != nil {
		fmt.Printf("Error finding mission files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No mission files found in %s\n", missionDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateMission(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All missions are valid!")
	} else {
		fmt.Println("❌ Some missions have errors")
		os.Exit(1)
	}
}

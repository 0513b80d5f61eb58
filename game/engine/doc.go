// Package engine provides the core movement and validation logic for the
// Mars rovers mission simulator.
//
// The engine package implements:
//   - Plateau bounds (Grid) with an inclusive coordinate range
//   - Rover rotation and advance with collision, boundary and self-path checks
//   - Parsing raw mission lines into validated plateau and rover specs
//   - Sequential execution of every rover's commands and the final report
//   - Mission configuration loading and validation (JSON and YAML)
//
// Core Types:
//
// Grid answers whether a cell is on the plateau. Rover owns a position, a
// heading and its pending commands. Simulation owns the grid and the rovers
// in landing order, runs them one after another and renders the report.
//
// Usage:
//
//	sim, err := engine.ParseMission([]string{
//		"5 5",
//		"1 2 N", "LMLMLMLMM",
//		"3 3 E", "MMRMMRMRRM",
//	}, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := sim.Run()
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(report) // "1 3 N\n5 1 E"
//
// Mission Rules:
//
// Rover n+1 does not start until rover n has executed all of its commands.
// A rover that would collide with another rover or drive off the plateau
// aborts the mission, unless it is self-preserving, in which case the move is
// skipped and an advisory is recorded. Under AbortOnCrossing, driving onto a
// cell the rover already drove over aborts the mission even for a
// self-preserving rover; the landing cell does not count as driven over.
//
// Simulation does no I/O and starts no goroutines.
package engine

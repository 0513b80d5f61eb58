// Package config provides mission file management for the Mars rovers
// simulator.
//
// The config package handles:
//   - Loading missions from JSON or YAML files
//   - Mission validation through the engine's parser
//   - Default mission selection
//   - Mission discovery and listing
//
// Mission Format:
//
// Missions live in a single directory, one file each. A mission names the
// plateau's upper-right corner and lists every rover's landing position and
// commands in the same line format the command line accepts:
//
//	name: Classic
//	plateau: "5 5"
//	rovers:
//	  - position: 1 2 N
//	    commands: LMLMLMLMM
//	  - position: 3 3 E
//	    commands: MMRMMRMRRM
//
// Optional fields are self_preserving (skip dangerous moves instead of
// failing) and crossing ("allow" or "abort").
//
// Usage:
//
//	manager, err := config.NewManager("missions")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mission, err := manager.LoadMission("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	missions, err := manager.ListMissions()
//
// When the directory holds no classic mission, the first valid file becomes
// the default; an empty directory falls back to the built-in classic mission.
package config

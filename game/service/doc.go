// Package service provides the business logic layer for the Mars rovers
// mission simulator.
//
// The service package implements:
//   - Running stored missions and ad-hoc mission lines
//   - Recording every finished run, including aborted ones
//   - Paginated access to a run's step trace
//   - Mission listing, loading and saving
//
// Core Interfaces:
//
// MissionService is the main service interface used by the transports.
// RunStore keeps finished runs. MissionManager loads and saves mission files.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP)
// and the engine. Each run owns its own engine.Simulation; runs never share
// rovers.
//
// Usage:
//
//	runStore := session.NewManager()
//	missionMgr, _ := config.NewManager("missions")
//	missionService := service.NewMissionService(runStore, missionMgr)
//
//	result, err := missionService.RunMission(ctx, "classic", service.RunOptions{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result.Report)
//
// Failed Missions:
//
// Input that does not parse is returned as an error and nothing is stored.
// A mission that aborts while driving is stored with Aborted set and an
// ErrorCode of collision, out_of_bounds or crossed_own_path.
package service

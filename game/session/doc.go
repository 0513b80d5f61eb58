// Package session keeps finished mission runs for the Mars rovers simulator.
//
// The session package implements:
//   - Thread-safe run storage and retrieval
//   - Short random run IDs
//   - Expiry of runs nobody has looked at for a while
//
// Run Identifiers:
//
// Runs use 4-character hex IDs so they are easy to type into a websocket
// URL or an MCP tool call. Lookups ignore case.
//
// Concurrency:
//
// The manager is safe for concurrent use. A stored run is never mutated
// apart from its last-accessed time.
//
// Usage:
//
//	manager := session.NewManager()
//
//	run, err := manager.Create("", &service.Run{Mission: mission, Simulation: sim})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	run, err = manager.Get(run.ID)
//
// Runs live in memory only and are lost on restart.
package session

// Package websocket streams mission runs to browser and CLI watchers.
//
// Architecture:
//
// A central Hub owns every connection and runs a single event loop; each
// client has a read pump and a write pump goroutine. All map access happens
// on the hub goroutine.
//
// Message Protocol:
//
// Every outgoing message is a JSON Message:
//   - {"run_id": "ab12", "event": "frame", "frame": {...}} for each command
//     a rover executed, including the snapshot of the plateau after it
//   - {"run_id": "ab12", "event": "run_completed", "data": {...}} or
//     "run_aborted" once the run is over
//
// Clients never send anything except pongs.
//
// Subscriptions:
//
// Clients connect with ?run=<id> to follow one run. The API replays the
// run's recorded frames first, so a client that connects after the run
// finished still sees it from the start. Clients that connect without a run
// ID follow every run as it is created.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	hub.BroadcastFrames(run.ID, frames, "run_completed", result)
package websocket

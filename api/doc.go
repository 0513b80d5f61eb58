// Package api provides the HTTP REST API for running rover missions.
//
// Endpoints:
//
// Runs:
//   - POST /api/runs - Run a stored mission or raw mission text
//   - GET /api/runs - List runs (sort=created|accessed, order, limit)
//   - GET /api/runs/{id} - Get a run's result
//   - DELETE /api/runs/{id} - Forget a run
//   - GET /api/runs/{id}/frames - Step trace with pagination
//   - GET /api/runs/{id}/report - Final positions as plain text
//
// Missions:
//   - GET /api/missions - List mission files
//   - GET /api/missions/{name} - Get a mission
//   - POST /api/missions - Save a mission (?id=, ?format=yaml)
//
// Streaming:
//   - GET /ws?run={id} - Replay a run's frames, then follow it
//   - GET /ws - Follow every new run
//
// A run request names a stored mission, or carries the mission text:
//
//	{
//	  "mission_id": "classic",          // or:
//	  "lines": ["5 5", "1 2 N", "LMLMLMLMM"],
//	  "input": "5 5\n1 2 N\nLMLMLMLMM\n", // same as lines, split on newlines
//	  "self_preserving": false,
//	  "crossing": "allow|abort"
//	}
//
// Input that does not parse is rejected with 400 and no run is stored. A
// rover that collides, leaves the plateau or crosses its own path while
// crossing is "abort" still produces a run, with "aborted": true and an
// error_code.
//
// Errors are returned as JSON:
//
//	{
//	  "error": "error message",
//	  "error_code": "format"
//	}
package api

// Package mcp exposes the rover REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API and the JSON response is turned into readable text.
//
// MCP Tools:
//   - run_mission: Run a stored mission or raw mission text
//   - get_run: Run result with a map of the plateau
//   - list_runs: Recent runs
//   - run_frames: Step-by-step trace with pagination
//   - list_missions: Stored missions
//   - get_mission: A stored mission as mission text
//   - mission_instructions: Input format, rules and error codes
//
// Transport Modes:
//   - Stdio: the binary's mcp command starts an internal HTTP server on a
//     loopback port and serves the tools over stdin/stdout
//   - HTTP: the serve command answers JSON-RPC messages on /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp

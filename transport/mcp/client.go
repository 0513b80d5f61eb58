package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mars-rovers/game/engine"
	"github.com/wricardo/mars-rovers/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mars Rovers",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mars Rovers - MCP Interface

This is a thin client that proxies all requests to the REST API server.

Rovers land on a rectangular plateau and follow command strings of L, R and M.
Each run reports the rovers' final positions, one per line, e.g. "1 3 N".

AVAILABLE TOOLS:
- run_mission: Run a stored mission or your own mission text
- get_run: Get a run's result and plateau map
- list_runs: List recent runs
- run_frames: Step-by-step trace of a run
- list_missions: List stored missions
- get_mission: Show a stored mission
- mission_instructions: Input format, rules and error codes`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Runs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_mission",
		Description: "Run a stored mission by id, or raw mission text (plateau line, then position and commands lines per rover)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Stored mission to run (optional, defaults to the classic mission)",
				},
				"input": map[string]interface{}{
					"type":        "string",
					"description": "Mission text, one line per entry, e.g. \"5 5\\n1 2 N\\nLMLMLMLMM\"",
				},
				"self_preserving": map[string]interface{}{
					"type":        "boolean",
					"description": "Skip moves that would collide or leave the plateau instead of failing",
				},
				"crossing": map[string]interface{}{
					"type":        "string",
					"enum":        []string{string(engine.AllowCrossing), string(engine.AbortOnCrossing)},
					"description": "What happens when a rover re-enters its own path",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Label for a mission given as input",
				},
			},
		},
	}, c.handleRunMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get the result of a run, with a map of the plateau",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID to retrieve",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List recent runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of runs to list",
				},
			},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_frames",
		Description: "Step-by-step trace of a run with pagination",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Run ID",
				},
				"page": map[string]interface{}{
					"type":        "number",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Steps per page (default 50)",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleRunFrames)

	// Missions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_missions",
		Description: "List stored missions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMissions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_mission",
		Description: "Show a stored mission as mission text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Mission ID",
				},
			},
			Required: []string{"mission_id"},
		},
	}, c.handleGetMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "mission_instructions",
		Description: "Get the mission input format, movement rules and error codes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleMissionInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

// Tool handlers

func (c *Client) handleRunMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	for _, key := range []string{"mission_id", "input", "crossing", "name"} {
		if v, _ := args[key].(string); v != "" {
			body[key] = v
		}
	}
	if sp, ok := args["self_preserving"].(bool); ok {
		body["self_preserving"] = sp
	}

	var run service.RunResult
	if err := c.apiCall(ctx, "POST", "/api/runs", body, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&run)), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runID, _ := arguments(request)["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	var run service.RunResult
	if err := c.apiCall(ctx, "GET", "/api/runs/"+url.PathEscape(runID), nil, &run); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunResult(&run) + "\n" + formatPlateau(run.Plateau, run.Rovers)), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/runs"
	if limit, ok := arguments(request)["limit"].(float64); ok && limit > 0 {
		path += fmt.Sprintf("?limit=%d", int(limit))
	}

	var response struct {
		Count int                 `json:"count"`
		Total int                 `json:"total"`
		Runs  []service.RunResult `json:"runs"`
	}
	if err := c.apiCall(ctx, "GET", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Runs (%d of %d):\n\n", response.Count, response.Total)
	for _, r := range response.Runs {
		status := "completed"
		if r.Aborted {
			status = "aborted: " + r.ErrorCode
		}
		result += fmt.Sprintf("- %s %s (%d rovers, %s, created %s)\n",
			r.ID, r.MissionName, len(r.Rovers), status, r.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRunFrames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	runID, _ := args["run_id"].(string)
	if runID == "" {
		return mcp.NewToolResultError("run_id is required"), nil
	}

	params := "?"
	if page, ok := args["page"].(float64); ok {
		params += fmt.Sprintf("page=%d&", int(page))
	}
	if limit, ok := args["limit"].(float64); ok {
		params += fmt.Sprintf("limit=%d&", int(limit))
	}

	var frames service.FramesResponse
	err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/runs/%s/frames%s", url.PathEscape(runID), params), nil, &frames)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatFrames(&frames)), nil
}

func (c *Client) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var missions []service.MissionInfo
	if err := c.apiCall(ctx, "GET", "/api/missions", nil, &missions); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Missions:\n\n"
	for _, m := range missions {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Plateau: %s, Rovers: %d, Self-preserving: %t, Crossing: %s\n\n",
			m.MissionID, m.Name, m.Description, m.Plateau, m.Rovers, m.SelfPreserving, m.Crossing)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	missionID, _ := arguments(request)["mission_id"].(string)
	if missionID == "" {
		return mcp.NewToolResultError("mission_id is required"), nil
	}

	var mission engine.MissionConfig
	if err := c.apiCall(ctx, "GET", "/api/missions/"+url.PathEscape(missionID), nil, &mission); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Mission: %s\n%s\nSelf-preserving: %t, Crossing: %s\n\n%s\n",
		mission.Name, mission.Description, mission.SelfPreserving, mission.CrossingPolicy(),
		strings.Join(mission.Lines(), "\n"))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMissionInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Mars Rovers - Instructions

INPUT FORMAT:
Line 1: plateau upper-right corner, "X Y" (lower-left is 0 0)
Then, per rover:
  Position line: "X Y H", H is one of N, E, S, W
  Commands line: letters L, R, M (may be empty)
Spaces are ignored and letters are case-insensitive.

MOVEMENT:
• L / R turn 90 degrees left or right in place
• M moves one cell forward; N is +Y, E is +X
• Rovers run one after another, each finishing all its commands first

FAILURES:
• collision - a rover tries to enter a cell occupied by another rover
• out_of_bounds - a rover tries to leave the plateau
• crossed_own_path - a rover re-enters a cell it has already moved through
  (only with crossing "abort")
• Two rovers landing on the same cell is rejected before anything runs

SELF-PRESERVING ROVERS:
With self_preserving set, collisions and out-of-bounds moves are skipped with an
advisory and the rover carries on with its next command.

OUTPUT:
One line per rover, in landing order: "X Y H".

EXAMPLE:
5 5
1 2 N
LMLMLMLMM
3 3 E
MMRMMRMRRM

gives:
1 3 N
5 1 E`

	return mcp.NewToolResultText(instructions), nil
}

// Formatters

func formatRunResult(run *service.RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s | Mission: %s | Plateau: %dx%d | Steps: %d\n",
		run.ID, run.MissionName, run.Plateau.Width, run.Plateau.Height, run.Steps)

	if run.Aborted {
		fmt.Fprintf(&b, "✗ Aborted (%s): %s\n", run.ErrorCode, run.Error)
		if len(run.Rovers) > 0 {
			b.WriteString("\nPositions when the run stopped:\n")
			for _, r := range run.Rovers {
				b.WriteString(r.String() + "\n")
			}
		}
	} else {
		b.WriteString("✓ Completed\n\n")
		b.WriteString(run.Report + "\n")
	}

	if len(run.Advisories) > 0 {
		b.WriteString("\nAdvisories:\n")
		for _, a := range run.Advisories {
			b.WriteString("- " + a + "\n")
		}
	}

	return b.String()
}

// formatPlateau draws the plateau with north at the top. Rovers are shown
// by heading letter; empty cells are dots.
func formatPlateau(grid engine.Grid, rovers []engine.RoverState) string {
	if grid.Width < 0 || grid.Height < 0 {
		return ""
	}

	occupied := make(map[engine.Position]string, len(rovers))
	for _, r := range rovers {
		occupied[r.Position] = r.Facing
	}

	var b strings.Builder
	for y := grid.Height; y >= 0; y-- {
		fmt.Fprintf(&b, "%2d ", y)
		for x := 0; x <= grid.Width; x++ {
			if facing, ok := occupied[engine.Position{X: x, Y: y}]; ok {
				b.WriteString(facing)
			} else {
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatFrames(frames *service.FramesResponse) string {
	result := fmt.Sprintf("Run %s steps (Page %d/%d), Total: %d\n\n",
		frames.RunID, frames.Page, frames.TotalPages, frames.TotalFrames)

	for i, step := range frames.Frames {
		num := (frames.Page-1)*frames.PageSize + i + 1
		line := fmt.Sprintf("%d. rover %d %s %s", num, step.Rover, step.Command, step.Outcome)
		if step.From != step.To {
			line += fmt.Sprintf(" (%d,%d)->(%d,%d)", step.From.X, step.From.Y, step.To.X, step.To.Y)
		}
		line += " facing " + step.Facing
		if step.Advisory != "" {
			line += " [" + step.Advisory + "]"
		}
		result += line + "\n"
	}

	return result
}

// Command mars-rovers drives rover missions on a Martian plateau.
//
// Commands:
//  1. "run" – runs one mission from a file, a stored mission or stdin and prints
//     the final rover positions
//  2. "serve" – runs the HTTP server exposing the REST API, WebSocket streaming
//     and an /mcp HTTP endpoint
//  3. "mcp" – runs an MCP stdio server, spinning up an internal HTTP API if none
//     is available
//  4. "missions" – lists or shows stored missions
//
// Flags can also be set from the environment or a .env file, and the serve
// command can open an ngrok tunnel for external access during development.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mars-rovers/api"
	"github.com/wricardo/mars-rovers/game/config"
	"github.com/wricardo/mars-rovers/game/service"
	"github.com/wricardo/mars-rovers/game/session"
	"github.com/wricardo/mars-rovers/transport/mcp"
	"github.com/wricardo/mars-rovers/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mars Rovers"
)

const (
	defaultAddr       = "localhost:8080"
	defaultMissionDir = "missions"
	cleanupInterval   = 1 * time.Hour
)

// main loads the environment and dispatches to the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		// Only log if it's not a "file not found" error
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	if err := newApp(os.Stdin, os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Commands read and write through the given
// streams so they can be exercised in tests.
func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "mars-rovers",
		Usage:     "Drive rover squads across a Martian plateau",
		Version:   Version,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.SetOutput(stderr)
			if cmd.Bool("debug") {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			runCommand(),
			serveCommand(),
			mcpCommand(),
			missionsCommand(),
		},
	}
}

func missionDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mission-dir",
		Value:   defaultMissionDir,
		Usage:   "Directory containing mission files",
		Sources: cli.EnvVars("MISSION_DIR"),
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "http"},
		Usage:   "Run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   defaultAddr,
				Usage:   "HTTP listen address",
				Sources: cli.EnvVars("ADDR"),
			},
			missionDirFlag(),
			&cli.DurationFlag{
				Name:  "run-ttl",
				Value: 24 * time.Hour,
				Usage: "Forget runs not accessed for this long",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			missionService, runs, err := initializeServices(cmd.String("mission-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go runCleanupRoutine(ctx, runs, cmd.Duration("run-ttl"))

			return runHTTPServer(ctx, missionService, serverOptions{
				addr:        cmd.String("addr"),
				ngrok:       cmd.Bool("ngrok"),
				ngrokAuth:   cmd.String("ngrok-auth"),
				ngrokDomain: cmd.String("ngrok-domain"),
			})
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:    "mcp",
		Aliases: []string{"stdio-mcp", "mcp-stdio"},
		Usage:   "Run an MCP stdio server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://" + defaultAddr,
				Usage:   "Use this API server when it is reachable instead of starting one",
				Sources: cli.EnvVars("MARS_ROVERS_API"),
			},
			missionDirFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			missionService, _, err := initializeServices(cmd.String("mission-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			return runStdioMCPWithInternalServer(missionService, cmd.String("api-url"))
		},
	}
}

// initializeServices wires the run store, mission manager and mission
// service.
func initializeServices(missionDir string) (service.MissionService, *session.Manager, error) {
	missionManager, err := config.NewManager(missionDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mission manager: %w", err)
	}

	runs := session.NewManager()
	return service.NewMissionService(runs, missionManager), runs, nil
}

// runCleanupRoutine periodically removes runs that have not been accessed
// within ttl.
func runCleanupRoutine(ctx context.Context, manager *session.Manager, ttl time.Duration) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredRuns(ttl); removed > 0 {
				log.Printf("Cleaned up %d expired runs", removed)
			}
		}
	}
}

type serverOptions struct {
	addr        string
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

// newRouter mounts the API and the /mcp endpoint on one mux.
func newRouter(missionService service.MissionService, hub *websocket.Hub, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(missionService, hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// mcpHandler answers single JSON-RPC MCP messages over HTTP.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// runHTTPServer serves the API, WebSocket hub and /mcp endpoint until a
// signal arrives or ctx is cancelled. With ngrok enabled it also serves
// through a public tunnel.
func runHTTPServer(ctx context.Context, missionService service.MissionService, opts serverOptions) error {
	hub := websocket.NewHub()
	go hub.Run()

	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", opts.addr))
	mainRouter := newRouter(missionService, hub, mcpClient)

	httpServer := &http.Server{
		Addr:         opts.addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("Starting %s v%s", AppName, Version)
		log.Printf("HTTP server listening on %s", opts.addr)
		log.Printf("REST API: http://%s/api", opts.addr)
		log.Printf("WebSocket: ws://%s/ws?run=<run_id>", opts.addr)
		log.Printf("MCP endpoint: http://%s/mcp", opts.addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, mainRouter, opts)
		}()
	}

	var err error
	select {
	case sig := <-stop:
		log.Printf("Received signal: %v. Shutting down...", sig)
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err = <-serveErr:
		log.Printf("HTTP server failed: %v", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Printf("HTTP server shutdown error: %v", shutdownErr)
	}

	wg.Wait()
	log.Println("Server stopped")
	return err
}

// serveNgrok serves handler through an ngrok tunnel until ctx is cancelled.
func serveNgrok(ctx context.Context, handler http.Handler, opts serverOptions) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(opts.ngrokAuth),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?run=<run_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether an API server answers at baseURL.
func apiAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL.
func startInternalServer(missionService service.MissionService) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}

	internalAddr := listener.Addr().String()
	log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

	hub := websocket.NewHub()
	go hub.Run()

	httpServer := &http.Server{
		Handler: api.NewServer(missionService, hub),
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	return fmt.Sprintf("http://%s", internalAddr), httpServer, nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at externalURL when one answers there; otherwise it starts an internal API
// on a loopback port.
func runStdioMCPWithInternalServer(missionService service.MissionService, externalURL string) error {
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if apiAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		internalURL, httpServer, err := startInternalServer(missionService)
		if err != nil {
			return err
		}
		defer httpServer.Close()
		baseURL = internalURL
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API at %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

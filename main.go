// Command sokoban starts the Sokoban game server.
//
// Subcommands:
//  1. "serve" (default) runs the HTTP server exposing the REST API, WebSocket, and an /mcp endpoint
//  2. "mcp" runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "validate" checks level pack files
//  4. "play" plays a pack in the terminal
//
// Flags control host/port, the level directory, debug logging, and optional
// ngrok tunneling for external access during development. Every flag can also
// be set from the environment or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
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
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/sokoban-game/api"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/service"
	"github.com/wricardo/sokoban-game/game/session"
	"github.com/wricardo/sokoban-game/transport/mcp"
	"github.com/wricardo/sokoban-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Server"
)

// Session retention
const (
	cleanupInterval = 1 * time.Hour
	sessionMaxAge   = 24 * time.Hour
)

const defaultExternalAPI = "http://localhost:8080"

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newApp builds the command tree. The root command behaves like "serve".
func newApp() *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   AppName,
		Version: Version,
		Flags:   serveFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Flags:   serveFlags(),
				Action:  serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, starting an internal HTTP server when needed",
				Flags: []cli.Flag{
					levelDirFlag(),
					debugFlag(),
					&cli.StringFlag{
						Name:    "api-url",
						Value:   defaultExternalAPI,
						Usage:   "External API to reuse when it is reachable",
						Sources: cli.EnvVars("SOKOBAN_API_URL"),
					},
				},
				Action: mcpAction,
			},
			{
				Name:      "validate",
				Usage:     "Validate level pack files (defaults to every pack in the level directory)",
				ArgsUsage: "[FILE...]",
				Flags:     []cli.Flag{levelDirFlag()},
				Action:    validateAction,
			},
			{
				Name:  "play",
				Usage: "Play a level pack in the terminal",
				Flags: []cli.Flag{
					levelDirFlag(),
					&cli.StringFlag{Name: "pack", Usage: "Pack ID (default pack when empty)"},
					&cli.IntFlag{Name: "level", Value: 1, Usage: "Level to start at"},
				},
				Action: playAction,
			},
		},
	}
}

func levelDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "level-dir",
		Value:   "levels",
		Usage:   "Directory containing level packs",
		Sources: cli.EnvVars("LEVEL_DIR"),
	}
}

func debugFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "debug",
		Usage:   "Enable debug logging",
		Sources: cli.EnvVars("DEBUG"),
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
		&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
		levelDirFlag(),
		debugFlag(),
		&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
		&cli.StringFlag{
			Name:    "ngrok-auth",
			Usage:   "Ngrok auth token",
			Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
		},
		&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
	}
}

func setupLogging(debug bool) {
	if debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}
}

// serverOptions carries the serve flags
type serverOptions struct {
	Host        string
	Port        int
	LevelDir    string
	Ngrok       bool
	NgrokAuth   string
	NgrokDomain string
}

func (o serverOptions) addr() string {
	return fmt.Sprintf("%s:%d", o.Host, o.Port)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.Bool("debug"))
	log.Printf("Starting %s v%s (mode: serve)", AppName, Version)

	return runHTTPServer(ctx, serverOptions{
		Host:        cmd.String("host"),
		Port:        int(cmd.Int("port")),
		LevelDir:    cmd.String("level-dir"),
		Ngrok:       cmd.Bool("ngrok"),
		NgrokAuth:   cmd.String("ngrok-auth"),
		NgrokDomain: cmd.String("ngrok-domain"),
	})
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.Bool("debug"))
	log.Printf("Starting %s v%s (mode: mcp)", AppName, Version)

	return runStdioMCP(ctx, cmd.String("level-dir"), cmd.String("api-url"))
}

// initializeServices wires the pack manager, session manager and game service
func initializeServices(levelDir string) (service.GameService, *session.Manager, error) {
	packs, err := levels.NewManager(levelDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create level manager: %w", err)
	}

	sessions := session.NewManager()
	return service.NewGameService(sessions, packs), sessions, nil
}

// sessionCleanupRoutine removes sessions not accessed within maxAge until ctx is done
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// mcpHandler answers MCP JSON-RPC messages posted over HTTP
func mcpHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at the root and the MCP endpoint at /mcp
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(gameService, hub))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// runHTTPServer serves the API until SIGINT/SIGTERM or ctx cancellation.
// When ngrok is enabled the same router is also served through a public tunnel.
func runHTTPServer(ctx context.Context, opts serverOptions) error {
	gameService, sessions, err := initializeServices(opts.LevelDir)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize services: %v", err), 1)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessionCleanupRoutine(ctx, sessions, cleanupInterval, sessionMaxAge)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := opts.addr()
	mainRouter := newRouter(gameService, hub, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if opts.Ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case runErr = <-serveErr:
		log.Printf("HTTP server failed: %v", runErr)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")

	if runErr != nil {
		return cli.Exit(fmt.Sprintf("HTTP server failed: %v", runErr), 1)
	}
	return nil
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done
func runNgrokTunnel(ctx context.Context, opts serverOptions, handler http.Handler) {
	if opts.NgrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.NgrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.NgrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.NgrokAuth))
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
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether a Sokoban API answers health checks at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns its base URL
func startInternalServer(ctx context.Context, levelDir string) (string, *http.Server, error) {
	gameService, sessions, err := initializeServices(levelDir)
	if err != nil {
		return "", nil, err
	}
	go sessionCleanupRoutine(ctx, sessions, cleanupInterval, sessionMaxAge)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := fmt.Sprintf("http://%s", listener.Addr().String())

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()

	return baseURL, httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses the API at externalURL when
// one answers, otherwise it starts an internal HTTP API and targets that.
func runStdioMCP(ctx context.Context, levelDir, externalURL string) error {
	baseURL := externalURL

	log.Printf("Checking for external API server at %s...", externalURL)
	if apiAvailable(ctx, externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		var httpServer *http.Server
		var err error
		baseURL, httpServer, err = startInternalServer(ctx, levelDir)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to start internal server: %v", err), 1)
		}
		defer httpServer.Close()

		log.Printf("Internal HTTP server on %s for MCP stdio", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Printf("MCP stdio server ready (API: %s)", baseURL)

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return cli.Exit(fmt.Sprintf("MCP stdio server error: %v", err), 1)
	}
	return nil
}

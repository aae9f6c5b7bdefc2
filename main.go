// Command tiletris starts the Tiletris game server.
//
// Modes:
//  1. "server" (default) serves the REST API, the /ws state feed and a
//     POST /mcp endpoint on one listener, optionally mirrored through ngrok
//  2. "stdio-mcp" speaks MCP on stdin/stdout and proxies tool calls to a
//     running server, starting a private loopback API when none answers
//
// Sessions, configs and scores live in the directories named by the
// -config-dir, -sessions-dir and -scores-dir flags (or CONFIG_DIR,
// SESSIONS_DIR and SCORES_DIR).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/tiletris/api"
	"github.com/wricardo/mcp-training/tiletris/game/config"
	"github.com/wricardo/mcp-training/tiletris/game/scores"
	"github.com/wricardo/mcp-training/tiletris/game/service"
	"github.com/wricardo/mcp-training/tiletris/game/session"
	"github.com/wricardo/mcp-training/tiletris/transport/mcp"
	"github.com/wricardo/mcp-training/tiletris/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Tiletris Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
	syncInterval    = 5 * time.Second
	shutdownTimeout = 10 * time.Second
	defaultAPIURL   = "http://localhost:8080"
)

var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", envOrDefault("CONFIG_DIR", "configs"), "Directory containing game configurations")
	sessionsDir  = flag.String("sessions-dir", envOrDefault("SESSIONS_DIR", "sessions"), "Directory where sessions are persisted")
	scoresDir    = flag.String("scores-dir", envOrDefault("SCORES_DIR", "data"), "Directory holding profiles and rankings")
	apiURL       = flag.String("api-url", defaultAPIURL, "Server that stdio-mcp mode proxies to when it is reachable")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Mirror the server through an ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or NGROK_AUTHTOKEN / NGROK_AUTH_TOKEN)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Reserved ngrok domain (or NGROK_DOMAIN)")
)

// envOrDefault returns the environment variable key, or def when it is unset.
func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func init() {
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(out, "Usage: %s [OPTIONS] [server|stdio-mcp]\n\n", os.Args[0])
		fmt.Fprintln(out, "Modes:")
		fmt.Fprintln(out, "  server, http          REST API, /ws feed and /mcp endpoint (default)")
		fmt.Fprintln(out, "  stdio-mcp, mcp-stdio  MCP over stdin/stdout; alias: mcp")
		fmt.Fprintln(out, "\nOptions:")
		flag.PrintDefaults()
		fmt.Fprintln(out, "\nExamples:")
		fmt.Fprintf(out, "  %s -port 9090 -config-dir ./configs\n", os.Args[0])
		fmt.Fprintf(out, "  %s -api-url http://localhost:9090 stdio-mcp\n", os.Args[0])
	}
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env file")
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	flag.Parse()
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		return
	}
	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	mode := "server"
	if flag.NArg() > 0 {
		mode = flag.Arg(0)
	}
	if err := run(mode); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// run starts the services and the selected mode, and saves every session
// before it returns.
func run(mode string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	gameService, sessionManager, err := initializeServices(ctx, hub)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if err := sessionManager.Close(); err != nil {
			log.Printf("Warning: Failed to save sessions on shutdown: %v", err)
		}
	}()

	switch mode {
	case "server", "http":
		return runHTTPServer(ctx, gameService, hub)
	case "stdio-mcp", "mcp-stdio", "mcp":
		return runStdioMCP(ctx, gameService, hub)
	default:
		return fmt.Errorf("unknown mode %q, use 'server' or 'stdio-mcp'", mode)
	}
}

// newHandler mounts the REST API and WebSocket feed at / and the MCP
// JSON-RPC endpoint at /mcp.
func newHandler(gameService service.GameService, hub *websocket.Hub, mcpClient *mcp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(gameService, hub))
	mux.Handle("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mux
}

// mcpHandler answers one JSON-RPC message per POST
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
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

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mcpServer.HandleMessage(r.Context(), body)); err != nil {
			log.Printf("[MCP] failed to write response: %v", err)
		}
	}
}

// logEndpoints prints where clients reach the server under base
func logEndpoints(prefix, base string) {
	wsBase := "ws" + base[len("http"):]
	log.Printf("%sREST API:     %s/api (sessions, rankings, configs, catalog)", prefix, base)
	log.Printf("%sState feed:   %s/ws?session=<session_id>", prefix, wsBase)
	log.Printf("%sMCP endpoint: %s/mcp", prefix, base)
}

// runHTTPServer serves until ctx is cancelled, then drains connections.
func runHTTPServer(ctx context.Context, gameService service.GameService, hub *websocket.Hub) error {
	addr := fmt.Sprintf("%s:%d", *host, *port)
	handler := newHandler(gameService, hub, mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on %s", addr)
		logEndpoints("", "http://"+addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	if tc := tunnelFromEnv(); tc.Enabled {
		go serveTunnel(ctx, tc, handler)
	}

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

// tunnelConfig is the resolved ngrok setup
type tunnelConfig struct {
	Enabled   bool
	AuthToken string
	Domain    string
}

// tunnelFromEnv merges the ngrok flags with NGROK_ENABLED, NGROK_AUTHTOKEN
// (or NGROK_AUTH_TOKEN) and NGROK_DOMAIN. Flags win.
func tunnelFromEnv() tunnelConfig {
	tc := tunnelConfig{
		Enabled:   *ngrokEnabled,
		AuthToken: *ngrokAuth,
		Domain:    *ngrokDomain,
	}
	if !tc.Enabled {
		v := os.Getenv("NGROK_ENABLED")
		tc.Enabled = v == "true" || v == "1"
	}
	if tc.AuthToken == "" {
		tc.AuthToken = envOrDefault("NGROK_AUTHTOKEN", os.Getenv("NGROK_AUTH_TOKEN"))
	}
	if tc.Domain == "" {
		tc.Domain = os.Getenv("NGROK_DOMAIN")
	}
	return tc
}

// serveTunnel exposes handler through ngrok until ctx is cancelled. Tunnel
// failures are logged and never stop the local server.
func serveTunnel(ctx context.Context, tc tunnelConfig, handler http.Handler) {
	if tc.AuthToken == "" {
		log.Println("Warning: ngrok enabled without an auth token (-ngrok-auth or NGROK_AUTHTOKEN), skipping tunnel")
		return
	}

	opts := []ngrokConfig.HTTPEndpointOption{}
	if tc.Domain != "" {
		opts = append(opts, ngrokConfig.WithDomain(tc.Domain))
	}
	tun, err := ngrok.Listen(ctx, ngrokConfig.HTTPEndpoint(opts...), ngrok.WithAuthtoken(tc.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	log.Printf("Ngrok tunnel established: %s", tun.URL())
	logEndpoints("  (ngrok) ", tun.URL())

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()
	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Printf("Ngrok server error: %v", err)
	}
}

// initializeServices wires config, session and score storage into the game
// service, with notifier receiving session updates. Background session
// maintenance runs until ctx is cancelled.
func initializeServices(ctx context.Context, notifier service.Notifier) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(*configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	persistence, err := session.NewFilePersistence(*sessionsDir, configManager)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	scoreStore, err := scores.NewFileStore(*scoresDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open score store: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)

	// hooks must be installed before persisted sessions start their runners
	gameService := service.NewGameService(sessionManager, configManager,
		service.WithNotifier(notifier),
		service.WithScores(scores.NewService(scoreStore)),
	)

	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Printf("Warning: Failed to load persisted sessions: %v", err)
	}
	log.Printf("Loaded %d sessions from %s", sessionManager.Count(), *sessionsDir)

	go maintainSessions(ctx, sessionManager, persistence)

	return gameService, sessionManager, nil
}

// maintainSessions expires idle sessions and drops sessions whose file was
// deleted on disk.
func maintainSessions(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence) {
	cleanup := time.NewTicker(cleanupInterval)
	defer cleanup.Stop()
	syncTick := time.NewTicker(syncInterval)
	defer syncTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cleanup.C:
			if removed := manager.CleanupExpiredSessions(sessionMaxAge); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		case <-syncTick.C:
			if pruned := pruneOrphans(manager, persistence); pruned > 0 {
				log.Printf("Filesystem sync: pruned %d orphaned sessions from memory", pruned)
			}
		}
	}
}

// pruneOrphans removes in-memory sessions that have no file any more and
// returns how many it removed.
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, sess := range manager.List() {
		if persistence.Exists(sess.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(sess.ID); err == nil {
			pruned++
			log.Printf("Pruned session %s from memory (file deleted)", sess.ID)
		}
	}
	return pruned
}

// apiReachable reports whether a server answers /health at baseURL
func apiReachable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
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

// startLoopbackAPI serves the REST API on a random loopback port and
// returns its base URL.
func startLoopbackAPI(gameService service.GameService, hub *websocket.Hub) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	srv := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Loopback API error: %v", err)
		}
	}()
	return "http://" + listener.Addr().String(), srv, nil
}

// runStdioMCP proxies MCP tool calls to the server at -api-url, or to a
// private loopback API when that server does not answer.
func runStdioMCP(ctx context.Context, gameService service.GameService, hub *websocket.Hub) error {
	baseURL := *apiURL
	if apiReachable(ctx, baseURL) {
		log.Printf("Using running server at %s for MCP", baseURL)
	} else {
		loopbackURL, srv, err := startLoopbackAPI(gameService, hub)
		if err != nil {
			return err
		}
		defer srv.Close()
		log.Printf("No server at %s, serving MCP from loopback API %s", baseURL, loopbackURL)
		baseURL = loopbackURL
	}

	stdio := server.NewStdioServer(mcp.NewClient(baseURL).GetMCPServer())
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP stdio server: %w", err)
	}
	return nil
}

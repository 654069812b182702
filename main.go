package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/livestream-chat-demo/modules/api"
	"github.com/example/livestream-chat-demo/modules/broadcast"
	"github.com/example/livestream-chat-demo/modules/chatstore"
	"github.com/example/livestream-chat-demo/modules/mediaprobe"
	"github.com/example/livestream-chat-demo/modules/presence"
	"github.com/example/livestream-chat-demo/modules/session"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Livestream Chat - Viewer Presence + Chat Relay ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	chatstoreModule := chatstore.NewModule()
	presenceModule := presence.NewModule()
	broadcastModule := broadcast.NewModule()
	sessionModule := session.NewModule(presenceModule.Registry())
	mediaprobeModule := mediaprobe.NewModule()
	apiModule := api.NewModule(presenceModule.Registry())

	// Inject the broadcast hub where it is needed.
	// (Done manually because the hub is not exposed via ServiceContainer.)
	sessionModule.SetHub(broadcastModule.GetHub())
	apiModule.SetHub(broadcastModule.GetHub())
	apiModule.SetSessionModule(sessionModule)
	apiModule.SetProbe(mediaprobeModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - chatstore: durable chat storage (ServiceProviderModule)
	// - presence: in-memory viewer registry
	// - broadcast: WebSocket hub + stream lifecycle event consumer
	// - session: viewer session coordination (depends on chatstore)
	// - mediaprobe: media server poller + event emitter
	// - api: driving adapter (Fiber HTTP/WebSocket server, depends on chatstore)
	app.Register(chatstoreModule)
	app.Register(presenceModule)
	app.Register(broadcastModule)
	app.Register(sessionModule)
	app.Register(mediaprobeModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	mediaServerURL := os.Getenv("MEDIA_SERVER_URL")
	if mediaServerURL == "" {
		mediaServerURL = "http://localhost:8000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Chat Store: SQLite via GORM (WAL mode)")
	log.Printf("  - Media Server: %s (polled for live streams)", mediaServerURL)
	log.Println("")
	log.Println("Event-Driven Lifecycle:")
	log.Println("  - StreamStarted events -> broadcast module -> WebSocket clients")
	log.Println("  - StreamEnded events   -> broadcast module -> WebSocket clients")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                        - Health check")
	log.Println("  GET    /api/config                    - Client configuration")
	log.Println("  GET    /api/status                    - Media server status")
	log.Println("  GET    /api/viewers/:streamKey?       - Viewer stats (one or all streams)")
	log.Println("  GET    /api/chat                      - Streams with recorded chat")
	log.Println("  GET    /api/chat/:streamKey           - Chat history + stats")
	log.Println("  GET    /api/chat/:streamKey/download  - Plain-text transcript")
	log.Println("  GET    /api/chat/:streamKey/search    - Keyword search (?q=)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Message types: join-stream, leave-stream, chat-message")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// Command vibecode serves the web-app generation API: LLM-driven HTML/CSS/JS
// generation into per-session sandboxes with live previews.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vibecode/internal/config"
	"vibecode/internal/llm"
	"vibecode/internal/sandbox"
	"vibecode/internal/server"
	"vibecode/internal/session"
)

const janitorInterval = 5 * time.Minute

func main() {
	port := flag.Int("port", 8080, "Port to serve HTTP")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Starting vibecode on port %d (provider %s, model %s)", *port, cfg.Provider, cfg.Model)

	newClient := clientFactory(cfg)

	provisioner, err := sandbox.NewDockerProvisioner(cfg.SandboxImage)
	if err != nil {
		log.Fatalf("Failed to connect to Docker: %v", err)
	}

	registry := session.NewRegistry(newClient, provisioner, time.Duration(cfg.SessionMaxIdle))
	registry.StartJanitor(context.Background(), janitorInterval)
	defer registry.Close()

	app := server.NewServer(registry, newClient(""))
	handler := app.WrapWithMiddleware(app.RegisterRoutes())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: handler,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	// Sandboxes outlive nothing: tear them all down before exit.
	registry.DestroyAll(ctx)
	log.Printf("Shutdown complete")
}

// clientFactory builds per-session LLM clients for the configured provider.
// An empty model selects the configured default.
func clientFactory(cfg config.Config) session.ClientFactory {
	return func(model string) llm.Client {
		if model == "" {
			model = cfg.Model
		}
		if cfg.Provider == "anthropic" {
			return llm.NewAnthropicClient(cfg.APIKey, model)
		}
		return llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, model)
	}
}

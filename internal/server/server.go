// Package server is the development preview server. It renders pages and
// components on request, exposes the node editor API and pushes reload
// messages over WebSocket when project files change.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/quicksite/internal/config"
	"github.com/conneroisu/quicksite/internal/logging"
	"github.com/conneroisu/quicksite/internal/project"
	"github.com/conneroisu/quicksite/internal/registry"
	"github.com/conneroisu/quicksite/internal/services"
	"github.com/conneroisu/quicksite/internal/watcher"
)

// Message types pushed to browsers.
const (
	MessageReload           = "reload"
	MessageStructureChanged = "structure_changed"
)

// UpdateMessage represents a message sent to the browser
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Targets   []string  `json:"targets,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PreviewServer serves rendered structures with live reload.
type PreviewServer struct {
	config  *config.Config
	project *project.Project
	render  *services.RenderService
	check   *services.CheckService
	logger  logging.Logger
	hub     *Hub
	watcher *watcher.FileWatcher

	// components is rescanned on every watcher batch that touches a
	// component file.
	components *registry.ComponentRegistry

	httpServer   *http.Server
	serverMutex  sync.RWMutex
	shutdownOnce sync.Once
}

// New creates a preview server for proj.
func New(cfg *config.Config, proj *project.Project, logger logging.Logger) (*PreviewServer, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("server")

	fw, err := watcher.NewFileWatcher(proj.Root(), cfg.Server.Debounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	render := services.NewRenderService(cfg, proj, logger)
	s := &PreviewServer{
		config:     cfg,
		project:    proj,
		render:     render,
		check:      services.NewCheckService(render, logger),
		logger:     logger,
		hub:        NewHub(logger),
		watcher:    fw,
		components: registry.NewComponentRegistry(),
	}
	if err := s.refreshComponents(); err != nil {
		logger.Warn(context.Background(), err, "Failed to scan components")
	}
	return s, nil
}

// Hub returns the WebSocket hub.
func (s *PreviewServer) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with every route and middleware.
func (s *PreviewServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /components", s.handleComponents)
	mux.HandleFunc("GET /component/{name}", s.handleComponent)
	mux.HandleFunc("GET /page/{name}", s.handlePage)
	mux.HandleFunc("GET /api/node", s.handleNode)
	mux.HandleFunc("POST /api/structure", s.handleStructure)
	mux.HandleFunc("GET /api/check", s.handleCheck)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	return chain(mux,
		requestID,
		s.cors,
		s.logRequests,
	)
}

// Start watches the project and serves HTTP until the server is shut down.
func (s *PreviewServer) Start(ctx context.Context) error {
	if err := s.setupFileWatcher(ctx); err != nil {
		s.logger.Warn(ctx, err, "Live reload disabled")
	}
	go s.hub.Run(ctx)
	s.watchComponents(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:              s.config.Server.Address(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server := s.httpServer
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Preview server listening", "address", server.Addr,
		"editor", s.config.Server.Editor)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *PreviewServer) setupFileWatcher(ctx context.Context) error {
	s.watcher.AddFilter(watcher.ProjectFileFilter)
	s.watcher.AddFilter(watcher.NoTempFilter)
	s.watcher.AddFilter(watcher.NoHiddenFilter)
	s.watcher.AddHandler(s.handleFileChanges)

	if err := s.watcher.AddRecursive(s.project.Root()); err != nil {
		return err
	}
	return s.watcher.Start(ctx)
}

// handleFileChanges turns one debounced batch into a reload message naming
// the structures that changed, plus every component and structure that
// includes a changed component. Catalog and function registry changes affect
// every page, so they reload without targets.
func (s *PreviewServer) handleFileChanges(events []watcher.ChangeEvent) error {
	ctx := context.Background()
	msg := UpdateMessage{Type: MessageReload, Timestamp: time.Now()}
	global := false
	seen := make(map[string]bool)
	var changed []string
	for _, event := range events {
		ref, ok := s.project.RefFor(event.Path)
		if !ok {
			global = true
			continue
		}
		if ref.Kind == project.RefComponent {
			changed = append(changed, ref.Name)
		}
		if !seen[ref.String()] {
			seen[ref.String()] = true
			msg.Targets = append(msg.Targets, ref.String())
		}
	}

	if len(changed) > 0 {
		if err := s.refreshComponents(); err != nil {
			s.logger.Warn(ctx, err, "Failed to rescan components")
		}
	}
	if global {
		msg.Targets = nil
	} else if len(changed) > 0 {
		for _, ref := range s.affectedBy(ctx, changed) {
			if !seen[ref.String()] {
				seen[ref.String()] = true
				msg.Targets = append(msg.Targets, ref.String())
			}
		}
	}

	s.logger.Debug(ctx, "Project files changed",
		"events", len(events), "targets", len(msg.Targets))
	s.broadcast(msg)
	return nil
}

func (s *PreviewServer) broadcast(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(context.Background(), err, "Failed to marshal message")
		data = []byte(`{"type":"reload"}`)
	}
	s.hub.Broadcast(data)
}

// Shutdown gracefully shuts down the server and cleans up resources
func (s *PreviewServer) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn(ctx, err, "Failed to stop file watcher")
		}
		s.hub.Close()

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()

		if server != nil {
			shutdownErr = server.Shutdown(ctx)
		}
	})

	return shutdownErr
}

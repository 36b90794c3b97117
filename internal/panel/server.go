package panel

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/registry"
	"github.com/leapstack-labs/leappanel/internal/state"
	"github.com/leapstack-labs/leappanel/internal/treeview"
)

// Server is the lineage panel sidecar.
type Server struct {
	// Tree state
	store    *manifest.Store
	projects *registry.ProjectRegistry
	views    *treeview.Views

	// Snapshot cache for warm starts (nil when disabled)
	cache     *state.SnapshotCache
	cachePath string

	initialized bool

	// I/O
	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	// Logging
	logger *slog.Logger

	// Shutdown state
	shutdown   bool
	shutdownMu sync.RWMutex
}

// Options configures optional server behavior.
type Options struct {
	// Logger receives server logs; defaults to a text handler on stderr.
	Logger *slog.Logger
	// CachePath enables the warm-start snapshot cache at the given SQLite
	// path. Empty disables caching.
	CachePath string
}

// NewServer creates a panel server reading from reader and writing to writer.
func NewServer(reader io.Reader, writer io.Writer) *Server {
	return NewServerWithOptions(reader, writer, Options{})
}

// NewServerWithOptions creates a panel server with explicit options.
func NewServerWithOptions(reader io.Reader, writer io.Writer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	store := manifest.NewStore()
	projects := registry.NewProjectRegistry()
	views := treeview.NewViews(store, projects, logger)

	s := &Server{
		store:     store,
		projects:  projects,
		views:     views,
		cachePath: opts.CachePath,
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}

	views.OnDidChangeTreeData(func(rel manifest.Relation) {
		s.sendNotification(MethodDidChangeTreeData, &DidChangeTreeDataParams{View: string(rel)})
	})

	return s
}

// Views exposes the provider set, mainly for tests.
func (s *Server) Views() *treeview.Views {
	return s.views
}

// Run starts the server's main loop, processing JSON-RPC messages until
// the client disconnects or requests shutdown.
func (s *Server) Run() error {
	s.logger.Info("leappanel server starting...")

	for {
		s.shutdownMu.RLock()
		if s.shutdown {
			s.shutdownMu.RUnlock()
			return nil
		}
		s.shutdownMu.RUnlock()

		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			s.logger.Error("error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("error handling message", "method", msg.Method, "error", err)
		}
	}
}

// readMessage reads one Content-Length framed JSON-RPC message.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if strings.HasPrefix(line, "Content-Length: ") {
			lengthStr := strings.TrimPrefix(line, "Content-Length: ")
			contentLength, err = strconv.Atoi(lengthStr)
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{JSONRPC: "2.0", ID: id}

	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		resultBytes, _ := json.Marshal(result)
		msg.Result = resultBytes
	}

	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{JSONRPC: "2.0", Method: method}

	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

// writeMessage writes one framed JSON-RPC message.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("received", "method", msg.Method)

	switch msg.Method {
	case MethodInitialize:
		return s.handleInitialize(msg)
	case MethodInitialized:
		return s.handleInitialized(msg)
	case MethodShutdown:
		return s.handleShutdown(msg)
	case MethodExit:
		return s.handleExit(msg)
	case MethodActiveDocumentChanged:
		return s.handleActiveDocumentChanged(msg)
	case MethodManifestChanged:
		return s.handleManifestChanged(msg)
	case MethodGetChildren:
		return s.handleGetChildren(msg)
	case MethodGetTreeItem:
		return s.handleGetTreeItem(msg)
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	s.logger.Info("initializing", "root", URIToPath(params.RootURI))

	if s.cachePath != "" {
		s.openCache()
	}

	views := make([]string, 0, 3)
	for _, rel := range manifest.Relations() {
		views = append(views, string(rel))
	}

	s.sendResponse(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{TreeViews: views},
	}, nil)
	return nil
}

func (s *Server) handleInitialized(_ *JSONRPCMessage) error {
	s.initialized = true
	s.logger.Info("server initialized", "cached_projects", s.store.Count())
	return nil
}

func (s *Server) handleShutdown(msg *JSONRPCMessage) error {
	s.shutdownMu.Lock()
	s.shutdown = true
	s.shutdownMu.Unlock()

	if s.cache != nil {
		_ = s.cache.Close()
	}

	s.sendResponse(msg.ID, nil, nil)
	s.logger.Info("server shutdown")
	return nil
}

func (s *Server) handleExit(_ *JSONRPCMessage) error {
	s.logger.Info("server exit")
	os.Exit(0)
	return nil
}

// --- Event handlers ---

func (s *Server) handleActiveDocumentChanged(msg *JSONRPCMessage) error {
	var params ActiveDocumentChangedParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.views.SetActiveDocument(URIToPath(params.URI))
	return nil
}

func (s *Server) handleManifestChanged(msg *JSONRPCMessage) error {
	var params ManifestChangedParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return err
	}

	s.views.ApplyManifestChange(params.ChangeEvent)
	s.updateCache(params.ChangeEvent)
	return nil
}

// --- Tree data handlers ---

func (s *Server) handleGetChildren(msg *JSONRPCMessage) error {
	var params GetChildrenParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	provider, ok := s.viewFor(params.View)
	if !ok {
		s.sendResponse(msg.ID, nil, &JSONRPCError{
			Code:    codeInvalidParams,
			Message: "unknown view: " + params.View,
		})
		return nil
	}

	items := provider.GetChildren(params.Item)
	if items == nil {
		items = []treeview.DisplayItem{}
	}
	s.sendResponse(msg.ID, GetChildrenResult{Items: items}, nil)
	return nil
}

func (s *Server) handleGetTreeItem(msg *JSONRPCMessage) error {
	var params GetTreeItemParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		return err
	}

	provider, ok := s.viewFor(params.View)
	if !ok {
		s.sendResponse(msg.ID, nil, &JSONRPCError{
			Code:    codeInvalidParams,
			Message: "unknown view: " + params.View,
		})
		return nil
	}

	s.sendResponse(msg.ID, provider.GetTreeItem(params.Item), nil)
	return nil
}

// --- Helpers ---

func (s *Server) viewFor(name string) (*treeview.Provider, bool) {
	rel, err := manifest.ParseRelation(name)
	if err != nil {
		return nil, false
	}
	return s.views.View(rel)
}

// openCache opens the snapshot cache and warm-starts the store from it.
// Cache failures degrade to an uncached server rather than failing
// initialization.
func (s *Server) openCache() {
	cache := state.NewSnapshotCache(s.logger)
	if err := cache.Open(s.cachePath); err != nil {
		s.logger.Warn("snapshot cache unavailable", "path", s.cachePath, "error", err)
		return
	}
	s.cache = cache

	snaps, err := cache.LoadAll()
	if err != nil {
		s.logger.Warn("failed to load cached snapshots", "error", err)
		return
	}
	for _, snap := range snaps {
		s.store.Upsert(snap)
		s.projects.Register(snap.ProjectRoot, snap.ProjectName)
	}
	if len(snaps) > 0 {
		s.logger.Info("warm-started from snapshot cache", "projects", len(snaps))
	}
}

// updateCache mirrors an applied manifest-change batch into the cache.
func (s *Server) updateCache(ev manifest.ChangeEvent) {
	if s.cache == nil {
		return
	}
	for _, added := range ev.Added {
		snap, ok := s.store.Get(added.ProjectRoot)
		if !ok {
			continue
		}
		if err := s.cache.Save(snap); err != nil {
			s.logger.Warn("failed to cache snapshot", "project_root", added.ProjectRoot, "error", err)
		}
	}
	for _, removed := range ev.Removed {
		if err := s.cache.Delete(removed.ProjectRoot); err != nil {
			s.logger.Warn("failed to evict cached snapshot", "project_root", removed.ProjectRoot, "error", err)
		}
	}
}

// Package server exposes the workflow engine over HTTP: the registered
// node-type listing and single-node execution. Storage, authentication and
// scheduling stay with external services.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/shivakharbanda/agent-builder/engine"
	"github.com/shivakharbanda/agent-builder/log"
	"github.com/shivakharbanda/agent-builder/node"
	"github.com/shivakharbanda/agent-builder/workflow"
)

// Server routes engine requests.
type Server struct {
	factory *node.Factory
	router  *mux.Router
	opts    []engine.Option

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithEngineOptions sets the options applied to every engine built for an
// execute request, e.g. engine.WithParallelism.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Server) { s.opts = opts }
}

// New creates a Server around a node factory.
func New(factory *node.Factory, opts ...Option) *Server {
	s := &Server{factory: factory}
	for _, opt := range opts {
		opt(s)
	}
	s.router = mux.NewRouter()
	s.router.HandleFunc("/api/node-types", s.handleNodeTypes).Methods(http.MethodGet)
	s.router.HandleFunc("/api/workflows/execute-node", s.handleExecuteNode).Methods(http.MethodPost)
	return s
}

// Handler returns the HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return cors.AllowAll().Handler(s.router)
}

// Start serves HTTP on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Infof("workflow engine listening on %s", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// nodeTypesResponse lists the registered node type names.
type nodeTypesResponse struct {
	NodeTypes []string `json:"node_types"`
}

func (s *Server) handleNodeTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, nodeTypesResponse{NodeTypes: s.factory.Registry().Types()})
}

// executeNodeRequest carries one single-node execution request. Nodes is
// optional: when absent, persisted nodes are derived from the document in
// declaration order.
type executeNodeRequest struct {
	WorkflowID int64                  `json:"workflow_id"`
	Workflow   *workflow.Document     `json:"workflow"`
	Nodes      []engine.PersistedNode `json:"nodes"`
	NodeID     int64                  `json:"node_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleExecuteNode(w http.ResponseWriter, r *http.Request) {
	var req executeNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if req.Workflow == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "workflow document is required"})
		return
	}

	nodes := req.Nodes
	if len(nodes) == 0 {
		nodes = derivePersistedNodes(req.Workflow)
	}

	eng, err := engine.New(req.Workflow, nodes, s.factory,
		append([]engine.Option{engine.WithWorkflowID(req.WorkflowID)}, s.opts...)...)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := eng.ExecuteNode(r.Context(), req.NodeID)
	if err != nil {
		status := http.StatusInternalServerError
		if node.IsConfigError(err) {
			status = http.StatusBadRequest
		}
		// A failed run still carries its execution record.
		if result != nil {
			writeJSON(w, status, result)
			return
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// derivePersistedNodes synthesizes persisted nodes for ad-hoc documents
// that were never saved: durable ids follow declaration order and are
// injected into each node's config so correlation is exact.
func derivePersistedNodes(doc *workflow.Document) []engine.PersistedNode {
	nodes := make([]engine.PersistedNode, len(doc.Nodes))
	for i := range doc.Nodes {
		spec := &doc.Nodes[i]
		durable := int64(i + 1)
		if spec.Config == nil {
			spec.Config = make(map[string]any)
		}
		spec.Config["node_db_id"] = durable
		nodes[i] = engine.PersistedNode{
			ID:       durable,
			Type:     spec.Type,
			Position: i,
			Config:   spec.Config,
		}
	}
	return nodes
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

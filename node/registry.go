package node

import (
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/dbexec"
	"github.com/shivakharbanda/agent-builder/inference"
	"github.com/shivakharbanda/agent-builder/scriptexec"
	"github.com/shivakharbanda/agent-builder/workflow"
)

// Env carries the external collaborators handlers depend on. The engine
// owns none of them; they are injected at construction.
type Env struct {
	Credentials credential.Resolver
	DB          *dbexec.Executor
	Inference   inference.Processor
	Scripts     scriptexec.Runner
	HTTPClient  *http.Client
}

// Builder constructs a Handler for one node. Builders must not perform I/O;
// external references are checked in Validate.
type Builder func(nctx Context, env *Env) (Handler, error)

// Registry maps node type names to handler builders. It is an explicit
// value passed into the Factory, not package-level mutable state, so there
// is no import-order-dependent auto-registration.
type Registry struct {
	mu       sync.RWMutex
	builders map[workflow.NodeType]Builder
}

// NewRegistry creates a Registry pre-populated with the six built-in node
// types.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[workflow.NodeType]Builder)}
	r.builders[workflow.NodeTypeDatabase] = newDatabaseHandler
	r.builders[workflow.NodeTypeAgent] = newAgentHandler
	r.builders[workflow.NodeTypeFilter] = newFilterHandler
	r.builders[workflow.NodeTypeScript] = newScriptHandler
	r.builders[workflow.NodeTypeConditional] = newConditionalHandler
	r.builders[workflow.NodeTypeOutput] = newOutputHandler
	return r
}

// Register adds a custom node type. Registering a nil builder or an already
// registered type is a ConfigError.
func (r *Registry) Register(nodeType workflow.NodeType, builder Builder) error {
	if builder == nil {
		return NewConfigError("cannot register node type %q with a nil builder", nodeType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.builders[nodeType]; exists {
		return NewConfigError("node type %q is already registered", nodeType)
	}
	r.builders[nodeType] = builder
	return nil
}

// Types returns the registered node type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, string(t))
	}
	sort.Strings(types)
	return types
}

func (r *Registry) builder(nodeType workflow.NodeType) (Builder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[nodeType]
	return b, ok
}

// Factory instantiates handlers from the registry, wiring in the shared
// collaborator environment.
type Factory struct {
	registry *Registry
	env      *Env
}

// NewFactory creates a Factory.
func NewFactory(registry *Registry, env *Env) *Factory {
	return &Factory{registry: registry, env: env}
}

// Registry returns the factory's registry.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// New instantiates the handler for the node described by nctx. An unknown
// type is a ConfigError naming the requested type and the registered list,
// never a silent default.
func (f *Factory) New(nctx Context) (Handler, error) {
	builder, ok := f.registry.builder(nctx.NodeType)
	if !ok {
		return nil, NewConfigError("unknown node type %q, available types: %s",
			nctx.NodeType, strings.Join(f.registry.Types(), ", "))
	}
	return builder(nctx, f.env)
}

// NewRunner instantiates the handler for nctx and wraps it in a Runner.
func (f *Factory) NewRunner(nctx Context) (*Runner, error) {
	handler, err := f.New(nctx)
	if err != nil {
		return nil, err
	}
	return NewRunner(nctx, handler), nil
}

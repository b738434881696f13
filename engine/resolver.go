package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/shivakharbanda/agent-builder/internal/telemetry"
	"github.com/shivakharbanda/agent-builder/log"
	"github.com/shivakharbanda/agent-builder/node"
)

// ExecuteNode executes the node with the given durable id, resolving and
// executing its upstream producers first. Each node runs at most once per
// call even when several consumers share it; a dependency cycle is a
// ConfigError, not an infinite recursion.
func (e *Engine) ExecuteNode(ctx context.Context, durableID int64) (*ExecutionResult, error) {
	if _, ok := e.byDurable[durableID]; !ok {
		return nil, node.NewConfigError("node %d is not part of workflow %q", durableID, e.doc.Name)
	}
	if _, ok := e.durableToVisual[durableID]; !ok {
		return nil, node.NewConfigError("node %d is persisted but absent from the workflow document", durableID)
	}

	st := &execState{
		engine:      e,
		executionID: uuid.NewString(),
		entries:     make(map[int64]*execEntry),
	}
	if e.parallelism > 1 {
		// Nonblocking: a saturated pool must not block nested submissions
		// from pooled tasks; overflowing branches run inline instead.
		pool, err := ants.NewPool(e.parallelism, ants.WithNonblocking(true))
		if err != nil {
			return nil, node.WrapRuntimeError(err, "failed to create resolver pool")
		}
		defer pool.Release()
		st.pool = pool
	}

	log.Infof("executing workflow %q node %d (execution %s)", e.doc.Name, durableID, st.executionID)
	return st.run(ctx, durableID, nil)
}

// execState tracks one ExecuteNode call: memoized per-node results so a
// shared upstream runs exactly once, plus the optional worker pool.
type execState struct {
	engine      *Engine
	executionID string
	pool        *ants.Pool

	mu      sync.Mutex
	entries map[int64]*execEntry
}

// execEntry is the memoized outcome of one node run. done is closed when
// result and err are final.
type execEntry struct {
	done   chan struct{}
	result *ExecutionResult
	err    error
}

// run executes one node, resolving its producers first. path holds the
// durable ids of the nodes currently being resolved on this branch; hitting
// one of them again means the edge list contains a cycle.
func (st *execState) run(ctx context.Context, durableID int64, path map[int64]bool) (*ExecutionResult, error) {
	if path[durableID] {
		return nil, node.NewConfigError("cycle detected in workflow %q at node %d",
			st.engine.doc.Name, durableID)
	}

	st.mu.Lock()
	if entry, ok := st.entries[durableID]; ok {
		st.mu.Unlock()
		select {
		case <-entry.done:
			return entry.result, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &execEntry{done: make(chan struct{})}
	st.entries[durableID] = entry
	st.mu.Unlock()

	result, err := st.execute(ctx, durableID, path)
	entry.result = result
	entry.err = err
	close(entry.done)
	return result, err
}

func (st *execState) execute(ctx context.Context, durableID int64, path map[int64]bool) (*ExecutionResult, error) {
	e := st.engine
	persisted := e.byDurable[durableID]
	visual := e.durableToVisual[durableID]

	childPath := make(map[int64]bool, len(path)+1)
	for id := range path {
		childPath[id] = true
	}
	childPath[durableID] = true

	producers := e.doc.Producers(visual)
	inputs, err := st.resolveProducers(ctx, producers, childPath)
	if err != nil {
		return nil, err
	}

	var input any
	switch {
	case len(producers) == 0:
		// Sources and nodes with no inbound edges run with no input.
		input = nil
	case len(producers) == 1 && singleProducerOriented(persisted.Type):
		input = inputs[producers[0]]
	default:
		input = inputs
	}

	nctx := node.Context{
		NodeID:      durableID,
		NodeType:    persisted.Type,
		WorkflowID:  e.workflowID,
		ExecutionID: st.executionID,
		Position:    persisted.Position,
		Config:      node.Config(persisted.Config),
	}
	runner, err := e.factory.NewRunner(nctx)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartNodeSpan(ctx, durableID, string(persisted.Type))
	defer span.End()

	output, runErr := runner.Run(ctx, input)
	metadata := runner.Metadata()
	telemetry.RecordNodeRun(ctx, string(persisted.Type), string(metadata.Status))

	result := &ExecutionResult{
		Status:   metadata.Status,
		NodeID:   durableID,
		NodeType: persisted.Type,
		Results:  output,
		Metadata: metadata,
	}
	if e.history != nil {
		e.history.Record(result)
	}
	if runErr != nil {
		log.Errorf("node %d (%s) failed: %v", durableID, persisted.Type, runErr)
		return result, runErr
	}
	log.Debugf("node %d (%s) completed in %.3fs", durableID, persisted.Type, metadata.ExecutionTime)
	return result, nil
}

// resolveProducers executes all direct producers and returns their outputs
// keyed by visual id. With a worker pool configured, independent producers
// resolve concurrently; the first failure cancels the sibling branches.
func (st *execState) resolveProducers(ctx context.Context, producers []string, path map[int64]bool) (map[string]any, error) {
	if len(producers) == 0 {
		return nil, nil
	}

	durables := make([]int64, len(producers))
	for i, visual := range producers {
		durable, err := st.engine.DurableID(visual)
		if err != nil {
			return nil, err
		}
		durables[i] = durable
	}

	inputs := make(map[string]any, len(producers))

	if st.pool == nil || len(producers) < 2 {
		for i, visual := range producers {
			result, err := st.run(ctx, durables[i], path)
			if err != nil {
				return nil, err
			}
			inputs[visual] = result.Results
		}
		return inputs, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for i, visual := range producers {
		i, visual := i, visual
		wg.Add(1)
		task := func() {
			defer wg.Done()
			result, err := st.run(ctx, durables[i], path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			inputs[visual] = result.Results
		}
		if err := st.pool.Submit(task); err != nil {
			// Pool saturated or released: run inline rather than dropping
			// the branch.
			task()
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return inputs, nil
}

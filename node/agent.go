package node

import (
	"context"
	"strings"
	"time"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/inference"
	"github.com/shivakharbanda/agent-builder/log"
)

const (
	defaultBatchSize = 100
	minBatchSize     = 1
	maxBatchSize     = 1000

	defaultAgentTimeout = 30
	minAgentTimeout     = 5
	maxAgentTimeout     = 300
)

// agentHandler processes records through an AI agent in bounded batches,
// mapping record columns onto the agent's input placeholders and merging
// agent results back onto the originals.
type agentHandler struct {
	nctx Context
	env  *Env
}

func newAgentHandler(nctx Context, env *Env) (Handler, error) {
	return &agentHandler{nctx: nctx, env: env}, nil
}

// Validate checks the agent reference, the LLM credential and the numeric
// ranges for batch_size and timeout.
func (h *agentHandler) Validate(ctx context.Context) error {
	cfg := h.nctx.Config

	agentID, ok, err := cfg.Int64("agent_id")
	if err != nil {
		return WrapConfigError(err, "invalid agent_id")
	}
	if !ok || agentID == 0 {
		return NewConfigError("agent_id is required")
	}

	credID, ok, err := cfg.Int64("llm_credential_id")
	if err != nil {
		return WrapConfigError(err, "invalid llm_credential_id")
	}
	if !ok || credID == 0 {
		return NewConfigError("llm_credential_id is required")
	}
	if _, err := resolveCredential(ctx, h.env.Credentials, credID, credential.CategoryLLM); err != nil {
		return err
	}

	if _, err := cfg.IntInRange("batch_size", defaultBatchSize, minBatchSize, maxBatchSize); err != nil {
		return WrapConfigError(err, "invalid batch_size")
	}
	if _, err := cfg.IntInRange("timeout", defaultAgentTimeout, minAgentTimeout, maxAgentTimeout); err != nil {
		return WrapConfigError(err, "invalid timeout")
	}
	return nil
}

// Execute maps, batches and processes the input records, preserving input
// order across batches. Agent result fields overlay the original columns.
func (h *agentHandler) Execute(ctx context.Context, input any) (any, error) {
	records, err := recordList(input)
	if err != nil {
		return nil, NewRuntimeError("agent node expects a list of records: %v", err)
	}
	if len(records) == 0 {
		return []map[string]any{}, nil
	}
	if h.env.Inference == nil {
		return nil, NewConfigError("no inference processor configured")
	}

	cfg := h.nctx.Config
	agentID, _, _ := cfg.Int64("agent_id")
	batchSize, _ := cfg.IntInRange("batch_size", defaultBatchSize, minBatchSize, maxBatchSize)
	timeoutSec, _ := cfg.IntInRange("timeout", defaultAgentTimeout, minAgentTimeout, maxAgentTimeout)
	mapping := cfg.StringMap("input_mapping")

	mapped := make([]map[string]any, len(records))
	for i, record := range records {
		mapped[i] = mapInput(record, mapping)
	}

	output := make([]map[string]any, 0, len(records))
	for start := 0; start < len(mapped); start += batchSize {
		end := start + batchSize
		if end > len(mapped) {
			end = len(mapped)
		}

		results, err := h.env.Inference.ProcessBatch(ctx, &inference.Request{
			AgentID: agentID,
			Batch:   mapped[start:end],
			Timeout: time.Duration(timeoutSec) * time.Second,
		})
		if err != nil {
			return nil, WrapRuntimeError(err, "agent %d failed on batch %d-%d", agentID, start, end-1)
		}
		if len(results) != end-start {
			return nil, NewRuntimeError("agent %d returned %d results for batch of %d",
				agentID, len(results), end-start)
		}

		for i, result := range results {
			output = append(output, overlay(records[start+i], result))
		}
	}

	log.Debugf("agent %d processed %d records in batches of %d", agentID, len(records), batchSize)
	return output, nil
}

// mapInput builds the agent input for one record. Column references may
// carry a "producer." prefix that is stripped; missing columns map to nil.
func mapInput(record map[string]any, mapping map[string]string) map[string]any {
	agentInput := make(map[string]any, len(mapping))
	for placeholder, columnRef := range mapping {
		column := columnRef
		if idx := strings.LastIndex(columnRef, "."); idx >= 0 {
			column = columnRef[idx+1:]
		}
		if value, ok := record[column]; ok {
			agentInput[placeholder] = value
		} else {
			agentInput[placeholder] = nil
		}
	}
	return agentInput
}

// overlay merges the agent result onto the original record: original first,
// agent fields win on collision.
func overlay(original map[string]any, result inference.Result) map[string]any {
	merged := make(map[string]any, len(original)+len(result))
	for k, v := range original {
		merged[k] = v
	}
	for k, v := range result {
		merged[k] = v
	}
	return merged
}

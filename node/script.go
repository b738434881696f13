package node

import (
	"context"
	"time"

	"github.com/shivakharbanda/agent-builder/scriptexec"
)

const (
	defaultScriptTimeout = 30
	minScriptTimeout     = 5
	maxScriptTimeout     = 300
)

// scriptHandler runs a user-authored script through the configured script
// runtime, binding the input to a single `data` variable and taking the
// script's return value as output.
type scriptHandler struct {
	nctx Context
	env  *Env
}

func newScriptHandler(nctx Context, env *Env) (Handler, error) {
	return &scriptHandler{nctx: nctx, env: env}, nil
}

// Validate checks the language, the script body and the timeout range.
func (h *scriptHandler) Validate(_ context.Context) error {
	cfg := h.nctx.Config

	language := cfg.String("language")
	if language == "" {
		return NewConfigError("language is required")
	}
	switch scriptexec.Language(language) {
	case scriptexec.LanguagePython, scriptexec.LanguageJavaScript:
	default:
		return NewConfigError("invalid language %q, supported languages: python, javascript", language)
	}

	if cfg.String("script") == "" {
		return NewConfigError("script is required")
	}
	if _, err := cfg.IntInRange("timeout", defaultScriptTimeout, minScriptTimeout, maxScriptTimeout); err != nil {
		return WrapConfigError(err, "invalid timeout")
	}
	return nil
}

// Execute delegates to the script runtime with a hard deadline.
func (h *scriptHandler) Execute(ctx context.Context, input any) (any, error) {
	if h.env.Scripts == nil {
		return nil, NewConfigError("no script runner configured")
	}
	cfg := h.nctx.Config
	timeoutSec, _ := cfg.IntInRange("timeout", defaultScriptTimeout, minScriptTimeout, maxScriptTimeout)

	result, err := h.env.Scripts.RunScript(ctx, scriptexec.Input{
		Language:    scriptexec.Language(cfg.String("language")),
		Script:      cfg.String("script"),
		Data:        input,
		Timeout:     time.Duration(timeoutSec) * time.Second,
		ExecutionID: h.nctx.ExecutionID,
	})
	if err != nil {
		return nil, WrapRuntimeError(err, "script execution failed on node %d", h.nctx.NodeID)
	}
	return result, nil
}

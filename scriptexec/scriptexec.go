// Package scriptexec defines the script-execution collaborator consumed by
// script nodes. Concrete runtimes (local subprocess, container) implement
// Runner; the engine only depends on this contract.
package scriptexec

import (
	"context"
	"time"
)

// Language is a supported script language.
type Language string

const (
	// LanguagePython runs the script with a Python interpreter.
	LanguagePython Language = "python"
	// LanguageJavaScript runs the script with a Node.js interpreter.
	LanguageJavaScript Language = "javascript"
)

// Input is one script invocation. Data is bound to a single `data` variable
// inside the script; the script's return value becomes the output.
type Input struct {
	Language    Language
	Script      string
	Data        any
	Timeout     time.Duration
	ExecutionID string
}

// Runner executes a user-authored script in an isolated environment. The
// timeout is a hard deadline: implementations must abort and fail rather
// than hang.
type Runner interface {
	RunScript(ctx context.Context, input Input) (any, error)
}

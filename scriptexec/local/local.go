// Package local provides a scriptexec.Runner that executes scripts in a
// local subprocess. It supports Python and JavaScript by writing a small
// harness to a temp directory and invoking the interpreter with a hard
// deadline, a capped output size and a minimal environment. The isolation
// is process-level only; untrusted multi-tenant workloads should use a
// container-backed runner instead.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shivakharbanda/agent-builder/log"
	"github.com/shivakharbanda/agent-builder/scriptexec"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxOutput = 4 << 20 // 4 MiB
)

// Runner executes scripts on the local host.
type Runner struct {
	pythonBin string
	nodeBin   string
	maxOutput int64
	keepFiles bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithPythonBin sets the Python interpreter binary.
func WithPythonBin(bin string) Option {
	return func(r *Runner) { r.pythonBin = bin }
}

// WithNodeBin sets the Node.js interpreter binary.
func WithNodeBin(bin string) Option {
	return func(r *Runner) { r.nodeBin = bin }
}

// WithMaxOutput caps the bytes read from the script's stdout.
func WithMaxOutput(n int64) Option {
	return func(r *Runner) { r.maxOutput = n }
}

// WithKeepFiles disables cleanup of the temp work directory.
func WithKeepFiles(keep bool) Option {
	return func(r *Runner) { r.keepFiles = keep }
}

// New creates a local Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		pythonBin: "python3",
		nodeBin:   "node",
		maxOutput: defaultMaxOutput,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript implements scriptexec.Runner.
func (r *Runner) RunScript(ctx context.Context, input scriptexec.Input) (any, error) {
	timeout := input.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	workDir, err := os.MkdirTemp("", "scriptexec_"+input.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	if !r.keepFiles {
		defer os.RemoveAll(workDir)
	}

	var bin, file string
	switch input.Language {
	case scriptexec.LanguagePython:
		bin = r.pythonBin
		file = filepath.Join(workDir, "script.py")
		if err := os.WriteFile(file, []byte(pythonHarness(input.Script)), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write script: %w", err)
		}
	case scriptexec.LanguageJavaScript:
		bin = r.nodeBin
		file = filepath.Join(workDir, "script.js")
		if err := os.WriteFile(file, []byte(javascriptHarness(input.Script)), 0o600); err != nil {
			return nil, fmt.Errorf("failed to write script: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported script language %q", input.Language)
	}

	stdin, err := json.Marshal(input.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode script input: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, file)
	cmd.Dir = workDir
	// Minimal environment: interpreters get PATH and HOME only.
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + workDir}
	cmd.Stdin = bytes.NewReader(stdin)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", bin, err)
	}
	out, readErr := io.ReadAll(io.LimitReader(stdout, r.maxOutput))
	waitErr := cmd.Wait()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("script timed out after %s", timeout)
	}
	if waitErr != nil {
		return nil, fmt.Errorf("script failed: %v: %s", waitErr, truncate(stderr.String(), 500))
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read script output: %w", readErr)
	}

	var result any
	if err := json.Unmarshal(bytes.TrimSpace(out), &result); err != nil {
		return nil, fmt.Errorf("script produced non-JSON output: %w", err)
	}
	log.Debugf("script %s completed in workdir %s", input.ExecutionID, workDir)
	return result, nil
}

// pythonHarness wraps the user script in a function so its return value can
// be captured. Input arrives as JSON on stdin bound to `data`; the result
// is printed as JSON on stdout.
func pythonHarness(script string) string {
	var b strings.Builder
	b.WriteString("import json, sys\n\n")
	b.WriteString("def __user_script(data):\n")
	for _, line := range strings.Split(script, "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("__data = json.load(sys.stdin)\n")
	b.WriteString("__result = __user_script(__data)\n")
	b.WriteString("json.dump(__result, sys.stdout)\n")
	return b.String()
}

// javascriptHarness wraps the user script in a function body. The script
// returns its result; `data` is the bound input.
func javascriptHarness(script string) string {
	var b strings.Builder
	b.WriteString("const data = JSON.parse(require('fs').readFileSync(0, 'utf8'));\n")
	b.WriteString("const __result = (function(data) {\n")
	b.WriteString(script)
	b.WriteString("\n})(data);\n")
	b.WriteString("process.stdout.write(JSON.stringify(__result === undefined ? null : __result));\n")
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

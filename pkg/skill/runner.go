// Package skill invokes the deterministic procedural handlers. Handlers
// are opaque external executables; their internals are not this system's
// concern, only the invocation contract: prompt on stdin, result on stdout.
package skill

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes skill handlers from a directory.
type Runner struct {
	dir     string
	timeout time.Duration
	log     *zap.Logger
}

// NewRunner creates a runner over the handler directory.
func NewRunner(dir string, timeout time.Duration, log *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{dir: dir, timeout: timeout, log: log}
}

// Run invokes the handler named by the catalog entry, feeding it the prompt
// on stdin and in the CWE_PROMPT environment variable, and returns its
// stdout. Handler stderr is logged, not returned.
func (r *Runner) Run(ctx context.Context, handler, prompt string) (string, error) {
	path, err := r.resolve(handler)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.Env = append(os.Environ(), "CWE_PROMPT="+prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	if stderr.Len() > 0 {
		r.log.Debug("skill handler stderr",
			zap.String("handler", handler),
			zap.String("stderr", stderr.String()))
	}
	if err != nil {
		return "", fmt.Errorf("skill handler %s: %w", handler, err)
	}
	r.log.Debug("skill handler finished",
		zap.String("handler", handler),
		zap.Duration("elapsed", time.Since(start)))

	return stdout.String(), nil
}

// resolve finds the handler executable, trying the bare name and common
// script suffixes.
func (r *Runner) resolve(handler string) (string, error) {
	if handler == "" {
		return "", fmt.Errorf("empty handler name")
	}
	candidates := []string{handler}
	if filepath.Ext(handler) == "" {
		candidates = append(candidates, handler+".sh", handler+".py")
	}
	for _, name := range candidates {
		path := filepath.Join(r.dir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("skill handler %s not found in %s", handler, r.dir)
}

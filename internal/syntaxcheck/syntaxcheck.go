// Package syntaxcheck provides a per-extension syntactic sanity check over
// merged text. It writes candidate text to a temporary file outside the
// project root (so editors and file watchers on the project never observe
// it) and bounds every external tool invocation with a timeout, dispatching
// on the file extension to a syntax-only check.
package syntaxcheck

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Timeout bounds every validator subprocess invocation.
const Timeout = 30 * time.Second

// Validator checks merged text for syntactic validity without ever writing
// inside the project the text came from.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Check dispatches on the extension of path and validates text. It returns
// valid=true whenever the tool is unavailable, the check times out, or the
// extension is unrecognised; it returns valid=false only on a high-
// confidence syntactic failure, with a short message describing it.
func (v *Validator) Check(ctx context.Context, path, text, projectRoot string) (valid bool, message string) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".py":
		return checkPython(ctx, text)
	case ".json":
		return checkJSON(text)
	case ".ts", ".tsx", ".js", ".jsx":
		return checkTypeScriptOrJavaScript(ctx, ext, text, projectRoot)
	default:
		return true, ""
	}
}

// checkPython shells out to the Python interpreter's own compile step,
// since validating Python syntax from Go means asking Python, not
// reimplementing its grammar.
func checkPython(ctx context.Context, text string) (bool, string) {
	tmpPath, cleanup, err := writeOutsideProjectRoot("*.py", text)
	if err != nil {
		return true, ""
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "python3", "-m", "py_compile", tmpPath)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, ""
	}
	if ctx.Err() != nil {
		return true, "" // timeout = assume ok
	}
	if isNotFound(err) {
		return true, "" // interpreter unavailable = skip validation
	}
	return false, firstLine(string(out))
}

// checkJSON uses the standard library decoder directly; no subprocess or
// temp file is needed since this check never touches a filesystem watcher.
func checkJSON(text string) (bool, string) {
	var v interface{}
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return false, "JSON error: " + err.Error()
	}
	return true, ""
}

// checkTypeScriptOrJavaScript runs tsc for TypeScript and then, unless tsc
// reported an error, eslint's parser for both TypeScript and JavaScript, mirroring the
// original implementation's tool preference. Either tool's absence or
// timeout is treated as a pass.
func checkTypeScriptOrJavaScript(ctx context.Context, ext, text, projectRoot string) (bool, string) {
	tmpPath, cleanup, err := writeOutsideProjectRoot(ext, text)
	if err != nil {
		return true, ""
	}
	defer cleanup()

	if ext == ".ts" || ext == ".tsx" {
		valid, msg, ran := runTSC(ctx, projectRoot, tmpPath)
		if ran && !valid {
			return false, msg
		}
	}

	valid, msg, ran := runESLint(ctx, projectRoot, tmpPath)
	if ran && !valid {
		return false, msg
	}

	return true, ""
}

func runTSC(ctx context.Context, projectRoot, tmpPath string) (valid bool, message string, ran bool) {
	cctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "npx", "tsc", "--noEmit", "--skipLibCheck", tmpPath)
	cmd.Dir = projectRoot
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, "", true
	}
	if cctx.Err() != nil || isNotFound(err) {
		return true, "", false
	}

	var errLines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(strings.ToLower(line), "npm warn") {
			continue
		}
		errLines = append(errLines, line)
	}
	if len(errLines) == 0 {
		return true, "", true
	}
	if len(errLines) > 3 {
		errLines = errLines[:3]
	}
	return false, strings.Join(errLines, "\n"), true
}

func runESLint(ctx context.Context, projectRoot, tmpPath string) (valid bool, message string, ran bool) {
	cctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "npx", "eslint", "--no-eslintrc", "--parser", "@typescript-eslint/parser", tmpPath)
	cmd.Dir = projectRoot
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, "", true
	}
	if cctx.Err() != nil || isNotFound(err) {
		return true, "", false
	}

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return true, "", false
	}
	// Exit 1 means lint findings; only a parse error is a syntax failure.
	// Exit >1 means eslint itself failed to configure, not a code problem.
	if exitErr.ExitCode() > 1 {
		return true, "", true
	}
	if strings.Contains(string(out), "Parsing error") {
		return false, "Syntax error in merged code", true
	}
	return true, "", true
}

func writeOutsideProjectRoot(suffix, text string) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "auto-claude-syntaxcheck-*"+suffix)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}

	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func isNotFound(err error) bool {
	_, ok := err.(*exec.Error)
	return ok
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// Package smartmerge implements the pre-pass that the orchestrator runs on
// critical package-manifest files before handing a conflict to the general
// AI merge worker: format-aware merges for the handful of file types where
// a textual three-way merge is more likely to corrupt structured data than
// a value-level union would be.
package smartmerge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// CriticalFilePatterns lists the basenames this pre-pass recognises. Any
// other path should go through the standard merge worker unchanged.
var CriticalFilePatterns = []string{
	"package.json",
	"go.mod",
	"Cargo.toml",
	"pyproject.toml",
	"requirements.txt",
	"tsconfig.json",
	".gitignore",
}

// LockFiles are regenerated rather than merged; merging their manifest is
// sufficient and the lockfile itself should be rebuilt by the project's
// own tooling after the merge lands.
var LockFiles = map[string]string{
	"package-lock.json": "npm install",
	"yarn.lock":         "yarn install",
	"pnpm-lock.yaml":    "pnpm install",
	"go.sum":            "go mod tidy",
	"Cargo.lock":        "cargo build",
	"poetry.lock":       "poetry lock",
}

// IsCritical reports whether path's basename is in CriticalFilePatterns.
// Merge handles only package.json, go.mod and .gitignore of these; for the
// others it returns ok=false.
func IsCritical(path string) bool {
	base := filepath.Base(path)
	for _, p := range CriticalFilePatterns {
		if base == p {
			return true
		}
	}
	return false
}

// IsLockFile reports whether path is a lock file that should be
// regenerated, along with the command to regenerate it.
func IsLockFile(path string) (command string, ok bool) {
	command, ok = LockFiles[filepath.Base(path)]
	return command, ok
}

// Merge attempts a format-aware merge of ours and theirs, given the file's
// basename. It returns ok=false when the format is not one this package
// understands, in which case the caller should fall back to the standard
// merge worker.
func Merge(path, ours, theirs string) (merged string, ok bool, err error) {
	switch filepath.Base(path) {
	case "package.json":
		merged, err = mergePackageJSON(ours, theirs)
	case "go.mod":
		merged, err = mergeGoMod(ours, theirs)
	case ".gitignore":
		merged = mergeGitignore(ours, theirs)
	default:
		return "", false, nil
	}
	if err != nil {
		return "", true, err
	}
	return merged, true, nil
}

func mergePackageJSON(ours, theirs string) (string, error) {
	var oursPkg, theirsPkg map[string]interface{}
	if err := json.Unmarshal([]byte(ours), &oursPkg); err != nil {
		oursPkg = map[string]interface{}{}
	}
	if err := json.Unmarshal([]byte(theirs), &theirsPkg); err != nil {
		return "", fmt.Errorf("parse theirs package.json: %w", err)
	}

	result := oursPkg
	for _, key := range []string{"dependencies", "devDependencies", "peerDependencies", "scripts"} {
		result[key] = mergeStringMaps(toStringMap(oursPkg[key]), toStringMap(theirsPkg[key]))
	}
	for key, value := range theirsPkg {
		if _, exists := result[key]; !exists {
			result[key] = value
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal merged package.json: %w", err)
	}
	return string(data) + "\n", nil
}

func toStringMap(v interface{}) map[string]string {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

func mergeStringMaps(a, b map[string]string) map[string]string {
	result := make(map[string]string)
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		// A later (theirs) version wins only if ours did not already pin
		// one; on conflicting pins ours' version is kept.
		if _, exists := result[k]; !exists {
			result[k] = v
		}
	}
	return result
}

var requireLineRE = regexp.MustCompile(`^\s*([^\s]+)\s+(v[^\s]+)`)

func mergeGoMod(ours, theirs string) (string, error) {
	oursReqs := parseGoModRequires(ours)
	theirsReqs := parseGoModRequires(theirs)

	merged := make(map[string]string, len(oursReqs))
	for k, v := range oursReqs {
		merged[k] = v
	}
	for k, v := range theirsReqs {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	return updateGoModRequires(ours, merged), nil
}

func parseGoModRequires(content string) map[string]string {
	out := make(map[string]string)
	inBlock := false
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "require (":
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock:
			if m := requireLineRE.FindStringSubmatch(trimmed); m != nil {
				out[m[1]] = m[2]
			}
		case strings.HasPrefix(trimmed, "require "):
			if m := requireLineRE.FindStringSubmatch(strings.TrimPrefix(trimmed, "require ")); m != nil {
				out[m[1]] = m[2]
			}
		}
	}
	return out
}

// updateGoModRequires rewrites ours' require block to include every module
// in merged, preserving ours' ordering for modules it already listed and
// appending any new ones (from theirs) at the end of the block, sorted.
func updateGoModRequires(oursContent string, merged map[string]string) string {
	var out strings.Builder
	written := make(map[string]bool)
	inBlock := false
	lines := strings.Split(oursContent, "\n")

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "require (":
			inBlock = true
			out.WriteString(line)
			out.WriteByte('\n')
		case inBlock && trimmed == ")":
			var missing []string
			for mod := range merged {
				if !written[mod] {
					missing = append(missing, mod)
				}
			}
			sort.Strings(missing)
			for _, mod := range missing {
				fmt.Fprintf(&out, "\t%s %s\n", mod, merged[mod])
			}
			inBlock = false
			out.WriteString(line)
			out.WriteByte('\n')
		case inBlock:
			if m := requireLineRE.FindStringSubmatch(trimmed); m != nil {
				mod := m[1]
				written[mod] = true
				fmt.Fprintf(&out, "\t%s %s\n", mod, merged[mod])
				continue
			}
			out.WriteString(line)
			out.WriteByte('\n')
		default:
			out.WriteString(line)
			if i < len(lines)-1 {
				out.WriteByte('\n')
			}
		}
	}
	return out.String()
}

// mergeGitignore unions the line sets from both sides, preserving ours'
// ordering and appending any lines unique to theirs.
func mergeGitignore(ours, theirs string) string {
	seen := make(map[string]bool)
	var out []string
	for _, line := range strings.Split(ours, "\n") {
		if line == "" {
			continue
		}
		out = append(out, line)
		seen[line] = true
	}
	for _, line := range strings.Split(theirs, "\n") {
		if line == "" || seen[line] {
			continue
		}
		out = append(out, line)
		seen[line] = true
	}
	return strings.Join(out, "\n") + "\n"
}

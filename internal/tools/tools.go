package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"texbuild/internal/runner"
)

// ToolInfo captures availability and version details for an external tool.
type ToolInfo struct {
	Name      string   `json:"name"`
	Roles     []string `json:"roles"`
	Path      string   `json:"path,omitempty"`
	Version   string   `json:"version,omitempty"`
	Available bool     `json:"available"`
	Optional  bool     `json:"optional,omitempty"`
	Error     string   `json:"error,omitempty"`
	Hints     []string `json:"hints,omitempty"`
}

// Prober discovers tool availability and version information.
type Prober struct {
	Runner   runner.Runner
	LookPath func(file string) (string, error)
}

// NewProber returns a Prober using the system PATH.
func NewProber() Prober {
	return Prober{Runner: runner.CmdRunner{}, LookPath: exec.LookPath}
}

// Probe checks every definition in order.
func (p Prober) Probe(ctx context.Context, defs []ToolDefinition) []ToolInfo {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	result := make([]ToolInfo, 0, len(defs))
	for _, def := range defs {
		result = append(result, p.probeOne(ctx, def))
	}
	return result
}

func (p Prober) probeOne(ctx context.Context, def ToolDefinition) ToolInfo {
	info := ToolInfo{Name: def.Name, Roles: def.Roles, Optional: def.Optional}
	path, err := p.LookPath(def.Executable)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			info.Error = "not found"
		} else {
			info.Error = err.Error()
		}
		info.Hints = installHints(def.Name)
		return info
	}
	info.Path = path
	info.Available = true

	version, err := p.readVersion(ctx, path, def.VersionSwitch)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Version = version
	return info
}

// readVersion runs the tool with its version switch. Some TeX tools print
// their banner on stderr or exit nonzero, so both streams are considered
// and the exit code is ignored.
func (p Prober) readVersion(ctx context.Context, path, versionSwitch string) (string, error) {
	var stdout bytes.Buffer
	res, err := p.Runner.Run(ctx, path, []string{versionSwitch}, runner.Options{Stdout: &stdout})
	if err != nil {
		return "", err
	}
	banner := stdout.String()
	if strings.TrimSpace(banner) == "" {
		banner = string(res.Stderr)
	}
	if strings.TrimSpace(banner) == "" {
		return "", errors.New("no version output")
	}
	return normalizeVersion(banner), nil
}

// Missing returns the required tools that are not available.
func Missing(infos []ToolInfo) []ToolInfo {
	var missing []ToolInfo
	for _, info := range infos {
		if !info.Available && !info.Optional {
			missing = append(missing, info)
		}
	}
	return missing
}

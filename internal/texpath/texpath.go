// Package texpath locates TeX resource files (bibliography databases and
// styles) the way the TeX tools themselves do: next to the document, then on
// a configured search path, then through kpsewhich.
package texpath

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"texbuild/internal/runner"
)

// Resolver finds name, which is relative to dir unless absolute.
type Resolver interface {
	Find(ctx context.Context, name, dir string) (string, bool)
}

// SearchPath resolves against Dirs. When Runner is set, kpsewhich is asked as
// a last resort.
type SearchPath struct {
	Dirs      []string
	Runner    runner.Runner
	Kpsewhich string
}

// envVars are the variables TeX tools consult for extra input directories.
var envVars = []string{"TEXINPUTS", "BIBINPUTS", "BSTINPUTS"}

func (s SearchPath) Find(ctx context.Context, name, dir string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	if p := filepath.Join(dir, name); isFile(p) {
		return p, true
	}
	for _, d := range s.Dirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(dir, d)
		}
		if p := filepath.Join(d, name); isFile(p) {
			return p, true
		}
	}
	return s.kpsewhich(ctx, name, dir)
}

func (s SearchPath) kpsewhich(ctx context.Context, name, dir string) (string, bool) {
	if s.Runner == nil {
		return "", false
	}
	command := s.Kpsewhich
	if command == "" {
		command = "kpsewhich"
	}
	var out bytes.Buffer
	res, err := s.Runner.Run(ctx, command, []string{name}, runner.Options{Dir: dir, Env: s.Env(), Stdout: &out})
	if err != nil || res.ExitCode != 0 {
		return "", false
	}
	p := strings.TrimSpace(out.String())
	if p == "" {
		return "", false
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, p)
	}
	return p, isFile(p)
}

// Env returns TEXINPUTS, BIBINPUTS and BSTINPUTS assignments that put Dirs in
// front of the current value. The trailing list separator keeps the
// system defaults.
func (s SearchPath) Env() []string {
	if len(s.Dirs) == 0 {
		return nil
	}
	sep := string(os.PathListSeparator)
	list := strings.Join(s.Dirs, sep) + sep
	env := make([]string, 0, len(envVars))
	for _, v := range envVars {
		env = append(env, v+"="+list+os.Getenv(v))
	}
	return env
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Flavor selects the compiler variant and with it the output format.
type Flavor string

const (
	FlavorDVI Flavor = "dvi"
	FlavorPDF Flavor = "pdf"
)

// ParseFlavor accepts "dvi" or "pdf" in any case.
func ParseFlavor(s string) (Flavor, error) {
	switch f := Flavor(strings.ToLower(strings.TrimSpace(s))); f {
	case FlavorDVI, FlavorPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unknown flavor %q (want dvi or pdf)", s)
	}
}

// Config captures how documents next to the config file are built.
type Config struct {
	Version       int            `yaml:"version"`
	Inherit       string         `yaml:"inherit,omitempty"`
	Commands      CommandsConfig `yaml:"commands"`
	Flavor        Flavor         `yaml:"flavor"`
	Language      string         `yaml:"language"`
	Nice          bool           `yaml:"nice,omitempty"`
	OnlyChildBibs bool           `yaml:"only_child_bibs,omitempty"`
	SearchPath    []string       `yaml:"search_path"`
	LogDir        string         `yaml:"log_dir"`
	Watch         WatchConfig    `yaml:"watch"`
}

// CommandsConfig holds the command templates for the compiler and its
// satellite tools. "$$i" in a compiler template stands for the source file
// and "$$lang" in the index template for the document language.
type CommandsConfig struct {
	LaTeX     string `yaml:"latex"`
	PDFLaTeX  string `yaml:"pdflatex"`
	BibTeX    string `yaml:"bibtex"`
	Index     string `yaml:"index"`
	Nomencl   string `yaml:"nomencl"`
	Glossary  string `yaml:"glossary"`
	Kpsewhich string `yaml:"kpsewhich"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	DebounceMS int      `yaml:"debounce_ms"`
	Ignore     []string `yaml:"ignore,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Commands: CommandsConfig{
			LaTeX:     "latex -interaction=nonstopmode",
			PDFLaTeX:  "pdflatex -interaction=nonstopmode",
			BibTeX:    "bibtex",
			Index:     "makeindex -c -q",
			Nomencl:   "makeindex -s nomencl.ist",
			Glossary:  "makeindex -s nomencl.ist",
			Kpsewhich: "kpsewhich",
		},
		Flavor:     FlavorPDF,
		Language:   "english",
		SearchPath: []string{},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration. An inherited base config fills in every value
// the file leaves unset.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyDefaults()
		return cfg, nil
	}
	cfg, err := loadChain(path, map[string]bool{})
	if err != nil {
		return Config{}, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// Parse decodes a config document without touching the filesystem.
func Parse(contents []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults ensures fields fall back to sensible defaults when the YAML
// omits them.
func (c *Config) ApplyDefaults() {
	c.fillFrom(Default())
	if c.SearchPath == nil {
		c.SearchPath = []string{}
	}
}

// fillFrom copies every value of base that c leaves unset.
func (c *Config) fillFrom(base Config) {
	if c.Version == 0 {
		c.Version = base.Version
	}
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&c.Commands.LaTeX, base.Commands.LaTeX)
	fill(&c.Commands.PDFLaTeX, base.Commands.PDFLaTeX)
	fill(&c.Commands.BibTeX, base.Commands.BibTeX)
	fill(&c.Commands.Index, base.Commands.Index)
	fill(&c.Commands.Nomencl, base.Commands.Nomencl)
	fill(&c.Commands.Glossary, base.Commands.Glossary)
	fill(&c.Commands.Kpsewhich, base.Commands.Kpsewhich)
	if c.Flavor == "" {
		c.Flavor = base.Flavor
	}
	fill(&c.Language, base.Language)
	fill(&c.LogDir, base.LogDir)
	if len(c.SearchPath) == 0 && len(base.SearchPath) > 0 {
		c.SearchPath = append([]string(nil), base.SearchPath...)
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = base.Watch.DebounceMS
	}
	if len(c.Watch.Ignore) == 0 && len(base.Watch.Ignore) > 0 {
		c.Watch.Ignore = append([]string(nil), base.Watch.Ignore...)
	}
	c.Nice = c.Nice || base.Nice
	c.OnlyChildBibs = c.OnlyChildBibs || base.OnlyChildBibs
}

// CompilerCommand returns the compiler template for the configured flavor.
func (c Config) CompilerCommand() string {
	if c.Flavor == FlavorDVI {
		return c.Commands.LaTeX
	}
	return c.Commands.PDFLaTeX
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}

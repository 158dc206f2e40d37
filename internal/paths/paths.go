package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"texbuild/internal/config"
)

// ConfigFileName is the per-directory config file name.
const ConfigFileName = "texbuild.yaml"

// ErrorSidecars are removed when a compiler pass fails so the next attempt
// regenerates them from scratch. The dependency file is removed as well.
var ErrorSidecars = []string{".bbl", ".ind", ".nls", ".gls", ".aux"}

// DerivedSidecars are every file a build derives from the source, outputs
// and dependency files excluded.
var DerivedSidecars = []string{
	".aux", ".bbl", ".blg", ".bcf", ".run.xml",
	".idx", ".ind", ".ilg",
	".nlo", ".nls", ".glo", ".gls",
	".toc", ".lof", ".lot", ".out", ".log",
}

// DocumentPaths captures canonical locations for one LaTeX document.
type DocumentPaths struct {
	Source     string
	Dir        string
	Base       string
	ConfigFile string
	MetaDir    string
	LogsDir    string
}

// Resolve makes source absolute and derives the document's sidecar
// locations. A source without extension gets ".tex". configFlag overrides the
// config file next to the document.
func Resolve(source, configFlag string) (DocumentPaths, error) {
	if strings.TrimSpace(source) == "" {
		return DocumentPaths{}, fmt.Errorf("document path is empty")
	}
	if filepath.Ext(source) == "" {
		source += ".tex"
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return DocumentPaths{}, fmt.Errorf("resolve document path: %w", err)
	}

	dp := newDocumentPaths(abs)
	if configFlag != "" {
		cfgPath, err := filepath.Abs(configFlag)
		if err != nil {
			return DocumentPaths{}, fmt.Errorf("resolve config path: %w", err)
		}
		dp.ConfigFile = cfgPath
	}
	return dp, nil
}

func newDocumentPaths(source string) DocumentPaths {
	dir := filepath.Dir(source)
	name := filepath.Base(source)
	metaDir := filepath.Join(dir, ".texbuild")
	return DocumentPaths{
		Source:     source,
		Dir:        dir,
		Base:       strings.TrimSuffix(name, filepath.Ext(name)),
		ConfigFile: filepath.Join(dir, ConfigFileName),
		MetaDir:    metaDir,
		LogsDir:    filepath.Join(metaDir, "logs"),
	}
}

// ApplyConfig applies path settings from cfg.
func ApplyConfig(dp DocumentPaths, cfg config.Config) DocumentPaths {
	if logDir := strings.TrimSpace(cfg.LogDir); logDir != "" {
		dp.LogsDir = resolveDocumentPath(dp.Dir, logDir)
	}
	return dp
}

func resolveDocumentPath(root, value string) string {
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(root, value)
}

// SourceName is the source file name without directory.
func (p DocumentPaths) SourceName() string {
	return filepath.Base(p.Source)
}

// File returns the sidecar with the given extension (".aux", ".1.aux", ...).
func (p DocumentPaths) File(ext string) string {
	return filepath.Join(p.Dir, p.Base+ext)
}

// DepFile names the dependency file for a flavor.
func (p DocumentPaths) DepFile(flavor config.Flavor) string {
	if flavor == config.FlavorPDF {
		return p.File(".dep-pdf")
	}
	return p.File(".dep")
}

// OutputFile names the compiler output for a flavor.
func (p DocumentPaths) OutputFile(flavor config.Flavor) string {
	if flavor == config.FlavorPDF {
		return p.File(".pdf")
	}
	return p.File(".dvi")
}

// EnsureMetaDirs creates the hidden .texbuild directory and the log dir.
func (p DocumentPaths) EnsureMetaDirs() error {
	for _, dir := range []string{p.MetaDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GlobalConfigFile returns the user-level config (~/.texbuild/texbuild.yaml).
// It is consulted when a document has no config of its own.
func GlobalConfigFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return filepath.Join(home, ".texbuild", ConfigFileName), nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

package build

import (
	"fmt"

	"texbuild/internal/config"
	"texbuild/internal/paths"
)

// Document is one source file with its effective configuration.
type Document struct {
	Paths  paths.DocumentPaths
	Config config.Config
	// ConfigSource names the file the configuration came from, or
	// "defaults".
	ConfigSource string
}

// LoadDocument resolves source and its configuration. The lookup order is
// configFlag, the config next to the document, the user-level config, and
// finally the built-in defaults.
func LoadDocument(source, configFlag string) (Document, error) {
	dp, err := paths.Resolve(source, configFlag)
	if err != nil {
		return Document{}, err
	}
	exists, err := paths.FileExists(dp.Source)
	if err != nil {
		return Document{}, fmt.Errorf("stat %s: %w", dp.Source, err)
	}
	if !exists {
		return Document{}, fmt.Errorf("document not found: %s", dp.Source)
	}

	cfgPath, err := lookupConfig(dp, configFlag)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Paths: dp, ConfigSource: "defaults"}
	if cfgPath == "" {
		doc.Config = config.Default()
	} else {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return Document{}, err
		}
		doc.Config = cfg
		doc.ConfigSource = cfgPath
	}
	doc.Paths = paths.ApplyConfig(dp, doc.Config)
	return doc, nil
}

func lookupConfig(dp paths.DocumentPaths, configFlag string) (string, error) {
	if configFlag != "" {
		exists, err := paths.FileExists(dp.ConfigFile)
		if err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		if !exists {
			return "", fmt.Errorf("config file not found: %s", dp.ConfigFile)
		}
		return dp.ConfigFile, nil
	}
	if exists, _ := paths.FileExists(dp.ConfigFile); exists {
		return dp.ConfigFile, nil
	}
	global, err := paths.GlobalConfigFile()
	if err != nil {
		return "", nil
	}
	if exists, _ := paths.FileExists(global); exists {
		return global, nil
	}
	return "", nil
}

// CheckDuplicates rejects a document list naming the same source twice;
// two builds of one document would race on its sidecar files.
func CheckDuplicates(docs []Document) error {
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.Paths.Source] {
			return fmt.Errorf("document listed more than once: %s", doc.Paths.Source)
		}
		seen[doc.Paths.Source] = true
	}
	return nil
}

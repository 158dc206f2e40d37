package tools

import (
	"regexp"
	"strings"
)

var (
	texLiveRegex = regexp.MustCompile(`TeX Live ([0-9]{4})`)
	versionRegex = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)+[a-z]?`)
)

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}

// normalizeVersion reduces a banner such as
// "pdfTeX 3.141592653-2.6-1.40.25 (TeX Live 2023)" to the program version
// plus the distribution year when one is named.
func normalizeVersion(banner string) string {
	line := strings.TrimSpace(firstLine(strings.TrimSpace(banner)))
	if line == "" {
		return ""
	}
	version := versionRegex.FindString(line)
	if version == "" {
		version = line
	}
	if m := texLiveRegex.FindStringSubmatch(banner); m != nil {
		return version + " (TeX Live " + m[1] + ")"
	}
	return version
}

// Package config loads the CLI process's configuration (internal/types.
// ProcessConfig) from an optional config.ini in the configured config
// directory, falling back to safe defaults when the file is absent —
// unlike the teacher's scheduled job, a filectl invocation is a one-shot
// CLI command and must run with zero setup.
//
// The INI section/line parser (parseIniSections) is kept verbatim from the
// teacher's config.go, since the format itself (bracketed sections,
// semicolon comments, key=value lines) is unrelated to what the sections
// mean; only the section/key vocabulary changed, from [backup]/[paths] to
// [process].
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"filectl/internal/logging"
	"filectl/internal/types"
)

// Load reads configDir/config.ini for a [process] section and returns the
// resulting ProcessConfig. A missing file is not an error: every field
// defaults (Workers/ProgressBuffer to 0, meaning "let the caller decide";
// LogSettings.NoLogs to true, console-only).
//
//	[process]
//	workers=4
//	progressBuffer=64
//	noLogs=false
//	logDir=C:\ProgramData\filectl\logs
func Load(configDir string) (types.ProcessConfig, error) {
	cfg := types.ProcessConfig{
		ConfigDir:   configDir,
		LogSettings: logging.LogSettings{NoLogs: true},
	}

	path := filepath.Join(configDir, "config.ini")
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config.ini: %w", err)
	}

	sections, _, err := parseIniSections(stripBOM(string(b)))
	if err != nil {
		return cfg, fmt.Errorf("parse config.ini: %w", err)
	}

	proc, ok := sections["process"]
	if !ok {
		return cfg, nil
	}

	if v, ok := proc["workers"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v, ok := proc["progressBuffer"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ProgressBuffer = n
		}
	}
	if v, ok := proc["noLogs"]; ok {
		cfg.LogSettings.NoLogs = strings.EqualFold(v, "true") || v == "1"
	}
	if v, ok := proc["logDir"]; ok && v != "" {
		cfg.LogSettings.LogDir = v
	}

	return cfg, nil
}

func stripBOM(content string) string {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}

// parseIniSections parses a simple INI-style config file, grounded
// verbatim in the teacher's config.go of the same name. Returns a map of
// section name to key-value pairs and a list of standalone (non key=value)
// lines per section; filectl's [process] section has no standalone-line
// use today, but the second return value is kept for format compatibility
// with any future section that needs it.
func parseIniSections(content string) (map[string]map[string]string, map[string][]string, error) {
	sections := make(map[string]map[string]string)
	standaloneLines := make(map[string][]string)
	var currentSection string

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			sectionName := strings.Trim(line, "[]")
			if sectionName == "" {
				return nil, nil, fmt.Errorf("empty section name")
			}
			currentSection = sectionName
			sections[currentSection] = make(map[string]string)
			continue
		}

		if strings.HasPrefix(line, ";") {
			continue
		}

		if currentSection == "" {
			return nil, nil, fmt.Errorf("line outside of section: %s", line)
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])
				sections[currentSection][key] = value
			}
		} else {
			standaloneLines[currentSection] = append(standaloneLines[currentSection], line)
		}
	}

	return sections, standaloneLines, nil
}

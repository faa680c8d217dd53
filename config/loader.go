package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/galaplate/dbdeploy/env"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Loader loads configuration files from a file system
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader reading the top level of fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDirLoader creates a loader for a directory on disk
func NewDirLoader(configPath string) *Loader {
	return NewLoader(os.DirFS(configPath))
}

// Defaults returns a loader over the configuration shipped with the binary
func Defaults() *Loader {
	sub, err := fs.Sub(defaultsFS, "defaults")
	if err != nil {
		panic(err)
	}
	return NewLoader(sub)
}

// Load loads all configuration files, keyed by file name without extension
func (l *Loader) Load() (map[string]any, error) {
	config := make(map[string]any)

	files, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return config, fmt.Errorf("failed to read config directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := path.Ext(file.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		fileConfig, err := l.loadFile(file.Name())
		if err != nil {
			return config, fmt.Errorf("failed to load config file %s: %w", file.Name(), err)
		}

		config[strings.TrimSuffix(file.Name(), ext)] = fileConfig
	}

	return config, nil
}

// loadFile parses a single YAML file, then resolves env placeholders in
// its string values. Substituted values are never parsed as YAML.
func (l *Loader) loadFile(filename string) (any, error) {
	content, err := fs.ReadFile(l.fsys, filename)
	if err != nil {
		return nil, err
	}

	var data any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}

	if data == nil {
		return map[string]any{}, nil
	}

	return processEnvVariables(convertToProperTypes(data)), nil
}

// processEnvVariables walks the decoded tree and expands every string leaf
func processEnvVariables(data any) any {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			v[key] = processEnvVariables(val)
		}
		return v
	case []any:
		for i, val := range v {
			v[i] = processEnvVariables(val)
		}
		return v
	case string:
		return expandEnv(v)
	default:
		return v
	}
}

// expandEnv replaces ${VAR_NAME} or ${VAR_NAME:default} with env values.
// A default may itself hold a placeholder: ${PRIMARY:${FALLBACK:value}}.
// Values read from the environment are inserted literally.
func expandEnv(s string) string {
	var b strings.Builder

	for {
		idx := strings.Index(s, "${")
		if idx == -1 {
			break
		}

		end := closingBrace(s, idx+2)
		if end == -1 {
			break
		}

		varName, defaultValue, _ := strings.Cut(s[idx+2:end], ":")

		value := env.Get(varName)
		if value == "" {
			value = expandEnv(defaultValue)
		}

		b.WriteString(s[:idx])
		b.WriteString(value)
		s = s[end+1:]
	}

	b.WriteString(s)
	return b.String()
}

// closingBrace finds the "}" matching a "${" whose body starts at from
func closingBrace(s string, from int) int {
	depth := 1
	for i := from; i < len(s); i++ {
		switch {
		case strings.HasPrefix(s[i:], "${"):
			depth++
			i++
		case s[i] == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// convertToProperTypes turns map[any]any nodes into map[string]any
func convertToProperTypes(data any) any {
	switch v := data.(type) {
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			result[fmt.Sprintf("%v", key)] = convertToProperTypes(val)
		}
		return result
	case map[string]any:
		for key, val := range v {
			v[key] = convertToProperTypes(val)
		}
		return v
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = convertToProperTypes(val)
		}
		return result
	default:
		return v
	}
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"

	"github.com/galaplate/dbdeploy/supports"
)

const (
	DriverGoose = "goose"
	DriverExec  = "exec"
)

// Settings is the typed, validated view of the loaded configuration
type Settings struct {
	AppFactory     string       `key:"app.factory" json:"app_factory" validate:"required"`
	DatabaseURL    string       `key:"database.url" json:"database_url" validate:"required_if=Driver goose"`
	Directory      string       `key:"migrations.directory" json:"directory" validate:"required"`
	Message        string       `key:"migrations.message" json:"message" validate:"required"`
	Driver         string       `key:"migrations.driver" json:"driver" validate:"oneof=goose exec"`
	StrictRevision bool         `key:"migrations.strict_revision" json:"strict_revision"`
	VersionTable   string       `key:"migrations.table" json:"version_table" validate:"required"`
	Exec           ExecSettings `key:"exec" json:"exec"`
	LogLevel       string       `key:"log.level" json:"log_level" validate:"oneof=debug info warn error"`
	LogDir         string       `key:"log.dir" json:"log_dir"`
}

// ExecSettings describes the external migration CLI used by the exec driver
type ExecSettings struct {
	Command    string `key:"command" json:"command"`
	FactoryEnv string `key:"factory_env" json:"factory_env"`
	Init       string `key:"init" json:"init"`
	Revision   string `key:"revision" json:"revision"`
	Upgrade    string `key:"upgrade" json:"upgrade"`
	Downgrade  string `key:"downgrade" json:"downgrade"`
	Status     string `key:"status" json:"status"`
}

// Load builds a manager from the embedded defaults, then merges every YAML
// file found in configPath on top. A missing configPath is not an error.
func Load(configPath string) (*Manager, error) {
	defaults, err := Defaults().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	m := NewManager()
	m.Load(defaults)

	if configPath == "" {
		return m, nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}

	overrides, err := NewDirLoader(configPath).Load()
	if err != nil {
		return nil, err
	}
	m.Merge(overrides)

	return m, nil
}

// Resolve reads Settings out of m and validates them
func Resolve(m *Manager) (*Settings, error) {
	s := &Settings{
		AppFactory:     m.GetString("app.factory"),
		DatabaseURL:    m.GetString("database.url"),
		Directory:      m.GetString("migrations.directory"),
		Message:        m.GetString("migrations.message"),
		Driver:         m.GetString("migrations.driver"),
		StrictRevision: m.GetBool("migrations.strict_revision"),
		VersionTable:   m.GetString("migrations.table"),
		Exec: ExecSettings{
			Command:    m.GetString("exec.command"),
			FactoryEnv: m.GetString("exec.factory_env"),
			Init:       m.GetString("exec.init"),
			Revision:   m.GetString("exec.revision"),
			Upgrade:    m.GetString("exec.upgrade"),
			Downgrade:  m.GetString("exec.downgrade"),
			Status:     m.GetString("exec.status"),
		},
		LogLevel: m.GetString("log.level"),
		LogDir:   m.GetString("log.dir"),
	}

	if err := supports.Validate(s); err != nil {
		return nil, err
	}

	if s.Driver == DriverExec && s.Exec.Command == "" {
		return nil, &supports.ValidationError{
			Message: "Field validation for 'exec.command' failed on the 'required' tag",
			Errors:  map[string]string{"exec.command": "required when migrations.driver is exec"},
		}
	}

	return s, nil
}

// Redacted returns a copy with the database password masked
func (s Settings) Redacted() Settings {
	s.DatabaseURL = RedactURL(s.DatabaseURL)
	return s
}

// RedactURL masks the password of a connection URL. Values that are not
// URLs or carry no password are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}

// Redact returns value with RedactURL applied to every string it holds,
// descending into maps and slices. The input is not modified.
func Redact(value any) any {
	switch v := value.(type) {
	case string:
		return RedactURL(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = Redact(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Redact(val)
		}
		return out
	default:
		return v
	}
}

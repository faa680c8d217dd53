package env

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Get returns the value of an environment variable.
// On the first miss the default dotenv file is loaded, so values from
// .env (or $ENV_FILE) become visible without an explicit Load call.
func Get(key string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}

	loadOnce.Do(func() {
		_ = Load(DefaultFile())
	})

	return os.Getenv(key)
}

// GetDefault returns the variable or fallback when it is empty
func GetDefault(key, fallback string) string {
	if value := Get(key); value != "" {
		return value
	}
	return fallback
}

// DefaultFile returns the dotenv file used when none is given explicitly
func DefaultFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// Load reads the given dotenv files in order. Variables already present in
// the process environment are never overridden and missing files are skipped.
func Load(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

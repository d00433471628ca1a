package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Lookup returns the value of a variable and whether it is defined.
type Lookup func(key string) (string, bool)

// OS looks variables up in the process environment.
func OS(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Chain returns a Lookup consulting each lookup in order; the first one
// defining the key wins.
func Chain(lookups ...Lookup) Lookup {
	return func(key string) (string, bool) {
		for _, lookup := range lookups {
			if lookup == nil {
				continue
			}
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		return "", false
	}
}

// Map returns a Lookup over a fixed set of variables.
func Map(vars map[string]string) Lookup {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// Dotenv reads the given .env files (later files override earlier ones)
// and returns a Lookup over their variables. Missing files are skipped.
func Dotenv(paths ...string) (Lookup, error) {
	vars := make(map[string]string)
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat dotenv file %s: %w", path, err)
		}

		fileVars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("read dotenv file %s: %w", path, err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}
	return Map(vars), nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order; values already present in the process
// environment are never overwritten.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads the .env files that exist in the working directory.
func LoadEnvFiles() error {
	for _, name := range envFiles {
		if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Package env loads the service configuration from the environment, reading a
// .env file first when one is present.
package env

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// LoadEnv loads a .env file from the working directory into the environment.
// Variables already set are not overridden. It reports whether a file was
// found; a missing file is not an error.
func LoadEnv(filenames ...string) (bool, error) {
	if err := godotenv.Load(filenames...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load env file: %w", err)
	}
	return true, nil
}

//go:build dev

package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

func loadDotEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

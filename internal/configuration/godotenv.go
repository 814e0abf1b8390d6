package configuration

import (
	"fmt"

	"github.com/joho/godotenv"
)

// GodotenvProvider reads env files through godotenv.
type GodotenvProvider struct{}

// Read reads Unix-type env files into a map (map[key]value). Keys of later
// files override those of earlier ones.
func (*GodotenvProvider) Read(filenames ...string) (map[string]string, error) {
	data, err := godotenv.Read(filenames...)
	if err != nil {
		return data, fmt.Errorf("(config-godotenv) %w", err)
	}

	return data, nil
}

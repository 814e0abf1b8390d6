// Package configuration reads the optional env file of the filesystem and
// maps its keys to typed values. Keys that are missing or cannot be parsed
// keep their defaults.
package configuration

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/desertwitch/tablefs/internal/schema"
)

const (
	// KeyFileDisk is the path of the snapshot file.
	KeyFileDisk = "TABLEFS_FILEDISK"

	// KeyMaxInodes is the capacity of the inode table.
	KeyMaxInodes = "TABLEFS_MAX_INODES"

	// KeyMaxFileSize is the per-file content capacity in bytes.
	KeyMaxFileSize = "TABLEFS_MAX_FILE_SIZE"

	// KeyMaxDepth is the deepest directory depth.
	KeyMaxDepth = "TABLEFS_MAX_DEPTH"

	// KeySaveOnFlush decides whether every flush saves a snapshot.
	KeySaveOnFlush = "TABLEFS_SAVE_ON_FLUSH"

	// DefaultFileDisk is the snapshot file used when nothing is configured.
	DefaultFileDisk = "tablefs.snapshot"
)

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// Config is the configuration of a mounted filesystem.
type Config struct {
	FileDisk    string
	Limits      schema.Limits
	SaveOnFlush bool
}

// Defaults returns the [Config] used when nothing else is configured.
func Defaults() Config {
	return Config{
		FileDisk:    DefaultFileDisk,
		Limits:      schema.DefaultLimits(),
		SaveOnFlush: true,
	}
}

// Handler reads configuration through a generic provider.
type Handler struct {
	GenericHandler genericConfigProvider
}

// NewHandler returns a pointer to a new [Handler].
func NewHandler(genericHandler genericConfigProvider) *Handler {
	return &Handler{
		GenericHandler: genericHandler,
	}
}

// Load returns the [Config] described by the given env files on top of the
// defaults. Without any file the defaults are returned as they are.
func (c *Handler) Load(filenames ...string) (Config, error) {
	config := Defaults()

	if len(filenames) == 0 {
		return config, nil
	}

	envMap, err := c.ReadGeneric(filenames...)
	if err != nil {
		return config, fmt.Errorf("(config-load) %w", err)
	}

	if v := c.MapKeyToString(envMap, KeyFileDisk); v != "" {
		config.FileDisk = v
	}

	c.mapLimit(envMap, KeyMaxInodes, 1, schema.UpperMaxInodes, &config.Limits.MaxInodes)
	c.mapSize(envMap, KeyMaxFileSize, schema.UpperMaxFileSize, &config.Limits.MaxFileSize)
	c.mapLimit(envMap, KeyMaxDepth, 0, schema.UpperMaxPathLen, &config.Limits.MaxDepth)

	config.SaveOnFlush = c.MapKeyToBool(envMap, KeySaveOnFlush, config.SaveOnFlush)

	if err := config.Limits.Validate(); err != nil {
		return config, fmt.Errorf("(config-load) %w", err)
	}

	return config, nil
}

func (c *Handler) mapLimit(envMap map[string]string, key string, minimum, maximum int, target *int) {
	if _, exists := envMap[key]; !exists {
		return
	}

	value := c.MapKeyToInt(envMap, key)
	if value < minimum || value > maximum {
		slog.Warn("Ignoring invalid configuration value, using default",
			"key", key,
			"value", c.MapKeyToString(envMap, key),
			"default", *target,
		)

		return
	}

	*target = value
}

// mapSize maps a byte count, which is zero or more and at most maximum.
func (c *Handler) mapSize(envMap map[string]string, key string, maximum uint64, target *int) {
	raw, exists := envMap[key]
	if !exists {
		return
	}

	value := c.MapKeyToUInt64(envMap, key)
	if (value == 0 && raw != "0") || value > maximum {
		slog.Warn("Ignoring invalid configuration value, using default",
			"key", key,
			"value", raw,
			"default", *target,
		)

		return
	}

	*target = int(value) //nolint:gosec
}

// ReadGeneric reads the given env files into a map (map[key]value).
func (c *Handler) ReadGeneric(filenames ...string) (map[string]string, error) {
	return c.GenericHandler.Read(filenames...)
}

// MapKeyToString returns the value of key, or an empty string if missing.
func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

// MapKeyToInt returns the value of key as an integer, or -1 if missing or
// not an integer.
func (c *Handler) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

// MapKeyToUInt64 returns the value of key as an unsigned integer, or 0 if
// missing or not an unsigned integer.
func (c *Handler) MapKeyToUInt64(envMap map[string]string, key string) uint64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return 0
	}
	intValue, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}

	return intValue
}

// MapKeyToBool returns the value of key as a boolean. Besides the forms known
// to [strconv.ParseBool] it accepts yes and no. Missing or unknown values
// return fallback.
func (c *Handler) MapKeyToBool(envMap map[string]string, key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(c.MapKeyToString(envMap, key)))

	switch value {
	case "":
		return fallback
	case "yes", "y", "on":
		return true
	case "no", "n", "off":
		return false
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}

	return boolValue
}

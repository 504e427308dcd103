// Package alias loads the team alias table.
//
// The table is optional. A missing, unreadable or malformed file never
// fails a run; it only means raw names are kept as they are.
package alias

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/goccy/go-yaml"
	"github.com/titanous/json5"

	"github.com/albapepper/scoracle-standings/internal/standings"
)

// Load reads the alias table at path, merging <name>.local.<ext> over it
// when present. Any failure yields an empty table.
func Load(path string, logger *slog.Logger) standings.Aliases {
	if logger == nil {
		logger = slog.Default()
	}
	aliases, err := Read(path)
	if err != nil {
		logger.Debug("Alias table unavailable, using raw names", "path", path, "error", err)
		return standings.Aliases{}
	}
	logger.Info("Loaded team aliases", "path", path, "count", len(aliases))
	return aliases
}

// Read is Load without the fallback: it reports why the table could not
// be read. Finding neither file is os.ErrNotExist.
func Read(path string) (standings.Aliases, error) {
	base, baseErr := readFile(path)
	if baseErr != nil && !errors.Is(baseErr, os.ErrNotExist) {
		return nil, baseErr
	}

	localPath := LocalPath(path)
	local, localErr := readFile(localPath)
	if localErr != nil && !errors.Is(localErr, os.ErrNotExist) {
		return nil, localErr
	}

	if baseErr != nil && localErr != nil {
		return nil, os.ErrNotExist
	}
	if base == nil {
		base = map[string]string{}
	}
	if local != nil {
		if err := mergo.Merge(&base, local, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", localPath, err)
		}
	}
	return clean(base), nil
}

// LocalPath returns the override file name for path: dir/name.local.ext.
func LocalPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &out)
	default:
		err = json5.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// clean trims keys and values and drops pairs left empty.
func clean(in map[string]string) standings.Aliases {
	out := make(standings.Aliases, len(in))
	for k, v := range in {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Package configutil loads layered json5 configuration. A file named
// <name>.<ext> provides the base; an optional sibling <name>.local.<ext>
// is merged on top of it, so checked-in defaults and machine-local
// secrets can live side by side.
package configutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func localVariant(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

func readInto[T any](path string, out *T) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	return true, json5.Unmarshal(data, out)
}

// ReadConfig reads `name` and merges `<name>.local.<ext>` over it; the
// local file wins where both set a field. If neither file exists the
// error satisfies os.IsNotExist.
func ReadConfig[T any](name string) (T, error) {
	var config T

	foundBase, err := readInto(name, &config)
	if err != nil {
		return config, err
	}

	localPath := localVariant(name)
	var local T
	foundLocal, err := readInto(localPath, &local)
	if err != nil {
		return config, err
	}
	if foundLocal {
		err = mergo.Merge(&config, local, mergo.WithOverride)
		if err != nil {
			return config, err
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	if !foundBase && !foundLocal {
		return config, os.ErrNotExist
	}
	return config, nil
}

// ReadRecursively walks up from the working directory towards the
// filesystem root looking for a readable config of the given name.
func ReadRecursively[T any](name string) (T, error) {
	var zero T

	dir, err := os.Getwd()
	if err != nil {
		return zero, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(dir, name))
		if err == nil {
			return config, nil
		}
		if !os.IsNotExist(err) {
			return zero, err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return zero, os.ErrNotExist
		}
		dir = parent
	}
}

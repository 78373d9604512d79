// Copyright 2026 The httpipe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the conventional prefix of httpipe environment
// variables.
const EnvPrefix = "HTTPIPE_"

// A Format names a configuration document syntax.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// ErrUnsupportedFormat is returned for documents in an unknown format.
var ErrUnsupportedFormat = errors.New("httpipe/config: unsupported format")

// A Source overlays configuration values onto k.
type Source func(k *koanf.Koanf) error

// File reads a YAML (.yaml, .yml) or JSON (.json) file, choosing the
// parser by extension.
func File(path string) Source {
	return func(k *koanf.Koanf) error {
		format, err := formatOf(path)
		if err != nil {
			return err
		}
		if err = k.Load(file.Provider(path), parser(format)); err != nil {
			return fmt.Errorf("httpipe/config: failed to load %s: %w", path, err)
		}
		return nil
	}
}

// Bytes parses an in-memory document. Empty data is a no-op.
func Bytes(data []byte, format Format) Source {
	return func(k *koanf.Koanf) error {
		p := parser(format)
		if p == nil {
			return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
		}
		if len(data) == 0 {
			return nil
		}
		if err := k.Load(rawbytes.Provider(data), p); err != nil {
			return fmt.Errorf("httpipe/config: failed to parse %s: %w", format, err)
		}
		return nil
	}
}

// Env reads the environment variables starting with prefix. The
// remainder of each name is lower-cased and each double underscore
// becomes a level separator, so with prefix "HTTPIPE_" the variable
// HTTPIPE_LOG__LEVEL sets log.level.
func Env(prefix string) Source {
	return func(k *koanf.Koanf) error {
		cb := func(s string) string {
			s = strings.ToLower(strings.TrimPrefix(s, prefix))
			return strings.ReplaceAll(s, "__", ".")
		}
		if err := k.Load(env.Provider(prefix, ".", cb), nil); err != nil {
			return fmt.Errorf("httpipe/config: failed to load environment: %w", err)
		}
		return nil
	}
}

func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func parser(format Format) koanf.Parser {
	switch format {
	case YAML:
		return yaml.Parser()
	case JSON:
		return json.Parser()
	default:
		return nil
	}
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and contact addresses from a directory of
// plain-text files, optionally overlaid with a .env file. Each file in the
// directory represents one secret: the filename is the key name and the file
// contents (trimmed) are the value.
//
// Supported key files: semantic-scholar-api-key, unpaywall-email, crossref-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotenv reads a .env file and returns its entries under normalized key
// names: SEMANTIC_SCHOLAR_API_KEY becomes semantic-scholar-api-key, matching
// the key-file spelling. A missing file is not an error.
func LoadDotenv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	secrets := make(map[string]string, len(env))
	for k, v := range env {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ReplaceAll(strings.ToLower(k), "_", "-")
		secrets[key] = v
	}
	return secrets, nil
}

// Merge overlays maps left to right; later maps win on key conflicts.
func Merge(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

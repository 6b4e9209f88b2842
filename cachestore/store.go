package cachestore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// nameTemplate turns (cacheDirectory, name) into a stable cache file name.
// sha256sum comes from sprig's FuncMap.
const nameTemplate = `modloader-{{ .Name | sha256sum | trunc 16 }}.cache`

// DeriveCacheFileName computes the absolute path of the resource-map cache
// file for a named configuration, per the "one resource-map cache file per
// named configuration" rule.
func DeriveCacheFileName(cacheDirectory, name string) (string, error) {
	tmpl, err := template.New("cachename").Funcs(sprig.FuncMap()).Parse(nameTemplate)
	if err != nil {
		return "", fmt.Errorf("cachestore: parsing cache name template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return "", fmt.Errorf("cachestore: deriving cache file name: %w", err)
	}

	return filepath.Join(cacheDirectory, buf.String()), nil
}

// Save writes data (typically a JSON-encoded resourcemap.Snapshot) to path,
// optionally AES-GCM-encrypting it first when key is non-empty.
func Save(path string, data []byte, key string) error {
	payload := data
	if key != "" {
		c, err := NewCipher(key)
		if err != nil {
			return err
		}
		payload = []byte(c.Encrypt(data, true))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cachestore: creating cache directory: %w", err)
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load reads and, if key is non-empty, decrypts the cache file at path.
func Load(path string, key string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if key == "" {
		return raw, nil
	}

	c, err := NewCipher(key)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(string(raw), true)
}

// Marshal is a small convenience so callers of Save do not need to import
// encoding/json themselves for the common case of caching a plain value.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Package config loads the process-wide server.Config defaults from a
// YAML file, grounded on compose-go/loader's ParseYAML-then-Transform
// two-step: unmarshal into a generic map with gopkg.in/yaml.v2, then
// decode into a typed struct with mitchellh/mapstructure so field
// names can be looser than Go's exported-identifier casing.
package config

import (
	"os"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/packetforge/evhttpd/server"
)

// File is the on-disk shape of the config file; field names are
// lower-cased/underscored the way a hand-written YAML file naturally
// reads. transform decodes the YAML into a File, and Load then copies
// each positive field over the matching server.Config default.
type File struct {
	InitialReadBufferSize int `mapstructure:"initial_read_buffer_size"`
	ReadBufferMax         int `mapstructure:"read_buffer_max"`
	WriteBufferMax        int `mapstructure:"write_buffer_max"`
	MaxBodyBytes          int `mapstructure:"max_body_bytes"`
}

// Load reads path as YAML and returns a server.Config seeded with the
// package's hard-coded defaults, overridden by whatever fields the file
// sets. A missing or empty field keeps the default.
func Load(path string) (server.Config, error) {
	cfg := server.DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return server.Config{}, errors.Wrap(err, "config: read file")
	}

	parsed, err := parseYAML(raw)
	if err != nil {
		return server.Config{}, errors.Wrap(err, "config: parse yaml")
	}

	var f File
	if err := transform(parsed, &f); err != nil {
		return server.Config{}, errors.Wrap(err, "config: decode")
	}

	if f.InitialReadBufferSize > 0 {
		cfg.InitialReadBufferSize = f.InitialReadBufferSize
	}
	if f.ReadBufferMax > 0 {
		cfg.ReadBufferMax = f.ReadBufferMax
	}
	if f.WriteBufferMax > 0 {
		cfg.WriteBufferMax = f.WriteBufferMax
	}
	if f.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = f.MaxBodyBytes
	}
	return cfg, nil
}

func parseYAML(source []byte) (map[string]interface{}, error) {
	var raw interface{}
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, err
	}
	asMap, ok := raw.(map[interface{}]interface{})
	if !ok {
		return nil, errors.New("config: top-level YAML value must be a mapping")
	}
	return stringifyKeys(asMap), nil
}

func stringifyKeys(m map[interface{}]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		key, ok := k.(string)
		if !ok {
			continue
		}
		if nested, ok := v.(map[interface{}]interface{}); ok {
			out[key] = stringifyKeys(nested)
			continue
		}
		out[key] = v
	}
	return out
}

func transform(source interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(source)
}

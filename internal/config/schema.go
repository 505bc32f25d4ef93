package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://github.com/nibzard/switchroom/config.schema.json"

// configSchema describes the keys a config file may set. Unknown keys are
// reported separately from schema violations.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "agents":         {"type": "integer", "minimum": 1},
    "initial_state":  {"type": "string"},
    "warden":         {"type": "string"},
    "strategy":       {"type": "string"},
    "seed":           {"type": "integer", "minimum": 0, "maximum": 4294967295},
    "workers":        {"type": "integer", "minimum": 0},
    "max_visits":     {"type": "integer", "minimum": 0},
    "output":         {"type": "string"},
    "debug":          {"type": "boolean"},
    "report":         {"type": "string"},
    "log_level":      {"type": "string", "enum": ["debug", "info", "warn", "warning", "error", "fatal"]},
    "log_format":     {"type": "string", "enum": ["text", "json", "logfmt"]},
    "log_timestamps": {"type": "boolean"},
    "log_caller":     {"type": "boolean"},
    "log_dir":        {"type": "string"}
  }
}`

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(configSchema)); err != nil {
		return nil, fmt.Errorf("add config schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// SchemaJSON returns the JSON Schema used to validate config files.
func SchemaJSON() string {
	return configSchema
}

// schemaViolation is one failed constraint, keyed by the top-level config key.
type schemaViolation struct {
	Key     string
	Message string
}

// validateRaw validates a decoded TOML document against the config schema
// and returns the violations sorted by key.
func validateRaw(raw map[string]any) ([]schemaViolation, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal config for validation: %w", err)
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshal config for validation: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}

	var out []schemaViolation
	collectViolations(ve, &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func collectViolations(ve *jsonschema.ValidationError, out *[]schemaViolation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, schemaViolation{
			Key:     topLevelKey(ve.InstanceLocation),
			Message: ve.Message,
		})
		return
	}
	for _, cause := range ve.Causes {
		collectViolations(cause, out)
	}
}

// topLevelKey returns the config key an instance location points into:
// "/agents" and "#/agents/0" both give "agents".
func topLevelKey(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	key, _, _ := strings.Cut(ptr, "/")
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(key)
}

package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the JSON Schema every project config must satisfy before
// it is merged. Kept inline so validation works without an installed home
// directory.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "texneat-config-v1.0.0",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "doc": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "root": {"type": "string", "minLength": 1},
        "style_dir": {"type": "string"},
        "modules_dir": {"type": "string"}
      }
    },
    "build": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "command": {"type": "string", "minLength": 1},
        "args": {"type": "array", "items": {"type": "string"}},
        "output_dir": {"type": "string"},
        "timeout": {"type": "string"},
        "min_artifact_bytes": {"type": "integer", "minimum": 0}
      }
    },
    "repair": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_passes": {"type": "integer", "minimum": 1, "maximum": 50},
        "backup": {"type": "boolean"},
        "patterns_file": {"type": "string"}
      }
    },
    "output": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "format": {"type": "string", "enum": ["text", "json", "yaml"]}
      }
    }
  }
}`

// ValidateConfig validates raw YAML config data against the config schema
func ValidateConfig(configData []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(configData, &doc); err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}
	if doc == nil {
		return nil // empty file, defaults apply
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %v", err)
	}

	if !result.Valid() {
		var errors []string
		for _, desc := range result.Errors() {
			errors = append(errors, desc.String())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

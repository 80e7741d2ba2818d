package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// config has to survive a json round trip to be checked against the schema
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// every top-level section of the config has to be described by the schema
	props, err := schemaProperties(schema)
	if err != nil {
		return err
	}
	for key := range configMap {
		if _, ok := props[key]; !ok {
			return fmt.Errorf("section %q is not described by schema", key)
		}
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// schemaProperties returns properties of the root Config definition
func schemaProperties(schema map[string]interface{}) (map[string]interface{}, error) {
	defs, ok := schema["$defs"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("schema has no $defs")
	}
	root, ok := defs["Config"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("schema has no Config definition")
	}
	props, ok := root["properties"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("schema Config has no properties")
	}
	return props, nil
}

// validateRequiredFields performs basic validation of fields filled by defaults
func validateRequiredFields(cfg *Config) error {
	if cfg.Store.Table == "" {
		return fmt.Errorf("store.table is required")
	}
	if cfg.Report.Output == "" {
		return fmt.Errorf("report.output is required")
	}
	if cfg.Report.PageSize < 1 {
		return fmt.Errorf("report.page_size must be at least 1")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}

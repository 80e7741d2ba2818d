package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	tests := []struct {
		name    string
		config  func() *Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "defaults",
			config: func() *Config {
				cfg := &Config{}
				cfg.SetDefaults()
				return cfg
			},
		},
		{
			name: "missing table",
			config: func() *Config {
				cfg := &Config{}
				cfg.SetDefaults()
				cfg.Store.Table = ""
				return cfg
			},
			wantErr: true,
			errMsg:  "store.table is required",
		},
		{
			name: "bad page size",
			config: func() *Config {
				cfg := &Config{}
				cfg.SetDefaults()
				cfg.Report.PageSize = -1
				return cfg
			},
			wantErr: true,
			errMsg:  "report.page_size must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyAgainstEmbeddedSchema(tt.config())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEmbeddedSchemaMatchesConfig(t *testing.T) {
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(embeddedSchema), &schema))
	props, err := schemaProperties(schema)
	require.NoError(t, err)
	assert.Len(t, props, 3)
	for _, section := range []string{"store", "report", "preview"} {
		assert.Contains(t, props, section)
	}
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), "StoreConfig")
	assert.Contains(t, string(data), "page_size")
}

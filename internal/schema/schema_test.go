package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmrdocs/pkg/models"
)

func TestValidate_EmptyRecord(t *testing.T) {
	data, err := json.Marshal(models.DocumentRecord{})
	require.NoError(t, err)

	assert.NoError(t, Validate(data))
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"cmr":`},
		{"missing invoice", `{"cmr":{}}`},
		{"number leaf", recordWith(`"vin": 12345`)},
		{"extra key", `{"cmr":{},"invoice":{},"notes":"x"}`},
		{"array root", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate([]byte(tt.data)))
		})
	}
}

func TestDocument_AllPropertiesRequired(t *testing.T) {
	var walk func(path string, node map[string]any)
	walk = func(path string, node map[string]any) {
		if node["type"] != "object" {
			return
		}
		props := node["properties"].(map[string]any)
		required := node["required"].([]string)

		assert.Len(t, required, len(props), path)
		assert.Equal(t, false, node["additionalProperties"], path)
		for name, child := range props {
			assert.Contains(t, required, name, path)
			walk(path+"."+name, child.(map[string]any))
		}
	}

	walk("$", Document())
}

func TestJSON_Stable(t *testing.T) {
	assert.JSONEq(t, string(JSON()), string(JSON()))
}

// recordWith builds a complete record JSON with one cmr leaf replaced.
func recordWith(cmrLeaf string) string {
	return `{
		"cmr": {
			"exporter": {"name": "", "address": ""},
			"importer": {"name": "", "address": "", "id": ""},
			"goods_name": "", ` + cmrLeaf + `,
			"gross_weight_kg": "", "loading_place": "", "delivery_place": "", "date": ""
		},
		"invoice": {
			"exporter": {"name": "", "address": ""},
			"importer": {"name": "", "address": "", "id": ""},
			"goods_name": "", "vin": "", "invoice_no": "", "invoice_date": "", "total_amount": ""
		}
	}`
}

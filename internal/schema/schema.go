// Package schema describes the DocumentRecord shape as JSON Schema. The same
// document is sent to the model as a structured output constraint and used
// locally to check what comes back.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "document_record.json"

// Name is the schema name reported to structured output APIs.
const Name = "document_record"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Document returns the DocumentRecord JSON Schema as a generic map. Every
// property is required and no extra keys are allowed, which is what strict
// structured output modes expect.
func Document() map[string]any {
	cmr := object(map[string]any{
		"exporter":        exporter(),
		"importer":        importer(),
		"goods_name":      text(),
		"vin":             text(),
		"gross_weight_kg": text(),
		"loading_place":   text(),
		"delivery_place":  text(),
		"date":            text(),
	})
	invoice := object(map[string]any{
		"exporter":     exporter(),
		"importer":     importer(),
		"goods_name":   text(),
		"vin":          text(),
		"invoice_no":   text(),
		"invoice_date": text(),
		"total_amount": text(),
	})
	return object(map[string]any{
		"cmr":     cmr,
		"invoice": invoice,
	})
}

// JSON returns Document encoded as JSON.
func JSON() json.RawMessage {
	b, err := json.Marshal(Document())
	if err != nil {
		// Document is a static tree of maps and strings.
		panic(fmt.Sprintf("schema: marshal document schema: %v", err))
	}
	return b
}

// Validate checks data against the DocumentRecord schema.
func Validate(data []byte) error {
	s, err := load()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func load() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resourceName, bytes.NewReader(JSON())); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(resourceName)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func exporter() map[string]any {
	return object(map[string]any{
		"name":    text(),
		"address": text(),
	})
}

func importer() map[string]any {
	return object(map[string]any{
		"name":    text(),
		"address": text(),
		"id":      text(),
	})
}

func text() map[string]any {
	return map[string]any{"type": "string"}
}

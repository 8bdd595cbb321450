package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/usnistgov/ethmac/mac"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed parameters.schema.json
var parametersSchema []byte

type schemaError struct {
	*gojsonschema.Result
}

func (e schemaError) Error() string {
	var b strings.Builder
	fmt.Fprintln(&b, "JSON document failed schema validation:")
	for _, desc := range e.Result.Errors() {
		fmt.Fprintln(&b, "-", desc)
	}
	return b.String()
}

func checkSchema(input gojsonschema.JSONLoader) error {
	result, e := gojsonschema.Validate(gojsonschema.NewBytesLoader(parametersSchema), input)
	if e != nil {
		return fmt.Errorf("JSON schema validator error: %w", e)
	}
	if !result.Valid() {
		return schemaError{result}
	}
	return nil
}

// yamlToJSON converts a YAML document to JSON, so that it can pass through the same schema.
func yamlToJSON(body []byte) ([]byte, error) {
	var doc any
	if e := yaml.Unmarshal(body, &doc); e != nil {
		return nil, e
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}

// loadParameters reads controller parameters from a JSON or YAML file.
// Omitted fields, or an empty filename, keep default values.
func loadParameters(filename string) (p mac.Parameters, e error) {
	p = mac.DefaultParameters()
	if filename == "" {
		return p, nil
	}

	body, e := os.ReadFile(filename)
	if e != nil {
		return p, e
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if body, e = yamlToJSON(body); e != nil {
			return p, fmt.Errorf("YAML parse error: %w", e)
		}
	}
	if e := checkSchema(gojsonschema.NewBytesLoader(body)); e != nil {
		return p, e
	}
	if e := json.Unmarshal(body, &p); e != nil {
		return p, e
	}
	return p, p.Validate()
}

package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://agi-aef.schemas.local/assessment-result.schema.json"

//go:embed schema/assessment_result.schema.json
var resultSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(resultSchema)); err != nil {
			schemaErr = fmt.Errorf("report schema load failed: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("report schema compile failed: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// Validate checks an exported result document against the result schema.
func Validate(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode report: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}
	return nil
}

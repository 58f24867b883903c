package corpus

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed corpus.schema.json
var corpusSchemaJSON string

const corpusSchemaURL = "corpus.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(corpusSchemaURL, bytes.NewReader([]byte(corpusSchemaJSON))); err != nil {
			schemaErr = fmt.Errorf("failed to add corpus schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(corpusSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile corpus schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// SaveJSON writes units to path so an external front-end's output can be replayed.
func SaveJSON(units []*CompilationUnit, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create corpus file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(units); err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	return nil
}

// LoadJSON reads a corpus previously written by SaveJSON or produced by another parser.
// The document is checked against the embedded corpus schema before it is decoded,
// so malformed type usages never reach the resolver.
func LoadJSON(path string) ([]*CompilationUnit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	if err := ValidateJSON(raw); err != nil {
		return nil, fmt.Errorf("corpus %s: %w", path, err)
	}

	var units []*CompilationUnit
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, fmt.Errorf("failed to decode corpus: %w", err)
	}
	return units, nil
}

// ValidateJSON checks a raw corpus document against the corpus schema.
func ValidateJSON(raw []byte) error {
	schema, err := loadCompiledSchema()
	if err != nil {
		return err
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to parse corpus: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

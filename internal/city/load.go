package city

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func citySchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("city.schema.json", schemaJSON)
	})
	return schema, schemaErr
}

// ValidationError reports a city document that does not match the schema
// or whose heights grid is ragged.
type ValidationError struct {
	Source string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("city %s: invalid document: %v", e.Source, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Load reads and validates the city document at path.
func Load(path string) (*City, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open city: %w", err)
	}
	defer f.Close()
	return Decode(path, f)
}

// Decode reads a city document from r. source names the document in
// errors.
func Decode(source string, r io.Reader) (*City, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read city %s: %w", source, err)
	}

	s, err := citySchema()
	if err != nil {
		return nil, fmt.Errorf("compile city schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &ValidationError{Source: source, Err: err}
	}
	if err := s.Validate(doc); err != nil {
		return nil, &ValidationError{Source: source, Err: err}
	}

	var c City
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &ValidationError{Source: source, Err: err}
	}
	if err := c.check(); err != nil {
		return nil, &ValidationError{Source: source, Err: err}
	}
	return &c, nil
}

func (c *City) check() error {
	width := len(c.Heights[0])
	for z, row := range c.Heights {
		if len(row) != width {
			return fmt.Errorf("heights row %d has %d samples, want %d", z, len(row), width)
		}
	}
	if width > RegionTiles || len(c.Heights) > RegionTiles {
		return fmt.Errorf("heights grid %dx%d exceeds %d tiles", width, len(c.Heights), RegionTiles)
	}
	return nil
}

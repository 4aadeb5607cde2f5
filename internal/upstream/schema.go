package upstream

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformed is returned when a response body is not valid JSON or does
// not match the schema of its endpoint.
var ErrMalformed = errors.New("malformed upstream response")

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBase = "https://mysked.local/schemas/"

// Response schemas, one per endpoint.
var (
	historySchema      = mustCompile("history.json")
	transactionsSchema = mustCompile("transactions.json")
	timesheetsSchema   = mustCompile("timesheets.json")
	statusCountsSchema = mustCompile("status_counts.json")
)

func mustCompile(name string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	c.AssertFormat = true

	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		panic(fmt.Sprintf("reading embedded schemas: %v", err))
	}
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("reading schema %s: %v", e.Name(), err))
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(data)); err != nil {
			panic(fmt.Sprintf("adding schema %s: %v", e.Name(), err))
		}
	}
	return c.MustCompile(schemaBase + name)
}

// decode validates body against schema and unmarshals it into v. Every
// response passes through here before any field is read.
func decode(body []byte, schema *jsonschema.Schema, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed batch_request.schema.json
var batchRequestSchemaJSON string

// BatchRequest is the ingest payload: either pre-extracted article maps,
// candidate urls, or both.
type BatchRequest struct {
	UserEmail string           `json:"user_email,omitempty"`
	Articles  []map[string]any `json:"articles,omitempty"`
	URLs      []string         `json:"urls,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateBatchRequest checks a raw payload against the schema plus the
// semantic rules the schema cannot express.
func ValidateBatchRequest(payload json.RawMessage) (*BatchRequest, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var req BatchRequest
	if err := json.Unmarshal(normalized, &req); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&req); err != nil {
		return nil, err
	}

	return &req, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("batch_request.schema.json", strings.NewReader(batchRequestSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("batch_request.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(req *BatchRequest) error {
	if req == nil {
		return fmt.Errorf("payload is nil")
	}

	if len(req.Articles) == 0 && len(req.URLs) == 0 {
		return fmt.Errorf("payload must contain articles or urls")
	}

	if email := strings.TrimSpace(req.UserEmail); email != "" {
		at := strings.Index(email, "@")
		if at < 1 || at == len(email)-1 {
			return fmt.Errorf("user_email is not a valid address")
		}
	}

	for i, raw := range req.URLs {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return fmt.Errorf("urls[%d] must not be empty", i)
		}
		if _, err := url.ParseRequestURI(trimmed); err != nil {
			return fmt.Errorf("urls[%d] is not a valid URI: %w", i, err)
		}
	}

	return nil
}

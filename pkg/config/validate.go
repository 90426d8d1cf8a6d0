package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON Schema configuration documents are checked
// against.
func Schema() []byte {
	return schemaJSON
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("decay.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("decay.schema.json")
	})
	return schema, schemaErr
}

// validateDocument checks a decoded configuration document against the
// schema. Unknown keys and wrongly typed values are rejected here, before
// they could be silently dropped by decoding.
func validateDocument(raw map[string]any) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Validate checks the semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	for _, kv := range [][2]string{
		{"history.timeout", c.History.Timeout},
		{"social.timeout", c.Social.Timeout},
		{"frontend.timeout", c.Frontend.Timeout},
	} {
		name, d := kv[0], kv[1]
		if d == "" {
			continue
		}
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", name, d))
		}
	}
	if c.History.MinCouplingPercent < 0 || c.History.MinCouplingPercent > 100 {
		errs = append(errs, fmt.Errorf("history.min_coupling_percent: %d is outside 0-100", c.History.MinCouplingPercent))
	}
	if c.History.MinSharedCommits < 1 {
		errs = append(errs, errors.New("history.min_shared_commits: must be at least 1"))
	}
	if c.Thresholds.SevereComponents < c.Thresholds.SplitComponents {
		errs = append(errs, fmt.Errorf("thresholds.severe_components (%d) is below split_components (%d)",
			c.Thresholds.SevereComponents, c.Thresholds.SplitComponents))
	}
	seen := make(map[string]bool, len(c.Rules))
	for i, r := range c.Rules {
		if r.Name == "" || r.Condition == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: name and condition are required", i))
			continue
		}
		if seen[r.Name] {
			errs = append(errs, fmt.Errorf("rules[%d]: duplicate rule %q", i, r.Name))
		}
		seen[r.Name] = true
	}
	switch c.Output.Format {
	case "", "text", "json", "markdown", "toon":
	default:
		errs = append(errs, fmt.Errorf("output.format: unknown format %q", c.Output.Format))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

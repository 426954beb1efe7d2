// Package docschema validates the free-form JSON documents stored on contracts against fixed JSON schemas.
package docschema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"vahire/internal/domain"

	"github.com/qri-io/jsonschema"
)

type Document string

const (
	MilestonesData  Document = "milestones_data"
	PaymentSchedule Document = "payment_schedule"
)

const milestonesDataSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["title", "amount"],
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"amount": {"type": "number", "exclusiveMinimum": 0},
			"due_date": {"type": "string"}
		}
	}
}`

const paymentScheduleSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["amount", "due_date"],
		"properties": {
			"amount": {"type": "number", "exclusiveMinimum": 0},
			"due_date": {"type": "string", "minLength": 1},
			"description": {"type": "string"},
			"milestone_title": {"type": "string"}
		}
	}
}`

type Validator struct {
	schemas map[Document]*jsonschema.Schema
}

func New() (*Validator, error) {
	raw := map[Document]string{
		MilestonesData:  milestonesDataSchema,
		PaymentSchedule: paymentScheduleSchema,
	}
	v := &Validator{schemas: make(map[Document]*jsonschema.Schema, len(raw))}
	for name, src := range raw {
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal([]byte(src), rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = rs
	}
	return v, nil
}

// Validate checks doc against the named schema. An empty document is accepted and means "not set".
func (v *Validator) Validate(ctx context.Context, name Document, doc []byte) error {
	if len(strings.TrimSpace(string(doc))) == 0 {
		return nil
	}
	rs, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown document schema %q", name)
	}
	if !json.Valid(doc) {
		return domain.Validation(domain.CodeInvalidDocument, "%s is not valid JSON", name)
	}

	keyErrs, err := rs.ValidateBytes(ctx, doc)
	if err != nil {
		return domain.Validation(domain.CodeInvalidDocument, "%s: %v", name, err)
	}
	if len(keyErrs) > 0 {
		msgs := make([]string, 0, len(keyErrs))
		for _, ke := range keyErrs {
			msgs = append(msgs, strings.TrimSpace(ke.PropertyPath+" "+ke.Message))
		}
		return domain.Validation(domain.CodeInvalidDocument, "%s: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}

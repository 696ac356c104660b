// Package validation checks decoded wire/DSL request shapes with
// go-playground/validator/v10 struct tags, the same library the teacher
// uses for its node/edge HTTP request validation (pkg/validation). Per
// SPEC_FULL.md §4.1, this validates literals the compiler or gateway
// already decoded — not mutation-time property-schema enforcement, which
// spec.md §1 explicitly excludes.
package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/lattice-graph/latticedb/internal/storage"
)

var validate = validator.New()

// CreateNodeRequest is the decoded wire shape for a create_node call.
type CreateNodeRequest struct {
	Label      string         `json:"label" validate:"required,min=1,max=256"`
	Properties map[string]any `json:"properties" validate:"omitempty,dive,keys,required,endkeys"`
}

// CreateEdgeRequest is the decoded wire shape for a create_edge call.
type CreateEdgeRequest struct {
	Label      string         `json:"label" validate:"required,min=1,max=256"`
	FromID     string         `json:"from_id" validate:"required,uuid4"`
	ToID       string         `json:"to_id" validate:"required,uuid4"`
	Properties map[string]any `json:"properties" validate:"omitempty,dive,keys,required,endkeys"`
}

// SchemaFieldRequest is the decoded wire shape for one DSL-declared schema
// field, checked against the three permitted type names (spec §6).
type SchemaFieldRequest struct {
	Name     string `json:"name" validate:"required"`
	DataType string `json:"data_type" validate:"required,oneof=Number String Boolean"`
}

// ValidateCreateNode checks req and returns storage.ErrInvalid (wrapped
// with the validator's field errors) on failure.
func ValidateCreateNode(req CreateNodeRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("validation: create_node: %w: %w", storage.ErrInvalid, err)
	}
	return nil
}

// ValidateCreateEdge checks req and returns storage.ErrInvalid on failure.
func ValidateCreateEdge(req CreateEdgeRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("validation: create_edge: %w: %w", storage.ErrInvalid, err)
	}
	return nil
}

// ValidateSchemaField checks a single DSL schema field declaration.
func ValidateSchemaField(req SchemaFieldRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("validation: schema field: %w: %w", storage.ErrInvalid, err)
	}
	return nil
}

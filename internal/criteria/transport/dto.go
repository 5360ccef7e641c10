// Package transport contains request/response DTOs for the criteria module.
package transport

import (
	"time"

	"github.com/google/uuid"
)

// ConditionDTO mirrors the stored condition predicate.
type ConditionDTO struct {
	Field    string      `json:"field" binding:"required,max=64"`
	Operator string      `json:"operator" binding:"required,max=16"`
	Value    interface{} `json:"value,omitempty"`
}

// UpsertCriterionRequest creates or updates a scoring criterion.
type UpsertCriterionRequest struct {
	Name      string       `json:"name" binding:"required,max=128"`
	Category  string       `json:"category" binding:"required,oneof=budget timeline engagement fit"`
	Weight    int          `json:"weight" binding:"required,gte=1"`
	Condition ConditionDTO `json:"condition" binding:"required"`
	IsActive  bool         `json:"isActive"`
}

// CriterionResponse is the outbound representation of a criterion.
type CriterionResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Weight    int          `json:"weight"`
	Condition ConditionDTO `json:"condition"`
	IsActive  bool         `json:"isActive"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// ListCriteriaResponse wraps the full criteria set.
type ListCriteriaResponse struct {
	Items []CriterionResponse `json:"items"`
}

// SeedResponse reports how many default criteria were inserted.
type SeedResponse struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

package service

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nexus_crm_backend/internal/criteria/repository"
	"nexus_crm_backend/internal/criteria/transport"
	"nexus_crm_backend/internal/events"
	"nexus_crm_backend/platform/apperr"
)

// seedFile is the YAML shape of the default criteria set shipped with the
// application under seed/.
type seedFile struct {
	Criteria []seedCriterion `yaml:"criteria" validate:"required,min=1,dive"`
}

type seedCriterion struct {
	Name      string        `yaml:"name" validate:"required,max=100"`
	Category  string        `yaml:"category" validate:"required"`
	Weight    int           `yaml:"weight" validate:"required"`
	Condition seedCondition `yaml:"condition"`
}

type seedCondition struct {
	Field    string      `yaml:"field" validate:"required,max=64"`
	Operator string      `yaml:"operator" validate:"required"`
	Value    interface{} `yaml:"value"`
}

// SeedFromFile loads the default criteria set from a YAML file and inserts
// each entry that does not already exist by name. Existing criteria are never
// overwritten, so operator edits survive re-seeding.
func (s *Service) SeedFromFile(ctx context.Context, path string) (transport.SeedResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return transport.SeedResponse{}, fmt.Errorf("read criteria seed: %w", err)
	}
	return s.Seed(ctx, data)
}

// Seed parses a YAML criteria set and inserts missing entries.
func (s *Service) Seed(ctx context.Context, data []byte) (transport.SeedResponse, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return transport.SeedResponse{}, apperr.Wrap(apperr.KindValidation, "malformed criteria seed", err)
	}
	// Seed files bypass request binding, so shape checks run here.
	if err := s.val.Struct(file); err != nil {
		return transport.SeedResponse{}, apperr.Wrap(apperr.KindValidation, "invalid criteria seed", err)
	}

	var resp transport.SeedResponse
	for _, entry := range file.Criteria {
		params := repository.UpsertParams{
			Name:     entry.Name,
			Category: entry.Category,
			Weight:   entry.Weight,
			Condition: repository.Condition{
				Field:    entry.Condition.Field,
				Operator: entry.Condition.Operator,
				Value:    entry.Condition.Value,
			},
			IsActive: true,
		}
		if err := validate(params); err != nil {
			return transport.SeedResponse{}, fmt.Errorf("seed criterion %q: %w", entry.Name, err)
		}

		inserted, err := s.repo.SeedInsert(ctx, params)
		if err != nil {
			return transport.SeedResponse{}, err
		}
		if inserted {
			resp.Inserted++
			s.log.Info("seeded scoring criterion", "name", entry.Name, "category", entry.Category)
		} else {
			resp.Skipped++
		}
	}

	if resp.Inserted > 0 {
		s.bus.Publish(ctx, events.ScoringCriteriaChanged{
			BaseEvent: events.NewBaseEvent(),
		})
	}
	return resp, nil
}

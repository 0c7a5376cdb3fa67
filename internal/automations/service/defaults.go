package service

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"dojoflow_backend/internal/automations/domain"
	"dojoflow_backend/internal/automations/repository"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type defaultAutomation struct {
	Name       string              `yaml:"name"`
	Trigger    string              `yaml:"trigger"`
	Active     bool                `yaml:"active"`
	Conditions domain.Conditions   `yaml:"conditions"`
	Actions    []domain.ActionSpec `yaml:"actions"`
}

// loadDefaults parses and validates the embedded starter automations.
func loadDefaults(data []byte) ([]defaultAutomation, error) {
	var items []defaultAutomation
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse default automations: %w", err)
	}
	for _, item := range items {
		if !domain.Trigger(item.Trigger).Valid() {
			return nil, fmt.Errorf("default automation %q: unknown trigger %q", item.Name, item.Trigger)
		}
		if len(item.Actions) == 0 {
			return nil, fmt.Errorf("default automation %q: no actions", item.Name)
		}
	}
	return items, nil
}

func (d defaultAutomation) row(franchiseID uuid.UUID) (repository.Automation, error) {
	conditions, err := json.Marshal(d.Conditions)
	if err != nil {
		return repository.Automation{}, err
	}
	actions, err := json.Marshal(d.Actions)
	if err != nil {
		return repository.Automation{}, err
	}
	return repository.Automation{
		ID:          uuid.New(),
		FranchiseID: franchiseID,
		Name:        d.Name,
		Trigger:     d.Trigger,
		Conditions:  conditions,
		Actions:     actions,
		Active:      d.Active,
	}, nil
}

// InstallDefaults adds the starter automations the franchise does not have
// yet and returns how many were inserted.
func (s *Service) InstallDefaults(ctx context.Context, franchiseID uuid.UUID) (int, error) {
	items, err := loadDefaults(defaultsYAML)
	if err != nil {
		return 0, err
	}

	installed := 0
	for _, item := range items {
		row, err := item.row(franchiseID)
		if err != nil {
			return installed, err
		}
		ok, err := s.repo.CreateIfNameAbsent(ctx, row)
		if err != nil {
			return installed, fmt.Errorf("install %q: %w", item.Name, err)
		}
		if ok {
			installed++
		}
	}
	return installed, nil
}

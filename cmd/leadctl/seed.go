package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

type SeedFile struct {
	Templates   []SeedTemplate   `yaml:"templates"`
	Automations []SeedAutomation `yaml:"automations"`
}

type SeedTemplate struct {
	Name     string `yaml:"name"`
	Subject  string `yaml:"subject"`
	Body     string `yaml:"body"`
	Category string `yaml:"category"`
}

type SeedAutomation struct {
	Key         string `yaml:"key"`
	Enabled     bool   `yaml:"enabled"`
	Description string `yaml:"description"`
}

type seedResult struct {
	TemplatesCreated int
	TemplatesUpdated int
	Automations      int
}

func readSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) (*SeedFile, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	for i, t := range seed.Templates {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Body) == "" {
			return nil, fmt.Errorf("templates[%d]: name, subject and body are required", i)
		}
	}
	for i, a := range seed.Automations {
		if strings.TrimSpace(a.Key) == "" {
			return nil, fmt.Errorf("automations[%d]: key is required", i)
		}
	}
	return &seed, nil
}

// applySeed é idempotente: templates são casados pelo nome, automações pela chave.
func applySeed(ctx context.Context, seed *SeedFile, templates entity.EmailTemplateRepositoryInterface, automations entity.AutomationRepositoryInterface) (seedResult, error) {
	var res seedResult
	for _, st := range seed.Templates {
		existing, err := templates.FindByName(ctx, st.Name)
		switch {
		case err == nil:
			existing.Subject = st.Subject
			existing.Body = st.Body
			existing.Category = st.Category
			existing.UpdatedAt = time.Now()
			existing.RefreshVariables()
			if err := templates.Update(ctx, existing); err != nil {
				return res, fmt.Errorf("update template %q: %w", st.Name, err)
			}
			res.TemplatesUpdated++
		case errors.Is(err, entity.ErrTemplateNotFound):
			t := entity.NewEmailTemplate(st.Name, st.Subject, st.Body, st.Category)
			if err := templates.Create(ctx, t); err != nil {
				return res, fmt.Errorf("create template %q: %w", st.Name, err)
			}
			res.TemplatesCreated++
		default:
			return res, fmt.Errorf("find template %q: %w", st.Name, err)
		}
	}

	for _, sa := range seed.Automations {
		s := &entity.AutomationSetting{
			Key:         sa.Key,
			Enabled:     sa.Enabled,
			Description: sa.Description,
			UpdatedAt:   time.Now(),
		}
		if err := automations.Upsert(ctx, s); err != nil {
			return res, fmt.Errorf("upsert automation %q: %w", sa.Key, err)
		}
		res.Automations++
	}
	return res, nil
}

type userCreator interface {
	Create(ctx context.Context, input usecase.CreateUserInput) (*entity.User, error)
}

func createAdmin(ctx context.Context, users userCreator, email, name, password string) (*entity.User, error) {
	return users.Create(ctx, usecase.CreateUserInput{
		Email:    email,
		Name:     name,
		Role:     entity.RoleAdmin,
		Password: password,
	})
}

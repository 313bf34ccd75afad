package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Assistants []Assistant `yaml:"assistants"`
}

// LoadCatalog reads an assistants catalog:
//
//	assistants:
//	  - id: helper
//	    name: Helper
//	    system_prompt: You are concise.
//	    default_model: gemini-2.0-flash
func LoadCatalog(path string) ([]Assistant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for i, a := range f.Assistants {
		if a.ID == "" || a.Name == "" {
			return nil, fmt.Errorf("catalog %s entry %d: id and name are required: %w", path, i, ErrInvalid)
		}
	}
	return f.Assistants, nil
}

// Seed creates every assistant not already present. It returns the number
// created.
func Seed(ctx context.Context, s Store, assistants []Assistant) (int, error) {
	created := 0
	for i := range assistants {
		a := assistants[i]
		_, err := s.GetAssistant(ctx, a.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, fmt.Errorf("seed assistant %s: %w", a.ID, err)
		}
		if _, err := s.CreateAssistant(ctx, &a); err != nil {
			return created, fmt.Errorf("seed assistant %s: %w", a.ID, err)
		}
		created++
	}
	return created, nil
}

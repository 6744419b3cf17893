package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eralogue/eralogue/internal/persona"
	"gopkg.in/yaml.v3"
)

type PersonaConfig struct {
	Id          string `yaml:"id"`
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Era         string `yaml:"era"`
	Description string `yaml:"description"`
	ImageUrl    string `yaml:"image_url"`
	Category    string `yaml:"category"`
	Prompt      string `yaml:"prompt"`
	PromptFile  string `yaml:"prompt_file"`
}

type Catalog struct {
	Personas []*PersonaConfig `yaml:"personas"`
}

// NewCatalog reads the persona catalog from a yaml file. Environment
// variables inside the file are expanded before parsing, and prompt_file
// paths resolve relative to the catalog itself.
func NewCatalog(filePath string) (*Catalog, error) {
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("unable to read catalog file with path %s: %w", filePath, err)
	}

	yamlFile = []byte(os.ExpandEnv(string(yamlFile)))
	c := &Catalog{}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml file with path %s: %w", filePath, err)
	}

	if len(c.Personas) == 0 {
		return nil, fmt.Errorf("personas are not configured in catalog file %s", filePath)
	}

	seen := map[string]bool{}
	for _, pc := range c.Personas {
		if len(pc.Id) == 0 {
			return nil, fmt.Errorf("persona in catalog file %s is missing an id", filePath)
		}

		if seen[pc.Id] {
			return nil, fmt.Errorf("persona id %s appears more than once in catalog file %s", pc.Id, filePath)
		}
		seen[pc.Id] = true

		if len(pc.Prompt) != 0 && len(pc.PromptFile) != 0 {
			return nil, fmt.Errorf("persona %s sets both prompt and prompt_file", pc.Id)
		}

		if len(pc.PromptFile) != 0 {
			path := pc.PromptFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(filepath.Dir(filePath), path)
			}

			bs, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("unable to read prompt file for persona %s: %w", pc.Id, err)
			}

			pc.Prompt = string(bs)
		}

		if len(pc.Prompt) == 0 {
			return nil, fmt.Errorf("persona %s has an empty prompt", pc.Id)
		}
	}

	return c, nil
}

func (c *Catalog) ToPersonas() []*persona.Persona {
	personas := []*persona.Persona{}
	for _, pc := range c.Personas {
		personas = append(personas, &persona.Persona{
			Id:          pc.Id,
			Name:        pc.Name,
			Title:       pc.Title,
			Era:         pc.Era,
			Description: pc.Description,
			ImageUrl:    pc.ImageUrl,
			Category:    pc.Category,
			Prompt:      pc.Prompt,
		})
	}

	return personas
}

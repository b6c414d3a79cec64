// Package prompt loads and caches the generation prompt templates.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template file names under the prompts directory.
const (
	LabelPrompt       = "label.yaml"
	DescriptionPrompt = "description.yaml"
	TitlePrompt       = "title.yaml"
)

// promptFile is the on-disk YAML shape of a prompt template.
type promptFile struct {
	SystemPrompt string `yaml:"system_prompt"`
}

// Store loads prompt templates from YAML files and caches the parsed
// templates. The cache is the only state shared across invocations and
// is read-only after first load.
type Store struct {
	dir string

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewStore creates a prompt store over a directory of YAML templates.
func NewStore(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]*template.Template)}
}

// Render loads (or reuses) the named template and executes it with data.
func (s *Store) Render(name string, data any) (string, error) {
	tmpl, err := s.load(name)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return b.String(), nil
}

func (s *Store) load(name string) (*template.Template, error) {
	s.mu.RLock()
	tmpl, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tmpl, ok := s.cache[name]; ok {
		return tmpl, nil
	}

	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}

	var pf promptFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", path, err)
	}
	if strings.TrimSpace(pf.SystemPrompt) == "" {
		return nil, fmt.Errorf("prompt %s has no system_prompt", path)
	}

	tmpl, err = template.New(name).Parse(pf.SystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("compile prompt %s: %w", path, err)
	}
	s.cache[name] = tmpl
	return tmpl, nil
}

// LabelData feeds the node label template.
type LabelData struct {
	Language    string
	Text        string
	ParentLabel string
	Depth       int
}

// DescriptionData feeds the node description template.
type DescriptionData struct {
	Language string
	Label    string
	Text     string
	Depth    int
}

// TitleData feeds the whole-tree naming template.
type TitleData struct {
	Language string
	Outline  string
}

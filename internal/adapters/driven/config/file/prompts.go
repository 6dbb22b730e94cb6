package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragextract/internal/core/ports/driven"
	"github.com/custodia-labs/ragextract/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads extraction prompts from <dir>/<name>.txt, falling back
// to embedded defaults. The directory and default files are created on the
// first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptExtractSystem: `You are an assistant specialized in extracting specific fields from documents. Use ONLY the provided context. If you are not sure, return value = null and a low confidence.`,

	driven.PromptExtractUser: `Field: %s
Field description: %s
Expected type: %s

Document context:
%s

Return the field value, a confidence between 0 and 1, and a short justification.`,
}

// placeholders is the number of %s verbs each prompt must keep.
var placeholders = map[string]int{
	driven.PromptExtractSystem: 0,
	driven.PromptExtractUser:   4,
}

// NewPromptStore creates a prompt store. An empty promptDir means
// ~/.ragextract/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".ragextract", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for name. Edited files that are missing,
// unreadable or have the wrong number of %s placeholders yield the default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	fallback, hasDefault := defaultPrompts[name]

	if s.initErr != nil {
		if hasDefault {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if hasDefault {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if want, known := placeholders[name]; known && strings.Count(prompt, "%s") != want {
		logger.Warn("prompt %s needs %d %%s placeholders, using default", name, want)
		prompt = fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.cache[name]; ok {
		return cached, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory, default files and a README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# ragextract Prompts

This directory contains the prompts used for field extraction.

## Files

- ` + "`extract_system.txt`" + ` - System instruction sent with every field question
- ` + "`extract_user.txt`" + ` - Per-field message carrying the retrieved context

## Customisation

Edit any file to customise extraction behaviour. Changes take effect on the
next command.

## Format Placeholders

` + "`extract_user.txt`" + ` takes four ` + "`%s`" + ` placeholders, in order:
field name, field description, expected type, document context.

Ensure customised prompts keep the placeholders in the same order.
`
	return os.WriteFile(path, []byte(content), 0600)
}

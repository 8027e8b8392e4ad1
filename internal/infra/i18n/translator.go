package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves user-facing bot strings by key. Keys missing from
// the locale file come back verbatim, so a bad key is visible in chat
// instead of silently blank.
type Translator struct {
	translations map[string]string
	helpText     string
}

// NewTranslator loads locales/<langCode>.yaml and the matching
// help-<langCode>.txt from the given filesystem (LocalesFS in
// production).
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
	}

	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, err
	}

	helpPath := filepath.Join("locales", fmt.Sprintf("help-%s.txt", langCode))
	helpBytes, err := fs.ReadFile(fsys, helpPath)
	if err != nil {
		return nil, fmt.Errorf("read help file %s: %w", helpPath, err)
	}
	t.helpText = string(helpBytes)
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T translates a key, applying Sprintf-style arguments when present.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Help returns the full /help text.
func (t *Translator) Help() string {
	return t.helpText
}

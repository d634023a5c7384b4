// Package seed exposes the read-only industry templates and supported
// languages offered by the generation form and the language selector.
package seed

import (
	_ "embed"
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"

	"github.com/starford/planinsta/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type catalog struct {
	Industries []models.IndustryTemplate `yaml:"industries"`
	Languages  []models.Language         `yaml:"languages"`
}

var (
	loadOnce sync.Once
	loaded   catalog
)

func load() catalog {
	loadOnce.Do(func() {
		if err := yaml.Unmarshal(seedYAML, &loaded); err != nil {
			panic(fmt.Sprintf("seed: parse embedded catalog: %v", err))
		}
	})
	return loaded
}

// Industries returns a copy of the industry templates in display order.
func Industries() []models.IndustryTemplate {
	return append([]models.IndustryTemplate(nil), load().Industries...)
}

// Industry looks up a template by id.
func Industry(id string) (models.IndustryTemplate, bool) {
	for _, t := range load().Industries {
		if t.ID == id {
			return t, true
		}
	}
	return models.IndustryTemplate{}, false
}

// Languages returns a copy of the supported languages in display order.
func Languages() []models.Language {
	return append([]models.Language(nil), load().Languages...)
}

// LookupLanguage resolves a user-supplied code ("es", "ES", "es-MX") to a
// supported language by its base tag.
func LookupLanguage(code string) (models.Language, bool) {
	tag, err := language.Parse(code)
	if err != nil {
		return models.Language{}, false
	}
	base, _ := tag.Base()
	for _, l := range load().Languages {
		if l.Code == base.String() {
			return l, true
		}
	}
	return models.Language{}, false
}

// EnglishName returns the English name of a supported language code, used in
// prompts ("Spanish" rather than "Español"). Unknown codes are returned as-is.
func EnglishName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

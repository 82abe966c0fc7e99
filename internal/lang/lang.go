// ABOUTME: Embedded TOML string tables with English fallback
// ABOUTME: Translate looks up a key and substitutes $name parameters

package lang

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed locales/*.toml
var locales embed.FS

// DefaultLanguage is used when no language is configured and as the fallback table.
const DefaultLanguage = "en"

// Manager translates keys for one language.
type Manager struct {
	language string
	table    map[string]string
	fallback map[string]string
}

// New loads the table for language. overrides replace individual entries,
// typically from configuration.
func New(language string, overrides map[string]string) (*Manager, error) {
	if language == "" {
		language = DefaultLanguage
	}

	fallback, err := load(DefaultLanguage)
	if err != nil {
		return nil, err
	}

	table := fallback
	if language != DefaultLanguage {
		table, err = load(language)
		if err != nil {
			return nil, err
		}
	}

	merged := make(map[string]string, len(table)+len(overrides))
	for k, v := range table {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}

	return &Manager{language: language, table: merged, fallback: fallback}, nil
}

func load(language string) (map[string]string, error) {
	data, err := locales.ReadFile("locales/" + language + ".toml")
	if err != nil {
		return nil, fmt.Errorf("unsupported language %q", language)
	}

	table := make(map[string]string)
	if _, err := toml.Decode(string(data), &table); err != nil {
		return nil, fmt.Errorf("parsing %s strings: %w", language, err)
	}
	return table, nil
}

// Languages lists the embedded languages.
func Languages() []string {
	entries, _ := locales.ReadDir("locales")
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(langs)
	return langs
}

// Language returns the language this manager translates to.
func (m *Manager) Language() string {
	return m.language
}

// Translate returns the string for key with $name parameters substituted.
// Unknown keys are returned unchanged.
func (m *Manager) Translate(key string, params map[string]string) string {
	text, ok := m.table[key]
	if !ok {
		text, ok = m.fallback[key]
	}
	if !ok {
		text = key
	}

	if len(params) == 0 {
		return text
	}

	// Longest names first so $agentNameFull is not clobbered by $agentName
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	pairs := make([]string, 0, len(params)*2)
	for _, name := range names {
		pairs = append(pairs, "$"+name, params[name])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

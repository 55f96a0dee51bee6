package fieldcrypt

import (
	"fmt"
	"strings"
)

// Config declares which fields of which models hold encrypted values.
// Model and field names are matched exactly; models absent from the config
// pass through the interception layer untouched.
type Config struct {
	models map[string]map[string]bool
}

// NewConfig builds a Config from a declarative mapping of model name to
// encrypted field names.
func NewConfig(models map[string][]string) *Config {
	cfg := &Config{models: make(map[string]map[string]bool, len(models))}
	for model, fields := range models {
		set := make(map[string]bool, len(fields))
		for _, field := range fields {
			set[field] = true
		}
		cfg.models[model] = set
	}
	return cfg
}

// ParseConfig parses the environment representation of the field mapping:
// semicolon-separated model entries, each "model:field1,field2".
// An empty string yields an empty config, which disables interception.
func ParseConfig(raw string) (*Config, error) {
	models := make(map[string][]string)

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NewConfig(models), nil
	}

	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		model, fieldList, found := strings.Cut(entry, ":")
		model = strings.TrimSpace(model)
		if !found || model == "" {
			return nil, fmt.Errorf("invalid field encryption entry %q", entry)
		}

		var fields []string
		for _, field := range strings.Split(fieldList, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			fields = append(fields, field)
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("field encryption entry %q has no fields", entry)
		}

		models[model] = append(models[model], fields...)
	}

	return NewConfig(models), nil
}

// HasModel reports whether the model has any encrypted fields configured.
func (c *Config) HasModel(model string) bool {
	return len(c.models[model]) > 0
}

// IsEncryptedField reports whether the given field of the given model is
// configured for encryption.
func (c *Config) IsEncryptedField(model, field string) bool {
	return c.models[model][field]
}

// Fields returns the configured field names for a model.
func (c *Config) Fields(model string) []string {
	fields := make([]string, 0, len(c.models[model]))
	for field := range c.models[model] {
		fields = append(fields, field)
	}
	return fields
}

// Models returns the configured model names.
func (c *Config) Models() []string {
	models := make([]string, 0, len(c.models))
	for model := range c.models {
		models = append(models, model)
	}
	return models
}

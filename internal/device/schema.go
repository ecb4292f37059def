package device

import "fmt"

// OptionType names the scalar type an option accepts.
type OptionType string

// Option value types.
const (
	OptionTypeString  OptionType = "string"
	OptionTypeNumber  OptionType = "number"
	OptionTypeBoolean OptionType = "boolean"
)

// OptionSpec describes one configuration option: its scalar type, the
// default applied when the config omits it, and an operator-facing
// description surfaced by the status API.
type OptionSpec struct {
	Type        OptionType `json:"type"`
	Default     any        `json:"default"`
	Description string     `json:"description"`
}

// OptionSchema maps option names to their specifications.
type OptionSchema map[string]OptionSpec

// TopicSchema declares the topic roles a device type uses.
//
// A configured device must supply a topic string for every required role.
// Optional roles may be absent; the sync logic treats an absent optional
// topic as "feature not wired".
type TopicSchema struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// knownRole reports whether a role appears in the required or optional set.
func (t TopicSchema) knownRole(role string) bool {
	for _, r := range t.Required {
		if r == role {
			return true
		}
	}
	for _, r := range t.Optional {
		if r == role {
			return true
		}
	}
	return false
}

// ValidationResult reports the outcome of validating one device config.
//
// Errors accumulate: a single validation pass reports every violation
// found, so an operator fixes a config in one round instead of replaying
// startup failures one field at a time.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// addError records a violation and marks the result invalid.
func (r *ValidationResult) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// optionValueMatches reports whether a config-supplied value matches the
// declared option type. YAML and JSON decoders hand numbers over as int or
// float64 depending on source, so number accepts both.
func optionValueMatches(t OptionType, v any) bool {
	switch t {
	case OptionTypeString:
		_, ok := v.(string)
		return ok
	case OptionTypeNumber:
		switch v.(type) {
		case int, int64, float64:
			return true
		}
		return false
	case OptionTypeBoolean:
		_, ok := v.(bool)
		return ok
	}
	return false
}

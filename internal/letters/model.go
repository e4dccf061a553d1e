package letters

import (
	"fmt"
	"regexp"
	"strings"
)

// Type selects which stored template a letter is rendered from.
type Type string

const (
	TypeGitHubTrainee Type = "GITHUB_TRAINEE"
)

var knownTypes = map[Type]struct{}{
	TypeGitHubTrainee: {},
}

// Data maps placeholder names to replacement text.
type Data map[string]string

var placeholderName = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// ParseType accepts the canonical name as well as lower-case and
// hyphenated spellings used in URLs.
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_")))
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
	return t, nil
}

// TemplateKey is the object key of the template for t.
func TemplateKey(t Type) string {
	return "templates/letters/" + string(t) + ".docx"
}

func (d Data) validate() error {
	for name := range d {
		if !placeholderName.MatchString(name) {
			return fmt.Errorf("%w: invalid placeholder name %q", ErrInvalidInput, name)
		}
	}
	return nil
}

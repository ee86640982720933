package ads

import (
	"fmt"
	"strings"
)

const unnamedPage = "Unnamed"

// FormatPageLabel renders the "Name (id)" display label.
func FormatPageLabel(name, id string) string {
	if strings.TrimSpace(name) == "" {
		name = unnamedPage
	}
	return fmt.Sprintf("%s (%s)", name, id)
}

// ParsePageLabel extracts the id from a "Name (id)" label: the content of the
// last balanced parenthesised group ending the string.
func ParsePageLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if !strings.HasSuffix(label, ")") {
		return "", ErrInvalidPageLabel
	}
	depth := 0
	for i := len(label) - 1; i >= 0; i-- {
		switch label[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				id := strings.TrimSpace(label[i+1 : len(label)-1])
				if id == "" {
					return "", ErrInvalidPageLabel
				}
				return id, nil
			}
		}
	}
	return "", ErrInvalidPageLabel
}

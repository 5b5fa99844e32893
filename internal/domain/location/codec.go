package location

import (
	"strings"

	"github.com/wms/backend/internal/domain/shared"
)

// CodeDelimiter joins the five location parts into a canonical code.
const CodeDelimiter = "-"

const partCount = 5

// Parts holds the five typed components of a physical storage address.
// The canonical code is the parts joined by CodeDelimiter in this order.
type Parts struct {
	Area     string `json:"area"`
	Row      string `json:"row"`
	Bay      string `json:"bay"`
	Level    string `json:"level"`
	Position string `json:"position"`
}

// BuildCode encodes parts into the canonical location code.
// Fails if any part is empty or contains a non-alphanumeric character.
func BuildCode(p Parts) (string, error) {
	tokens := []string{p.Area, p.Row, p.Bay, p.Level, p.Position}
	for _, token := range tokens {
		if token == "" {
			return "", shared.NewDomainError("INVALID_LOCATION", "All five location parts are required")
		}
		if !isAlphanumeric(token) {
			return "", shared.NewDomainError("INVALID_LOCATION", "Location parts must be alphanumeric")
		}
	}
	return strings.Join(tokens, CodeDelimiter), nil
}

// ParseCode decodes a canonical location code back into its parts.
// Fails unless the code splits into exactly five non-empty tokens.
func ParseCode(code string) (Parts, error) {
	tokens := strings.Split(code, CodeDelimiter)
	if len(tokens) != partCount {
		return Parts{}, shared.NewDomainError("INVALID_LOCATION", "Location code must have exactly five parts")
	}
	for _, token := range tokens {
		if token == "" || !isAlphanumeric(token) {
			return Parts{}, shared.NewDomainError("INVALID_LOCATION", "Location code contains an empty or invalid part")
		}
	}
	return Parts{
		Area:     tokens[0],
		Row:      tokens[1],
		Bay:      tokens[2],
		Level:    tokens[3],
		Position: tokens[4],
	}, nil
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

package tracking

import "strings"

// serviceDisplayNames maps raw carrier service identifiers to the names
// shown on the public tracking page. Matched case-insensitively on the
// longest identifier first.
var serviceDisplayNames = []struct {
	raw     string
	display string
}{
	{"moogship-gls-eco", "MoogShip GLS Eco"},
	{"moogship-ups-express", "MoogShip UPS Express"},
	{"moogship-priority", "MoogShip Priority"},
	{"widect", "MoogShip Widect"},
	{"gls", "MoogShip GLS"},
	{"ups", "MoogShip UPS"},
	{"standard", "MoogShip Standard"},
}

// NormalizeServiceName converts a raw service identifier to its display
// name. Unknown identifiers are title-cased with separators removed so the
// page never shows internal codes verbatim.
func NormalizeServiceName(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	for _, entry := range serviceDisplayNames {
		if lower == entry.raw {
			return entry.display
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

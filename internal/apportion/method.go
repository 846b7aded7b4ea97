package apportion

import (
	"fmt"
	"strings"
)

// Method selects the divisor sequence used by the allocator.
type Method int

const (
	DHondt Method = iota
	SainteLague
	Imperiali
	HuntingtonHill
	Danish
)

var methodNames = [...]string{
	DHondt:         "dhondt",
	SainteLague:    "sainte-lague",
	Imperiali:      "imperiali",
	HuntingtonHill: "huntington-hill",
	Danish:         "danish",
}

var methodAliases = map[string]Method{
	"dhondt":          DHondt,
	"jefferson":       DHondt,
	"sainte-lague":    SainteLague,
	"saintelague":     SainteLague,
	"webster":         SainteLague,
	"imperiali":       Imperiali,
	"huntington-hill": HuntingtonHill,
	"huntingtonhill":  HuntingtonHill,
	"danish":          Danish,
}

// Methods returns every supported method in declaration order.
func Methods() []Method {
	return []Method{DHondt, SainteLague, Imperiali, HuntingtonHill, Danish}
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	return m >= DHondt && m <= Danish
}

func (m Method) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// ParseMethod resolves a method from its name. Matching ignores case,
// apostrophes, diacritics on "Laguë" and the choice of space, underscore or
// hyphen as separator, so "D'Hondt" and "Sainte_Laguë" are both accepted.
func ParseMethod(s string) (Method, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("'", "", "’", "", "ë", "e", "_", "-", " ", "-").Replace(key)
	if m, ok := methodAliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Method) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMethod, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

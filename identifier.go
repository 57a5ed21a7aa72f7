package spp

import "sort"

// IdentifierValue is a single byte carrying a symbolic meaning: a command
// code, a status code, a mode, a channel. ToText always renders the
// canonical label, even if the value was parsed from an alias.
type IdentifierValue struct {
	Code  uint8
	Label string
}

func (v IdentifierValue) ToText() string   { return v.Label }
func (v IdentifierValue) ToBinary() []byte { return []byte{v.Code} }

// IdentifierTable maps byte codes to canonical labels, plus any number of
// aliases that parse to the same code but never appear in rendered text.
// It is first-class and queryable (Keys, Lookup) rather than something
// only a registry reaches into, so a script façade can list valid
// identifiers for a field without depending on registry internals.
type IdentifierTable struct {
	canonical map[uint8]string
	byLabel   map[string]uint8
}

// NewIdentifierTable returns an empty table ready for Add calls.
func NewIdentifierTable() *IdentifierTable {
	return &IdentifierTable{
		canonical: make(map[uint8]string),
		byLabel:   make(map[string]uint8),
	}
}

// Add registers a code under its canonical label plus any aliases. It
// fails if the code already has a different canonical label, or if any
// label/alias is already bound to a different code — the same conflict
// checks the original protocol's identifier tables perform when built.
func (t *IdentifierTable) Add(code uint8, label string, aliases ...string) error {
	if existing, ok := t.canonical[code]; ok && existing != label {
		return newError(KindInitialization, "code %#02x already registered as %q", code, existing)
	}
	for _, name := range append([]string{label}, aliases...) {
		if existingCode, ok := t.byLabel[name]; ok && existingCode != code {
			return newError(KindInitialization, "label %q already registered for code %#02x", name, existingCode)
		}
	}
	t.canonical[code] = label
	t.byLabel[label] = code
	for _, alias := range aliases {
		t.byLabel[alias] = code
	}
	return nil
}

// Lookup resolves a label or alias to its code.
func (t *IdentifierTable) Lookup(label string) (uint8, bool) {
	code, ok := t.byLabel[label]
	return code, ok
}

// CanonicalLabel resolves a code to its canonical label.
func (t *IdentifierTable) CanonicalLabel(code uint8) (string, bool) {
	label, ok := t.canonical[code]
	return label, ok
}

// Keys returns the canonical labels in ascending code order.
func (t *IdentifierTable) Keys() []string {
	codes := make([]uint8, 0, len(t.canonical))
	for code := range t.canonical {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	labels := make([]string, len(codes))
	for i, code := range codes {
		labels[i] = t.canonical[code]
	}
	return labels
}

// IdentifierParser decodes a single byte against an IdentifierTable, in
// either binary or text form.
type IdentifierParser struct {
	Table *IdentifierTable
	Sep   string
}

func (p IdentifierParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p IdentifierParser) ParseBinary(data []byte) (Value, []byte, error) {
	if len(data) < 1 {
		return nil, nil, newError(KindParse, "short identifier field")
	}
	code := data[0]
	label, ok := p.Table.CanonicalLabel(code)
	if !ok {
		return nil, nil, newError(KindIdentifierUnknown, "unknown identifier code: %#02x", code)
	}
	return IdentifierValue{Code: code, Label: label}, data[1:], nil
}

func (p IdentifierParser) ParseText(text string) (Value, string, error) {
	token, rest := splitSep(text, p.sep())
	code, ok := p.Table.Lookup(token)
	if !ok {
		return nil, "", newError(KindIdentifierUnknown, "unknown identifier: %s", token)
	}
	label, _ := p.Table.CanonicalLabel(code)
	return IdentifierValue{Code: code, Label: label}, rest, nil
}

package spp

import "strings"

// ListValue is an ordered sequence of values sharing one separator in
// their canonical text form.
type ListValue struct {
	Items []Value
	Sep   string
}

func (v ListValue) sep() string {
	if v.Sep == "" {
		return " "
	}
	return v.Sep
}

func (v ListValue) ToText() string {
	parts := make([]string, len(v.Items))
	for i, item := range v.Items {
		parts[i] = item.ToText()
	}
	return strings.Join(parts, v.sep())
}

func (v ListValue) ToBinary() []byte {
	var out []byte
	for _, item := range v.Items {
		out = append(out, item.ToBinary()...)
	}
	return out
}

// ListParser decodes a homogeneous sequence of items, each decoded by
// Item, stopping once MaxLength items have been parsed (if set) or once
// no input remains. In text, input left over once MaxLength items have
// been parsed is an error; in binary, it is returned as the remainder.
type ListParser struct {
	Item      Parser
	MaxLength *int
	Sep       string
}

func (p ListParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p ListParser) ParseBinary(data []byte) (Value, []byte, error) {
	var items []Value
	rest := data
	for len(rest) > 0 {
		if p.MaxLength != nil && len(items) >= *p.MaxLength {
			break
		}
		value, next, err := p.Item.ParseBinary(rest)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, value)
		rest = next
	}
	return ListValue{Items: items, Sep: p.Sep}, rest, nil
}

func (p ListParser) ParseText(text string) (Value, string, error) {
	var items []Value
	rest := text
	for rest != "" {
		if p.MaxLength != nil && len(items) >= *p.MaxLength {
			return nil, "", newError(KindParse, "too many list elements, expected at most %d: %s", *p.MaxLength, text)
		}
		value, next, err := p.Item.ParseText(rest)
		if err != nil {
			return nil, "", err
		}
		items = append(items, value)
		rest = next
	}
	return ListValue{Items: items, Sep: p.Sep}, rest, nil
}

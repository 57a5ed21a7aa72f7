package spp

// ByteValue is an 8-bit unsigned quantity that carries an optional
// symbolic label (e.g. a status or mode byte rendered as a name rather
// than a bare number). It is otherwise exactly an unsigned IntegerValue
// of width 8.
type ByteValue struct {
	V     uint8
	Label string
}

func (v ByteValue) ToBinary() []byte { return []byte{v.V} }

func (v ByteValue) ToText() string {
	if v.Label != "" {
		return v.Label
	}
	return IntegerValue{Width: 8, Signed: false, V: int64(v.V)}.ToText()
}

// ByteParser decodes a single unsigned byte, in text as a bare decimal
// or hex literal, or as one of the labels in an optional lookup table
// (used for small enumerations carried as a single byte on the wire,
// distinct from the larger code/label tables IdentifierParser manages).
type ByteParser struct {
	Labels map[string]uint8 // text label -> value, optional
	byCode map[uint8]string
	Sep    string
}

func (p *ByteParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p *ByteParser) reverse() map[uint8]string {
	if p.byCode != nil {
		return p.byCode
	}
	p.byCode = make(map[uint8]string, len(p.Labels))
	for label, code := range p.Labels {
		p.byCode[code] = label
	}
	return p.byCode
}

func (p *ByteParser) ParseBinary(data []byte) (Value, []byte, error) {
	if len(data) < 1 {
		return nil, nil, newError(KindParse, "short byte field")
	}
	b := data[0]
	return ByteValue{V: b, Label: p.reverse()[b]}, data[1:], nil
}

func (p *ByteParser) ParseText(text string) (Value, string, error) {
	token, rest := splitSep(text, p.sep())
	if code, ok := p.Labels[token]; ok {
		return ByteValue{V: code, Label: token}, rest, nil
	}
	inner := IntegerParser{Width: 8, Signed: false, Sep: p.Sep}
	value, rest2, err := inner.ParseText(text)
	if err != nil {
		return nil, "", err
	}
	iv := value.(IntegerValue)
	b := uint8(iv.V)
	return ByteValue{V: b, Label: p.reverse()[b]}, rest2, nil
}

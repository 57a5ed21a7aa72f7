package spp

// PairValue couples a leading identifier with a payload whose shape
// depends on that identifier's code.
type PairValue struct {
	First  Value
	Second Value
	Sep    string
}

func (v PairValue) sep() string {
	if v.Sep == "" {
		return " "
	}
	return v.Sep
}

// ToText always joins First and Second with the separator when a second
// element is present, regardless of what Second.ToText() happens to
// render — an empty List is still a present second element, distinct
// from EmptyValue's "no second element at all".
func (v PairValue) ToText() string {
	if _, absent := v.Second.(EmptyValue); absent || v.Second == nil {
		return v.First.ToText()
	}
	return v.First.ToText() + v.sep() + v.Second.ToText()
}

func (v PairValue) ToBinary() []byte {
	return append(v.First.ToBinary(), v.Second.ToBinary()...)
}

// PairParser decodes a leading identifier with First, then selects the
// payload parser for the identifier's code (falling back to
// DefaultSecond) and decodes the remainder with it. PayloadParserFor is
// exposed so callers — in particular the script façade's config
// save/restore logic — can resolve a command's payload shape without
// reaching into unexported registry fields.
type PairParser struct {
	First         Parser
	DefaultSecond Parser
	Second        map[uint8]Parser
	Sep           string
}

func (p PairParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

// PayloadParserFor returns the parser registered for code, or
// DefaultSecond if none is registered. It returns nil if neither is
// set, in which case ParseBinary/ParseText accept only an empty tail
// (producing a singleton List holding just the discriminant) and
// reject a non-empty one as identifier-unknown.
func (p PairParser) PayloadParserFor(code uint8) Parser {
	if parser, ok := p.Second[code]; ok {
		return parser
	}
	return p.DefaultSecond
}

func (p PairParser) codeOf(v Value) (uint8, bool) {
	id, ok := v.(IdentifierValue)
	if !ok {
		return 0, false
	}
	return id.Code, true
}

func (p PairParser) ParseBinary(data []byte) (Value, []byte, error) {
	first, rest, err := p.First.ParseBinary(data)
	if err != nil {
		return nil, nil, err
	}
	code, _ := p.codeOf(first)
	second := p.PayloadParserFor(code)
	if second == nil {
		if len(rest) != 0 {
			return nil, nil, newError(KindIdentifierUnknown, "unknown identifier code: %#02x", code)
		}
		return PairValue{First: first, Second: ListValue{Items: []Value{first}, Sep: p.sep()}, Sep: p.Sep}, rest, nil
	}
	secondValue, rest2, err := second.ParseBinary(rest)
	if err != nil {
		return nil, nil, err
	}
	return PairValue{First: first, Second: secondValue, Sep: p.Sep}, rest2, nil
}

func (p PairParser) ParseText(text string) (Value, string, error) {
	first, rest, err := p.First.ParseText(text)
	if err != nil {
		return nil, "", err
	}
	code, _ := p.codeOf(first)
	second := p.PayloadParserFor(code)
	if second == nil {
		if rest != "" {
			return nil, "", newError(KindIdentifierUnknown, "unknown identifier code: %#02x", code)
		}
		return PairValue{First: first, Second: ListValue{Items: []Value{first}, Sep: p.sep()}, Sep: p.Sep}, rest, nil
	}
	secondValue, rest2, err := second.ParseText(rest)
	if err != nil {
		return nil, "", err
	}
	return PairValue{First: first, Second: secondValue, Sep: p.Sep}, rest2, nil
}

package spp

// Message is a fully decoded request or reply: an identifier (the
// command or reply code/name) paired with its payload, annotated with
// the deadline registered for that code.
type Message struct {
	Code     uint8
	Name     string
	Payload  Value
	Sep      string
	Deadline float64 // seconds; 0 if the code carries none
}

func (m Message) sep() string {
	if m.Sep == "" {
		return " "
	}
	return m.Sep
}

func (m Message) ToText() string {
	return PairValue{
		First:  IdentifierValue{Code: m.Code, Label: m.Name},
		Second: m.Payload,
		Sep:    m.Sep,
	}.ToText()
}

// ToBinary encodes the message as an identifier byte followed by the
// payload's binary form, except for the reserved empty pair (ping,
// ping_ack), whose binary form carries no identifier byte at all — it
// is the zero-length body, not a one-byte encoding of its code.
func (m Message) ToBinary() []byte {
	if m.Name == pingName || m.Name == pingAckName {
		return nil
	}
	return PairValue{
		First:  IdentifierValue{Code: m.Code, Label: m.Name},
		Second: m.Payload,
	}.ToBinary()
}

// pingName and pingAckName name the protocol's single built-in alias:
// a command/reply pair whose wire form is always a zero-length body,
// carrying no message-type byte (see the ping wire scenario).
const (
	pingName    = "ping"
	pingAckName = "ping_ack"
)

// MessageParser decodes a command/reply identifier plus its code-specific
// payload, and attaches the deadline registered for that code. It is a
// thin specialization of PairParser: the identifier is always a single
// byte looked up in Identifiers, and the payload parser is whatever a
// CommandRegistry compiled per code.
type MessageParser struct {
	Identifiers *IdentifierTable
	Payloads    map[uint8]Parser
	Deadlines   map[uint8]float64
	Sep         string
}

func (p MessageParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p MessageParser) pair() PairParser {
	return PairParser{
		First:         IdentifierParser{Table: p.Identifiers, Sep: p.Sep},
		DefaultSecond: EmptyParser{},
		Second:        p.Payloads,
		Sep:           p.Sep,
	}
}

// PayloadParserFor exposes the payload parser registered for a code,
// mirroring PairParser.PayloadParserFor so callers never need direct
// access to the Payloads map.
func (p MessageParser) PayloadParserFor(code uint8) Parser {
	return p.pair().PayloadParserFor(code)
}

// ParseBinary decodes a message body. A zero-length body is always the
// reserved empty pair: since every binary decode in this package reads
// a received reply, an empty body resolves to ping_ack if registered,
// falling back to ping so a bare request catalog still round-trips.
func (p MessageParser) ParseBinary(data []byte) (Value, []byte, error) {
	if len(data) == 0 {
		if code, ok := p.Identifiers.Lookup(pingAckName); ok {
			return p.emptyMessage(code, pingAckName), data, nil
		}
		if code, ok := p.Identifiers.Lookup(pingName); ok {
			return p.emptyMessage(code, pingName), data, nil
		}
	}
	value, rest, err := p.pair().ParseBinary(data)
	if err != nil {
		return nil, nil, err
	}
	return p.toMessage(value), rest, nil
}

func (p MessageParser) emptyMessage(code uint8, name string) Message {
	return Message{Code: code, Name: name, Payload: EmptyValue{}, Sep: p.Sep, Deadline: p.Deadlines[code]}
}

func (p MessageParser) ParseText(text string) (Value, string, error) {
	value, rest, err := p.pair().ParseText(text)
	if err != nil {
		return nil, "", err
	}
	return p.toMessage(value), rest, nil
}

func (p MessageParser) toMessage(value Value) Message {
	pv := value.(PairValue)
	id := pv.First.(IdentifierValue)
	return Message{
		Code:     id.Code,
		Name:     id.Label,
		Payload:  pv.Second,
		Sep:      p.Sep,
		Deadline: p.Deadlines[id.Code],
	}
}

// EmptyParser decodes a zero-length payload; it is the default payload
// shape for any code that carries none (the `ping` request/reply, and
// any command registered without a payload).
type EmptyParser struct{}

func (EmptyParser) ParseBinary(data []byte) (Value, []byte, error) {
	return EmptyValue{}, data, nil
}

func (EmptyParser) ParseText(text string) (Value, string, error) {
	return EmptyValue{}, text, nil
}

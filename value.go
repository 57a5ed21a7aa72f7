package spp

// Value is the capability shared by every parsed piece of an SPP message:
// it knows how to render itself back to canonical text and to wire bytes.
// This mirrors the teacher's split between a Command's Request/Respond
// behavior and the data it carries, generalized to the tagged variant that
// original_source/space.py calls SpaceData (IntegerData, FloatData,
// StringData, ByteData, ListData, EmptyData).
type Value interface {
	ToText() string
	ToBinary() []byte
}

// Parser is the capability shared by every decoder in the composable
// parser system: it consumes a prefix of text or binary input and returns
// the parsed Value plus whatever remains unconsumed.
type Parser interface {
	ParseText(text string) (Value, string, error)
	ParseBinary(data []byte) (Value, []byte, error)
}

// EmptyValue represents a zero-length payload, used for the reserved
// `ping` request/reply and any command with no fields.
type EmptyValue struct {
	Label string
}

func (e EmptyValue) ToText() string   { return e.Label }
func (e EmptyValue) ToBinary() []byte { return nil }

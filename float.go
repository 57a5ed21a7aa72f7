package spp

import (
	"encoding/binary"
	"math"
	"strconv"
)

// FloatValue is an IEEE-754 32-bit float, with an optional physical-units
// annotation that is metadata only (not part of the binary or canonical
// text form).
type FloatValue struct {
	V     float32
	Units string
}

func (v FloatValue) ToBinary() []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v.V))
	return buf
}

// ToText renders the value in %g style: the shortest decimal
// representation that round-trips back to the same float32, switching
// to scientific notation when the exponent is below -4 or at least 6, as
// Python's f"{value:g}" does. Unlike :g, which keeps six significant
// digits, it keeps as many digits as the round trip needs.
func (v FloatValue) ToText() string {
	return strconv.FormatFloat(float64(v.V), 'g', -1, 32)
}

// FloatParser decodes 4-byte little-endian IEEE-754 floats, or any
// conventional float literal in text (including "nan", "inf", "-inf").
type FloatParser struct {
	Units string
	Sep   string
}

func (p FloatParser) sep() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

func (p FloatParser) ParseBinary(data []byte) (Value, []byte, error) {
	if len(data) < 4 {
		return nil, nil, newError(KindParse, "short float field: need 4 bytes, have %d", len(data))
	}
	bits := binary.LittleEndian.Uint32(data[:4])
	return FloatValue{V: math.Float32frombits(bits), Units: p.Units}, data[4:], nil
}

func (p FloatParser) ParseText(text string) (Value, string, error) {
	token, rest := splitSep(text, p.sep())
	f, err := strconv.ParseFloat(token, 32)
	if err != nil {
		return nil, "", newError(KindParse, "cannot parse as float: %s", token)
	}
	return FloatValue{V: float32(f), Units: p.Units}, rest, nil
}

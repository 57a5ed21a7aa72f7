package spp_test

import (
	"testing"

	"github.com/ionforge/spp"
)

func TestStringParserTextRoundTrip(t *testing.T) {
	cases := []struct {
		text string
		want string
		rest string
	}{
		{text: `'hello'`, want: "hello"},
		{text: `"hello world"`, want: "hello world"},
		{text: `'line\nbreak'`, want: "line\nbreak"},
		{text: `'quote\'s'`, want: "quote's"},
		{text: `'a' rest`, want: "a", rest: "rest"},
	}
	p := spp.StringParser{}
	for _, c := range cases {
		value, rest, err := p.ParseText(c.text)
		if err != nil {
			t.Errorf("%s: %v", c.text, err)
			continue
		}
		sv := value.(spp.StringValue)
		if string(sv.Raw) != c.want {
			t.Errorf("%s: got %q, want %q", c.text, sv.Raw, c.want)
		}
		if rest != c.rest {
			t.Errorf("%s: rest = %q, want %q", c.text, rest, c.rest)
		}
	}
}

func TestStringParserTextUnterminated(t *testing.T) {
	p := spp.StringParser{}
	if _, _, err := p.ParseText(`'unterminated`); err == nil {
		t.Fatal("expected error")
	}
}

func TestStringParserBinary(t *testing.T) {
	p := spp.StringParser{}
	data := append([]byte("hi"), 0, 0xFF)
	value, rest, err := p.ParseBinary(data)
	if err != nil {
		t.Fatal(err)
	}
	sv := value.(spp.StringValue)
	if string(sv.Raw) != "hi" {
		t.Errorf("got %q", sv.Raw)
	}
	if len(rest) != 1 || rest[0] != 0xFF {
		t.Errorf("rest = %x", rest)
	}
}

func TestStringValueToBinaryNullTerminated(t *testing.T) {
	sv := spp.StringValue{Raw: []byte("abc")}
	data := sv.ToBinary()
	if len(data) != 4 || data[3] != 0 {
		t.Errorf("got %x", data)
	}
}

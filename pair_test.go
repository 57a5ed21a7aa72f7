package spp_test

import (
	"testing"

	"github.com/ionforge/spp"
)

func TestPairParserSelectsSecondByCode(t *testing.T) {
	table := spp.NewIdentifierTable()
	if err := table.Add(0x10, "igniter"); err != nil {
		t.Fatal(err)
	}
	if err := table.Add(0x20, "tele"); err != nil {
		t.Fatal(err)
	}
	p := spp.PairParser{
		First:         spp.IdentifierParser{Table: table},
		DefaultSecond: spp.EmptyParser{},
		Second: map[uint8]spp.Parser{
			0x10: spp.FloatParser{},
		},
	}
	if got := p.PayloadParserFor(0x10); got == nil {
		t.Fatal("expected a registered parser")
	}
	value, rest, err := p.ParseText("igniter 1.5")
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q", rest)
	}
	pv := value.(spp.PairValue)
	if pv.Second.(spp.FloatValue).V != 1.5 {
		t.Errorf("got %+v", pv.Second)
	}

	value, rest, err = p.ParseText("tele")
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q", rest)
	}
	pv = value.(spp.PairValue)
	if _, ok := pv.Second.(spp.EmptyValue); !ok {
		t.Errorf("expected default empty payload, got %+v", pv.Second)
	}
}

// TestPairParserNoSecondParser covers §4.3's policy for a discriminant
// with neither a registered nor a default second parser: an empty tail
// produces a singleton List holding just the discriminant, and a
// non-empty tail fails identifier-unknown.
func TestPairParserNoSecondParser(t *testing.T) {
	table := spp.NewIdentifierTable()
	if err := table.Add(0x10, "igniter"); err != nil {
		t.Fatal(err)
	}
	p := spp.PairParser{
		First: spp.IdentifierParser{Table: table},
	}
	if got := p.PayloadParserFor(0x10); got != nil {
		t.Fatalf("expected nil parser, got %+v", got)
	}

	value, rest, err := p.ParseText("igniter")
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Errorf("rest = %q", rest)
	}
	pv := value.(spp.PairValue)
	list, ok := pv.Second.(spp.ListValue)
	if !ok || len(list.Items) != 1 {
		t.Fatalf("expected singleton list, got %+v", pv.Second)
	}
	if id, ok := list.Items[0].(spp.IdentifierValue); !ok || id.Label != "igniter" {
		t.Errorf("expected singleton list of the discriminant, got %+v", list.Items[0])
	}

	if _, _, err := p.ParseText("igniter 1.5"); err == nil {
		t.Fatal("expected identifier-unknown error for non-empty tail")
	} else if kind, ok := spp.KindOf(err); !ok || kind != spp.KindIdentifierUnknown {
		t.Errorf("got error kind %v", kind)
	}

	data, rest2, err := p.ParseBinary([]byte{0x10})
	if err != nil {
		t.Fatal(err)
	}
	if len(rest2) != 0 {
		t.Errorf("rest = %v", rest2)
	}
	list, ok = data.(spp.PairValue).Second.(spp.ListValue)
	if !ok || len(list.Items) != 1 {
		t.Fatalf("expected singleton list, got %+v", data)
	}

	if _, _, err := p.ParseBinary([]byte{0x10, 0x01}); err == nil {
		t.Fatal("expected identifier-unknown error for non-empty tail")
	} else if kind, ok := spp.KindOf(err); !ok || kind != spp.KindIdentifierUnknown {
		t.Errorf("got error kind %v", kind)
	}
}

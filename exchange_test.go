package spp_test

import (
	"testing"
	"time"

	"github.com/ionforge/spp"
)

func newTestSession(t *testing.T, port *fakePort) *spp.Session {
	t.Helper()
	cfg, err := spp.Options{Port: "fake", Address: 5}.Verify()
	if err != nil {
		t.Fatal(err)
	}
	return spp.NewSessionWithPort(cfg, port)
}

func encodeReply(t *testing.T, parser *spp.MessageParser, line string, address, status uint8) []byte {
	t.Helper()
	value, rest, err := parser.ParseText(line)
	if err != nil {
		t.Fatal(err)
	}
	if rest != "" {
		t.Fatalf("unexpected trailing text: %q", rest)
	}
	msg := value.(spp.Message)
	frame, err := spp.EncodeFrame(spp.Frame{IsReply: true, Address: address, Status: status, Body: msg.ToBinary()})
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestExchangePingReply(t *testing.T) {
	parser := newTestRegistry(t)
	port := &fakePort{}
	session := newTestSession(t, port)
	port.queueReply(encodeReply(t, parser, "ping_ack", 5, 0x00))

	value, _, err := parser.ParseText("ping")
	if err != nil {
		t.Fatal(err)
	}
	reply, err := session.Exchange(value.(spp.Message), parser, 0.05)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Name != "ping_ack" {
		t.Errorf("got %+v", reply)
	}
	if session.LastStatus() != 0 {
		t.Errorf("got status %#x", session.LastStatus())
	}
}

func TestExchangeIgniterReply(t *testing.T) {
	parser := newTestRegistry(t)
	port := &fakePort{}
	session := newTestSession(t, port)
	port.queueReply(encodeReply(t, parser, "igniter_ack 1.5", 5, 0x02))

	value, _, err := parser.ParseText("igniter 1.5")
	if err != nil {
		t.Fatal(err)
	}
	reply, err := session.Exchange(value.(spp.Message), parser, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if reply.ToText() != "igniter_ack 1.5" {
		t.Errorf("got %q", reply.ToText())
	}
	if spp.StatusLabel(session.LastStatus()) != "THRUSTING" {
		t.Errorf("got status label %q", spp.StatusLabel(session.LastStatus()))
	}
}

func TestExchangeTeleReply(t *testing.T) {
	parser := newTestRegistry(t)
	port := &fakePort{}
	session := newTestSession(t, port)
	port.queueReply(encodeReply(t, parser, "tele_ack discharge_voltage 120.5 vbus_voltage 28.0", 5, 0))

	value, _, err := parser.ParseText("tele discharge_voltage vbus_voltage")
	if err != nil {
		t.Fatal(err)
	}
	reply, err := session.Exchange(value.(spp.Message), parser, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	list := reply.Payload.(spp.ListValue)
	if len(list.Items) != 2 {
		t.Fatalf("got %d items", len(list.Items))
	}
}

func TestExchangeTimeout(t *testing.T) {
	parser := newTestRegistry(t)
	port := &fakePort{}
	session := newTestSession(t, port)
	// No reply queued: Exchange must time out rather than block forever.
	value, _, err := parser.ParseText("ping")
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	_, err = session.Exchange(value.(spp.Message), parser, 0.01)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind, ok := spp.KindOf(err); !ok || kind != spp.KindTransportTimeout {
		t.Errorf("got error kind %v", kind)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Errorf("returned too quickly: %s", elapsed)
	}
}

func TestExchangeRejectsCorruptFrame(t *testing.T) {
	parser := newTestRegistry(t)
	port := &fakePort{}
	session := newTestSession(t, port)
	frame := encodeReply(t, parser, "echo 1 2 3 4 5 6 7 8 9 10", 5, 0)
	frame[len(frame)-1] ^= 0xFF // corrupt the CRC trailer
	port.queueReply(frame)

	value, _, err := parser.ParseText("echo 1 2 3 4 5 6 7 8 9 10")
	if err != nil {
		t.Fatal(err)
	}
	_, err = session.Exchange(value.(spp.Message), parser, 0.05)
	if err == nil {
		t.Fatal("expected frame-invalid error")
	}
	if kind, ok := spp.KindOf(err); !ok || kind != spp.KindFrameInvalid {
		t.Errorf("got error kind %v", kind)
	}
}

package page

import (
	"strings"
	"testing"
)

// TestFromBitString checks that a payload given as '0'/'1' characters
// is packed MSB first.
func TestFromBitString(t *testing.T) {
	body := "10100101" + "11111111" + strings.Repeat("0", PayloadLengthBits-16)

	p, err := FromBitString(1, 1, 5, 10, 42, body)
	if err != nil {
		t.Fatal(err)
	}

	if p.Status != 1 || p.MessageType != 1 || p.MessageID != 5 ||
		p.MessageSize != 10 || p.MessagePageID != 42 {
		t.Errorf("header fields not carried through: %s", p.String())
	}
	if p.Payload[0] != 0xa5 {
		t.Errorf("want first octet 0xa5, got 0x%02x", p.Payload[0])
	}
	if p.Payload[1] != 0xff {
		t.Errorf("want second octet 0xff, got 0x%02x", p.Payload[1])
	}
	for i := 2; i < PayloadLengthOctets; i++ {
		if p.Payload[i] != 0 {
			t.Errorf("want octet %d zero, got 0x%02x", i, p.Payload[i])
		}
	}
}

// TestFromBitStringBadInput checks rejection of malformed payloads.
func TestFromBitStringBadInput(t *testing.T) {
	var testData = []struct {
		description string
		body        string
	}{
		{"too short", strings.Repeat("0", PayloadLengthBits-1)},
		{"too long", strings.Repeat("0", PayloadLengthBits+1)},
		{"bad character", "2" + strings.Repeat("0", PayloadLengthBits-1)},
	}

	for _, td := range testData {
		if _, err := FromBitString(1, 1, 0, 1, 1, td.body); err == nil {
			t.Errorf("%s: want an error", td.description)
		}
	}
}

// TestNew checks payload length validation.
func TestNew(t *testing.T) {
	payload := make([]byte, PayloadLengthOctets)
	payload[52] = 0x17

	p, err := New(0, 1, 31, 32, 255, payload)
	if err != nil {
		t.Fatal(err)
	}
	if p.Payload[52] != 0x17 {
		t.Errorf("want last octet 0x17, got 0x%02x", p.Payload[52])
	}

	if _, err := New(0, 1, 0, 1, 1, make([]byte, 52)); err == nil {
		t.Errorf("want an error for a short payload")
	}
}

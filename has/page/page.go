// The page package defines the HAS page descriptor, the unit of input
// to the receiver.  Each page is one 448-bit burst from the E6-B
// C/NAV stream: a 24-bit header giving the page's place in a multi-page
// message, followed by a 424-bit encoded payload.  The payload octets
// are one row of the Reed-Solomon code matrix for the message the page
// belongs to.
package page

import (
	"errors"
	"fmt"
)

// PayloadLengthBits is the number of bits in the encoded page payload.
const PayloadLengthBits = 424

// PayloadLengthOctets is the payload length in whole octets.
const PayloadLengthOctets = PayloadLengthBits / 8

// MaxMessageID is the upper bound (exclusive) of the message ID space.
const MaxMessageID = 32

// MaxMessageSize is the largest legal message size in pages, which is
// also the number of information symbols in a Reed-Solomon code block.
const MaxMessageSize = 32

// Page holds one decoded HAS page.
type Page struct {

	// Status - uint2 - the HAS status field: 0 test, 1 operational,
	// 2 reserved, 3 "do not use".  The receiver processes pages with
	// status 0 or 1 and ignores the rest.
	Status uint8

	// MessageType - uint2 - the HAS message type.  Only type 1 (the
	// mask/orbit/clock/bias correction message) is defined at present.
	MessageType uint8

	// MessageID - uint5 - identifies the multi-page message this page
	// belongs to, 0..31.  IDs are reused over time: once a message has
	// been decoded or abandoned, later pages with the same ID begin a
	// new message.
	MessageID uint8

	// MessageSize - uint5 biased by 1 on the wire, so 1..32 here - the
	// number of pages that make up the complete message.
	MessageSize uint8

	// MessagePageID - uint8 - the page's position in the encoded block,
	// 1..255.  Zero is reserved and such pages are ignored.
	MessagePageID uint8

	// Payload holds the 424-bit encoded page body, packed MSB-first.
	Payload [PayloadLengthOctets]byte
}

// New creates a Page from its header fields and payload octets.
func New(status, messageType, messageID, messageSize, messagePageID uint8, payload []byte) (*Page, error) {
	if len(payload) != PayloadLengthOctets {
		em := fmt.Sprintf("page: payload is %d octets, want %d", len(payload), PayloadLengthOctets)
		return nil, errors.New(em)
	}
	p := Page{
		Status:        status,
		MessageType:   messageType,
		MessageID:     messageID,
		MessageSize:   messageSize,
		MessagePageID: messagePageID,
	}
	copy(p.Payload[:], payload)
	return &p, nil
}

// FromBitString creates a Page whose payload is given as a string of
// '0' and '1' characters, the form in which some telemetry decoders
// hand pages on.  The string must be exactly 424 characters.
func FromBitString(status, messageType, messageID, messageSize, messagePageID uint8, body string) (*Page, error) {
	if len(body) != PayloadLengthBits {
		em := fmt.Sprintf("page: payload is %d bits, want %d", len(body), PayloadLengthBits)
		return nil, errors.New(em)
	}
	p := Page{
		Status:        status,
		MessageType:   messageType,
		MessageID:     messageID,
		MessageSize:   messageSize,
		MessagePageID: messagePageID,
	}
	for i := 0; i < PayloadLengthBits; i++ {
		switch body[i] {
		case '1':
			p.Payload[i/8] |= 1 << (7 - i%8)
		case '0':
			// already zero
		default:
			em := fmt.Sprintf("page: payload character %d is %q, want '0' or '1'", i, body[i])
			return nil, errors.New(em)
		}
	}
	return &p, nil
}

// String returns the page header in a readable form for the event log.
func (p *Page) String() string {
	return fmt.Sprintf("HAS page: status %d type %d mid %d size %d pid %d",
		p.Status, p.MessageType, p.MessageID, p.MessageSize, p.MessagePageID)
}

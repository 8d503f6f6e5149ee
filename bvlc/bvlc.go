// Package bvlc implements the BVLC-SC control-message codec consumed by
// the node core. The real BACnet/SC wire layout is explicitly out of scope
// for this repository; this package implements a real,
// internally-consistent binary encoding so the core has something concrete
// to encode into and decode from end-to-end, without claiming to be a
// byte-accurate implementation of the standard's framing.
package bvlc

import "fmt"

// Function identifies the BVLC-SC message kind.
type Function uint8

const (
	FunctionResult                    Function = 0x00
	FunctionEncapsulatedNPDU          Function = 0x01
	FunctionAddressResolution         Function = 0x02
	FunctionAddressResolutionACK      Function = 0x03
	FunctionAdvertisement             Function = 0x04
	FunctionAdvertisementSolicitation Function = 0x05
	FunctionConnectRequest            Function = 0x06
	FunctionConnectAccept             Function = 0x07
	FunctionDisconnectRequest         Function = 0x08
	FunctionDisconnectACK             Function = 0x09
	FunctionHeartbeatRequest          Function = 0x0A
	FunctionHeartbeatACK              Function = 0x0B
)

func (f Function) String() string {
	switch f {
	case FunctionResult:
		return "RESULT"
	case FunctionEncapsulatedNPDU:
		return "ENCAPSULATED_NPDU"
	case FunctionAddressResolution:
		return "ADDRESS_RESOLUTION"
	case FunctionAddressResolutionACK:
		return "ADDRESS_RESOLUTION_ACK"
	case FunctionAdvertisement:
		return "ADVERTISEMENT"
	case FunctionAdvertisementSolicitation:
		return "ADVERTISEMENT_SOLICITATION"
	case FunctionConnectRequest:
		return "CONNECT_REQUEST"
	case FunctionConnectAccept:
		return "CONNECT_ACCEPT"
	case FunctionDisconnectRequest:
		return "DISCONNECT_REQUEST"
	case FunctionDisconnectACK:
		return "DISCONNECT_ACK"
	case FunctionHeartbeatRequest:
		return "HEARTBEAT_REQUEST"
	case FunctionHeartbeatACK:
		return "HEARTBEAT_ACK"
	default:
		return fmt.Sprintf("Function(0x%02x)", uint8(f))
	}
}

// ErrorClass/ErrorCode: the subset of BACnet error enumerations the node
// core actually emits.
type ErrorClass uint8

const ErrorClassCommunication ErrorClass = 8

type ErrorCode uint8

const (
	ErrorCodeHeaderNotUnderstood                  ErrorCode = 159
	ErrorCodeOptionalFunctionalityNotSupported     ErrorCode = 45
)

// OptionType identifies a destination/data option header.
type OptionType uint8

const (
	// OptionTypeHeaderMarker carries the function/option marker of the
	// header element a must-understand NAK is complaining about.
	OptionTypeHeaderMarker OptionType = 0x01
)

// MustUnderstandFlag is OR'd into an encoded option's type byte to mark it
// must-understand.
const MustUnderstandFlag uint8 = 0x80

// Option is one destination option attached to a header.
type Option struct {
	Type           OptionType
	MustUnderstand bool
	Data           []byte
}

// DirectConnectSupport is the capability byte an ADVERTISEMENT reports
// (the ADVERTISEMENT_SOLICITATION reply).
type DirectConnectSupport uint8

const (
	DirectConnectionsAcceptSupported   DirectConnectSupport = 1
	DirectConnectionsAcceptUnsupported DirectConnectSupport = 0
)

// Header is the common envelope of every BVLC-SC message.
type Header struct {
	Function    Function
	MessageID   uint16
	Origin      *[6]byte // present iff the message carries an origin VMAC
	Dest        *[6]byte // present iff the message carries a destination VMAC
	DestOptions []Option
}

// ResultPayload is the decoded body of a RESULT (NAK/ACK) message.
type ResultPayload struct {
	RespondingFunction Function
	IsNAK              bool
	ErrorClass         ErrorClass
	ErrorCode          ErrorCode
	ErrorDetails       []byte
}

// AddressResolutionACKPayload is the decoded body of an
// ADDRESS_RESOLUTION_ACK message: a raw space-separated URI list, parsed by
// the node package (see node package doc for the separator-semantics
// decision this resolves).
type AddressResolutionACKPayload struct {
	RawURIs []byte
}

// AdvertisementPayload is the decoded body of an ADVERTISEMENT message.
type AdvertisementPayload struct {
	HubConnectorStatus  uint8
	DirectConnectSupport DirectConnectSupport
	MaxBVLCLen          uint16
	MaxNPDULen          uint16
}

// Message is a fully decoded BVLC-SC PDU.
type Message struct {
	Header  Header
	Payload any // one of *ResultPayload, *AddressResolutionACKPayload, *AdvertisementPayload, or []byte for ENCAPSULATED_NPDU/ADDRESS_RESOLUTION/ADVERTISEMENT_SOLICITATION (empty)
}

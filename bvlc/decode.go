package bvlc

import (
	"encoding/binary"
	"fmt"
)

// Decode parses a BVLC-SC PDU previously produced by one of the Encode*
// functions (or, for ENCAPSULATED_NPDU, by the out-of-scope datalink
// adapter that owns framing NPDUs). Returns an error on truncated input;
// callers (the node package) treat decode failure as an unrecognized PDU
// and drop it.
func Decode(buf []byte) (*Message, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("bvlc: short header (%d bytes)", len(buf))
	}
	fn := Function(buf[0])
	flags := buf[1]
	messageID := binary.BigEndian.Uint16(buf[2:4])
	n := 4

	var dest, origin *[6]byte
	if flags&flagDestPresent != 0 {
		if len(buf) < n+6 {
			return nil, fmt.Errorf("bvlc: truncated dest VMAC")
		}
		var v [6]byte
		copy(v[:], buf[n:n+6])
		dest = &v
		n += 6
	}
	if flags&flagOriginPresent != 0 {
		if len(buf) < n+6 {
			return nil, fmt.Errorf("bvlc: truncated origin VMAC")
		}
		var v [6]byte
		copy(v[:], buf[n:n+6])
		origin = &v
		n += 6
	}

	var opts []Option
	if flags&flagOptionsPresent != 0 {
		if len(buf) < n+1 {
			return nil, fmt.Errorf("bvlc: truncated option count")
		}
		count := int(buf[n])
		n++
		opts = make([]Option, 0, count)
		for i := 0; i < count; i++ {
			if len(buf) < n+2 {
				return nil, fmt.Errorf("bvlc: truncated option header")
			}
			typeByte := buf[n]
			n++
			dataLen := int(buf[n])
			n++
			if len(buf) < n+dataLen {
				return nil, fmt.Errorf("bvlc: truncated option data")
			}
			opts = append(opts, Option{
				Type:           OptionType(typeByte &^ MustUnderstandFlag),
				MustUnderstand: typeByte&MustUnderstandFlag != 0,
				Data:           append([]byte(nil), buf[n:n+dataLen]...),
			})
			n += dataLen
		}
	}

	hdr := Header{
		Function:    fn,
		MessageID:   messageID,
		Origin:      origin,
		Dest:        dest,
		DestOptions: opts,
	}
	body := buf[n:]

	switch fn {
	case FunctionResult:
		return decodeResult(hdr, body)
	case FunctionAddressResolutionACK:
		return &Message{Header: hdr, Payload: &AddressResolutionACKPayload{RawURIs: append([]byte(nil), body...)}}, nil
	case FunctionAdvertisement:
		return decodeAdvertisement(hdr, body)
	case FunctionEncapsulatedNPDU, FunctionAddressResolution, FunctionAdvertisementSolicitation:
		return &Message{Header: hdr, Payload: append([]byte(nil), body...)}, nil
	default:
		return &Message{Header: hdr, Payload: append([]byte(nil), body...)}, nil
	}
}

func decodeResult(hdr Header, body []byte) (*Message, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("bvlc: truncated RESULT body")
	}
	p := &ResultPayload{RespondingFunction: Function(body[0])}
	isNAK := body[1] != 0
	p.IsNAK = isNAK
	if isNAK {
		if len(body) < 4 {
			return nil, fmt.Errorf("bvlc: truncated RESULT NAK body")
		}
		p.ErrorClass = ErrorClass(body[2])
		p.ErrorCode = ErrorCode(body[3])
		p.ErrorDetails = append([]byte(nil), body[4:]...)
	}
	return &Message{Header: hdr, Payload: p}, nil
}

func decodeAdvertisement(hdr Header, body []byte) (*Message, error) {
	if len(body) < 6 {
		return nil, fmt.Errorf("bvlc: truncated ADVERTISEMENT body")
	}
	p := &AdvertisementPayload{
		HubConnectorStatus:   body[0],
		DirectConnectSupport: DirectConnectSupport(body[1]),
		MaxBVLCLen:           binary.BigEndian.Uint16(body[2:4]),
		MaxNPDULen:           binary.BigEndian.Uint16(body[4:6]),
	}
	return &Message{Header: hdr, Payload: p}, nil
}

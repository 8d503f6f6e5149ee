package bvlc

import "encoding/binary"

const (
	flagDestPresent    = 1 << 0
	flagOriginPresent  = 1 << 1
	flagOptionsPresent = 1 << 2
)

// encodeHeader writes fn, messageID, origin/dest VMACs and opts into buf,
// returning the number of bytes written, or 0 if buf is too small
// (encoding failures with a zero bufsize cause a silent drop).
func encodeHeader(buf []byte, fn Function, messageID uint16, origin, dest *[6]byte, opts []Option) int {
	need := 1 + 1 + 2
	if origin != nil {
		need += 6
	}
	if dest != nil {
		need += 6
	}
	if len(opts) > 0 {
		need += 1 // option count
		for _, o := range opts {
			need += 2 + len(o.Data)
		}
	}
	if len(buf) < need {
		return 0
	}

	n := 0
	buf[n] = byte(fn)
	n++

	var flags uint8
	if dest != nil {
		flags |= flagDestPresent
	}
	if origin != nil {
		flags |= flagOriginPresent
	}
	if len(opts) > 0 {
		flags |= flagOptionsPresent
	}
	buf[n] = flags
	n++

	binary.BigEndian.PutUint16(buf[n:], messageID)
	n += 2

	if dest != nil {
		n += copy(buf[n:], dest[:])
	}
	if origin != nil {
		n += copy(buf[n:], origin[:])
	}
	if len(opts) > 0 {
		buf[n] = uint8(len(opts))
		n++
		for _, o := range opts {
			typeByte := uint8(o.Type)
			if o.MustUnderstand {
				typeByte |= MustUnderstandFlag
			}
			buf[n] = typeByte
			n++
			buf[n] = uint8(len(o.Data))
			n++
			n += copy(buf[n:], o.Data)
		}
	}
	return n
}

// EncodeResult encodes a RESULT message reporting success/NAK for
// respondingFunction, addressed to dest from origin.
func EncodeResult(buf []byte, messageID uint16, origin, dest [6]byte, respondingFunction Function, isNAK bool, errClass ErrorClass, errCode ErrorCode, errDetails []byte) int {
	bodyLen := 1 + 1 // respondingFunction + isNAK flag
	if isNAK {
		bodyLen += 2 + len(errDetails)
	}
	n := encodeHeader(buf, FunctionResult, messageID, &origin, &dest, nil)
	if n == 0 || len(buf) < n+bodyLen {
		return 0
	}
	buf[n] = byte(respondingFunction)
	n++
	if isNAK {
		buf[n] = 1
		n++
		buf[n] = byte(errClass)
		n++
		buf[n] = byte(errCode)
		n++
		n += copy(buf[n:], errDetails)
	} else {
		buf[n] = 0
		n++
	}
	return n
}

// EncodeAdvertisement encodes an ADVERTISEMENT message carrying the
// hub-connector's current status, the node's direct-connections
// capability, and the configured max BVLC/NPDU lengths (the
// ADVERTISEMENT_SOLICITATION reply).
func EncodeAdvertisement(buf []byte, messageID uint16, origin, dest [6]byte, hubConnectorStatus uint8, directConnectSupport DirectConnectSupport, maxBVLCLen, maxNPDULen uint16) int {
	n := encodeHeader(buf, FunctionAdvertisement, messageID, &origin, &dest, nil)
	if n == 0 || len(buf) < n+6 {
		return 0
	}
	buf[n] = hubConnectorStatus
	n++
	buf[n] = byte(directConnectSupport)
	n++
	binary.BigEndian.PutUint16(buf[n:], maxBVLCLen)
	n += 2
	binary.BigEndian.PutUint16(buf[n:], maxNPDULen)
	n += 2
	return n
}

// EncodeAddressResolution encodes an ADDRESS_RESOLUTION request.
func EncodeAddressResolution(buf []byte, messageID uint16, origin, dest [6]byte) int {
	return encodeHeader(buf, FunctionAddressResolution, messageID, &origin, &dest, nil)
}

// EncodeAddressResolutionACK encodes an ADDRESS_RESOLUTION_ACK carrying the
// locally configured accept-URIs, space-separated.
func EncodeAddressResolutionACK(buf []byte, messageID uint16, origin, dest [6]byte, uris []byte) int {
	n := encodeHeader(buf, FunctionAddressResolutionACK, messageID, &origin, &dest, nil)
	if n == 0 || len(buf) < n+len(uris) {
		return 0
	}
	n += copy(buf[n:], uris)
	return n
}

// Package bacsc implements the client-side and peer-side connection
// management core of BACnet Secure Connect (BACnet/SC): the hub-connector,
// hub-function and node-switch state machines, composed behind a single
// Node aggregate, plus the BVLC-SC control-message dispatch that ties them
// together.
//
// The wire codec, the TLS+WebSocket transport, the BACnet application model
// and the CLI/config loader are external collaborators; only their
// interfaces are consumed here (see the bvlc, socketctx and transport
// packages).
package bacsc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// VMACSize is the length in octets of a BACnet/SC link-layer address.
const VMACSize = 6

// VMAC is a 6-octet node identifier used as the link-layer address on the
// BACnet/SC overlay. It must be unique among active nodes; a collision is a
// recoverable fatal condition (see Kind DuplicateIdentity).
type VMAC [VMACSize]byte

// String renders the VMAC as colon-separated hex, e.g. "01:02:03:04:05:06".
func (v VMAC) String() string {
	buf := make([]byte, 0, VMACSize*3-1)
	for i, b := range v {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, []byte(hex.EncodeToString([]byte{b}))...)
	}
	return string(buf)
}

// IsZero reports whether v is the all-zero VMAC (never a valid assigned
// address).
func (v VMAC) IsZero() bool {
	return v == VMAC{}
}

// NewRandomVMAC draws a fresh random VMAC value. Used both for initial node
// provisioning and for the duplicate-VMAC restart protocol, where a
// collision forces regeneration of the local identity.
func NewRandomVMAC() (VMAC, error) {
	var v VMAC
	if _, err := rand.Read(v[:]); err != nil {
		return VMAC{}, fmt.Errorf("bacsc: generate random VMAC: %w", err)
	}
	return v, nil
}

// ParseVMAC parses the colon-separated hex form String renders, e.g.
// "01:02:03:04:05:06", for configuration sources (flags, config files)
// that need to accept a fixed VMAC rather than always generating one.
func ParseVMAC(s string) (VMAC, error) {
	parts := strings.Split(s, ":")
	if len(parts) != VMACSize {
		return VMAC{}, fmt.Errorf("bacsc: parse VMAC %q: want %d colon-separated octets, got %d", s, VMACSize, len(parts))
	}
	var v VMAC
	for i, p := range parts {
		b, err := hex.DecodeString(p)
		if err != nil || len(b) != 1 {
			return VMAC{}, fmt.Errorf("bacsc: parse VMAC %q: invalid octet %q", s, p)
		}
		v[i] = b[0]
	}
	return v, nil
}

// UUID is a 16-octet stable node identity, independent of VMAC.
type UUID [16]byte

// String renders the UUID in canonical 8-4-4-4-12 form.
func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// NewRandomUUID generates a fresh random UUID (version 4).
func NewRandomUUID() (UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return UUID{}, fmt.Errorf("bacsc: generate random UUID: %w", err)
	}
	return UUID(id), nil
}

// ParseUUID parses a canonical UUID string.
func ParseUUID(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("bacsc: parse UUID %q: %w", s, err)
	}
	return UUID(id), nil
}

// URL is a bounded wss:// endpoint address, validated against a
// configured maximum length (BSC_WSURL_MAX_LEN in spec terms).
type URL string

// ParseURL validates s as a non-empty wss:// URL no longer than maxLen
// octets, returning BadParameter on violation.
func ParseURL(s string, maxLen int) (URL, error) {
	if s == "" {
		return "", newError(KindBadParameter, "empty URL", nil)
	}
	if len(s) > maxLen {
		return "", newError(KindBadParameter, fmt.Sprintf("URL exceeds max length %d", maxLen), nil)
	}
	if len(s) < len("wss://") || s[:len("wss://")] != "wss://" {
		return "", newError(KindBadParameter, fmt.Sprintf("URL %q is not a wss:// endpoint", s), nil)
	}
	return URL(s), nil
}

package bvlc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeAddressResolutionACK(t *testing.T) {
	origin := [6]byte{1, 2, 3, 4, 5, 6}
	dest := [6]byte{9, 9, 9, 9, 9, 9}
	buf := make([]byte, 256)
	n := EncodeAddressResolutionACK(buf, 42, origin, dest, []byte("wss://a wss://bbb"))
	require.Greater(t, n, 0)

	msg, err := Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, FunctionAddressResolutionACK, msg.Header.Function)
	require.Equal(t, uint16(42), msg.Header.MessageID)
	require.NotNil(t, msg.Header.Origin)
	require.Equal(t, origin, *msg.Header.Origin)
	require.NotNil(t, msg.Header.Dest)
	require.Equal(t, dest, *msg.Header.Dest)
	payload, ok := msg.Payload.(*AddressResolutionACKPayload)
	require.True(t, ok)
	require.Equal(t, "wss://a wss://bbb", string(payload.RawURIs))
}

func TestEncodeResultNAK(t *testing.T) {
	origin := [6]byte{1, 1, 1, 1, 1, 1}
	dest := [6]byte{2, 2, 2, 2, 2, 2}
	buf := make([]byte, 256)
	n := EncodeResult(buf, 7, origin, dest, FunctionAddressResolution, true, ErrorClassCommunication, ErrorCodeOptionalFunctionalityNotSupported, []byte("direct connections are not supported"))
	require.Greater(t, n, 0)

	msg, err := Decode(buf[:n])
	require.NoError(t, err)
	payload, ok := msg.Payload.(*ResultPayload)
	require.True(t, ok)
	require.True(t, payload.IsNAK)
	require.Equal(t, FunctionAddressResolution, payload.RespondingFunction)
	require.Equal(t, ErrorCodeOptionalFunctionalityNotSupported, payload.ErrorCode)
	require.Equal(t, "direct connections are not supported", string(payload.ErrorDetails))
}

func TestEncodeResultTooSmallBufferDrops(t *testing.T) {
	origin := [6]byte{1, 1, 1, 1, 1, 1}
	dest := [6]byte{2, 2, 2, 2, 2, 2}
	buf := make([]byte, 2)
	n := EncodeResult(buf, 7, origin, dest, FunctionAddressResolution, true, ErrorClassCommunication, ErrorCodeHeaderNotUnderstood, nil)
	require.Equal(t, 0, n)
}

func TestEncodeAdvertisementRoundTrip(t *testing.T) {
	origin := [6]byte{1, 1, 1, 1, 1, 1}
	dest := [6]byte{2, 2, 2, 2, 2, 2}
	buf := make([]byte, 256)
	n := EncodeAdvertisement(buf, 5, origin, dest, 1, DirectConnectionsAcceptSupported, 1500, 1400)
	require.Greater(t, n, 0)

	msg, err := Decode(buf[:n])
	require.NoError(t, err)
	payload, ok := msg.Payload.(*AdvertisementPayload)
	require.True(t, ok)
	require.Equal(t, uint16(1500), payload.MaxBVLCLen)
	require.Equal(t, uint16(1400), payload.MaxNPDULen)
	require.Equal(t, DirectConnectionsAcceptSupported, payload.DirectConnectSupport)
}

func TestDecodeShortHeaderFails(t *testing.T) {
	_, err := Decode([]byte{0x01})
	require.Error(t, err)
}

package asyncsnmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Value{
		NewInteger(-42),
		NewOctetString([]byte("hello")),
		NewNull(),
		NewObjectIdentifier(NewOID(1, 3, 6, 1, 2, 1, 1, 1, 0)),
		NewIPAddress([4]byte{192, 0, 2, 1}),
		NewCounter32(4294967295),
		NewGauge32(1000),
		NewTimeTicks(123456),
		NewOpaque([]byte{0xde, 0xad, 0xbe, 0xef}),
		NewCounter64(18446744073709551615),
		NewNoSuchObject(),
		NewNoSuchInstance(),
		NewEndOfMibView(),
	}
	for _, v := range cases {
		buf := NewEncodeBuf()
		v.Encode(buf)
		got, err := DecodeValue(NewDecoder(buf.Finish()))
		require.NoErrorf(t, err, "decode of %v", v)
		assert.Truef(t, got.Equal(v), "round trip mismatch: encoded %v, decoded %v", v, got)
	}
}

func TestValueIsException(t *testing.T) {
	exceptions := []Value{NewNoSuchObject(), NewNoSuchInstance(), NewEndOfMibView()}
	for _, v := range exceptions {
		assert.Truef(t, v.IsException(), "expected %v to be an exception value", v)
	}
	assert.False(t, NewInteger(1).IsException(), "expected a plain integer not to be an exception value")
}

func TestValueEqualDistinguishesKindAndPayload(t *testing.T) {
	assert.False(t, NewInteger(1).Equal(NewInteger(2)), "expected different integer payloads to compare unequal")
	assert.False(t, NewInteger(1).Equal(NewCounter32(1)), "expected different kinds to compare unequal even with the same numeric value")
	assert.True(t, NewOctetString([]byte("x")).Equal(NewOctetString([]byte("x"))), "expected equal octet strings to compare equal")
}

func TestValueStringFormatsKnownKinds(t *testing.T) {
	assert.Equal(t, "7", NewInteger(7).String())
	assert.Equal(t, "endOfMibView", NewEndOfMibView().String())
}

func TestDecodeValuePreservesUnknownTag(t *testing.T) {
	buf := NewEncodeBuf()
	buf.PushBytes([]byte{0x01, 0x02, 0x03})
	buf.PushLength(3)
	buf.PushTag(0x9f)
	got, err := DecodeValue(NewDecoder(buf.Finish()))
	require.NoError(t, err)
	require.Equal(t, ValueUnknown, got.Kind)
	assert.EqualValues(t, 0x9f, got.UnknownTag)
}

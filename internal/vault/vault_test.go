package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New("test-secret")
	require.NoError(t, err)
	return v
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := newVault(t)
	x := "4000 1234 5678 9010"

	enc, err := v.Encode(x)
	require.NoError(t, err)
	assert.True(t, IsEncoded(enc))
	assert.NotContains(t, enc, "4000")
	assert.NotContains(t, enc, "9010")

	once := v.Decode(enc)
	assert.Equal(t, x, once)
	assert.Equal(t, once, v.Decode(once))
}

func TestEncodeIsRandomized(t *testing.T) {
	v := newVault(t)
	a, err := v.Encode("4000123456789010")
	require.NoError(t, err)
	b, err := v.Encode("4000123456789010")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, v.Decode(a), v.Decode(b))
}

func TestEncodeLeavesCiphertextAlone(t *testing.T) {
	v := newVault(t)
	enc, err := v.Encode("4000123456789010")
	require.NoError(t, err)
	again, err := v.Encode(enc)
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestDecodeIsTolerant(t *testing.T) {
	v := newVault(t)
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "legacy digits", input: "4000123456789010", want: "4000 1234 5678 9010"},
		{name: "legacy masked", input: "**** 5678", want: "**** 5678"},
		{name: "empty", input: "", want: ""},
		{name: "bad base64", input: "cv1:!!!", want: "cv1:!!!"},
		{name: "too short", input: "cv1:AAAA", want: "cv1:AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Decode(tt.input))
		})
	}
}

func TestDecodeWithWrongKeyReturnsInput(t *testing.T) {
	enc, err := newVault(t).Encode("4000123456789010")
	require.NoError(t, err)
	other, err := New("another-secret")
	require.NoError(t, err)
	assert.Equal(t, enc, other.Decode(enc))
}

func TestDecodeTamperedReturnsInput(t *testing.T) {
	v := newVault(t)
	enc, err := v.Encode("4000123456789010")
	require.NoError(t, err)
	mid := len(enc) / 2
	swap := byte('A')
	if enc[mid] == 'A' {
		swap = 'B'
	}
	tampered := enc[:mid] + string(swap) + enc[mid+1:]
	assert.Equal(t, tampered, v.Decode(tampered))
}

func TestFingerprint(t *testing.T) {
	v := newVault(t)
	assert.Equal(t, v.Fingerprint("4000 1234 5678 9010"), v.Fingerprint("4000123456789010"))
	assert.NotEqual(t, v.Fingerprint("4000123456789010"), v.Fingerprint("4000123456789011"))
	assert.Len(t, v.Fingerprint("4000123456789010"), 64)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "**** **** **** 9010", Mask("4000 1234 5678 9010"))
	assert.True(t, strings.HasPrefix(Mask("12"), "****"))
}

func TestNewRejectsEmptySecret(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

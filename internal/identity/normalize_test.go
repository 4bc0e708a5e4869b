package identity

import (
	"testing"

	"fbank/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"77011234567", "77011234567"},
		{"+7 (701) 123-45-67", "77011234567"},
		{"7011234567", "77011234567"},
		{"87011234567", "77011234567"},
		{"8 701 123 45 67", "77011234567"},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, in := range []string{"", "12345", "97011234567", "770112345678", "abc"} {
		_, err := NormalizePhone(in)
		assert.True(t, domain.IsKind(err, domain.KindInvalidInput), in)
	}
}

func TestNormalizeLogin(t *testing.T) {
	got, err := NormalizeLogin("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	got, err = NormalizeLogin("8 (701) 123-45-67")
	require.NoError(t, err)
	assert.Equal(t, "77011234567", got)

	for _, in := range []string{"", "@example.com", "alice@", "al ice@x.kz", "alice"} {
		_, err := NormalizeLogin(in)
		assert.True(t, domain.IsKind(err, domain.KindInvalidInput), in)
	}
}

package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "idgraph/pkg/domain-errors"
)

func TestParseTenantID(t *testing.T) {
	valid := uuid.New()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uuid", valid.String(), false},
		{"uppercase uuid", strings.ToUpper(valid.String()), false},
		{"empty", "", true},
		{"nil uuid", uuid.Nil.String(), true},
		{"not a uuid", "tenant-1", true},
		{"null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"zero-width space", "550e8400-e29b-41d4-a716-446655440000\u200b", true},
		{"oversized", strings.Repeat("a", 1000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTenantID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				assert.True(t, got.IsNil())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid.String(), got.String())
		})
	}
}

func TestParseSourceEventID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SourceEventID
		wantErr bool
	}{
		{"opaque id", "evt_01HZX3", "evt_01HZX3", false},
		{"trims whitespace", "  evt-1 \n", "evt-1", false},
		{"unicode allowed", "évènement-1", "évènement-1", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"control character", "evt\x001", "", true},
		{"invalid utf8", "evt\xff", "", true},
		{"too long", strings.Repeat("e", 256), "", true},
		{"max length", strings.Repeat("e", 255), SourceEventID(strings.Repeat("e", 255)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceEventID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Typed IDs built from the same UUID must not be interchangeable at compile
// time, but their string forms stay identical for storage.
func TestTypedIDsShareWireFormat(t *testing.T) {
	raw := uuid.New()
	assert.Equal(t, PersonID(raw).String(), CompanyID(raw).String())
	assert.Equal(t, VisitorID(raw).String(), raw.String())
}

func TestTypedIDTextRoundTrip(t *testing.T) {
	want := NewVisitorID()
	b, err := want.MarshalText()
	require.NoError(t, err)

	var got VisitorID
	require.NoError(t, got.UnmarshalText(b))
	assert.Equal(t, want, got)

	var bad CompanyID
	assert.Error(t, bad.UnmarshalText([]byte("nope")))
}

func TestParseMatchType(t *testing.T) {
	m, err := ParseMatchType("email_exact")
	require.NoError(t, err)
	assert.Equal(t, 95, m.BaseConfidence())

	_, err = ParseMatchType("none")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseMatchType("")
	assert.Error(t, err)
}

func TestMatchTypePriorityOrder(t *testing.T) {
	ordered := []MatchType{
		MatchTypeManualOverride,
		MatchTypeEmailExact,
		MatchTypeFingerprintMatch,
		MatchTypeDomainCompany,
		MatchTypeIPHeuristic,
		MatchTypeNone,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Priority(), ordered[i].Priority(), "%s before %s", ordered[i-1], ordered[i])
		assert.GreaterOrEqual(t, ordered[i-1].BaseConfidence(), ordered[i].BaseConfidence())
	}
}

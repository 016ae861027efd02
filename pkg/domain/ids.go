package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "idgraph/pkg/domain-errors"
)

// Typed identifiers keep tenant, visitor, person and company IDs from being
// swapped at call sites. Construct them with the Parse* functions at trust
// boundaries; direct conversion from uuid.UUID is reserved for code that
// generates fresh IDs.
type (
	TenantID  uuid.UUID
	VisitorID uuid.UUID
	PersonID  uuid.UUID
	CompanyID uuid.UUID
	EntryID   uuid.UUID
)

// SourceEventID is the ingestion pipeline's opaque identifier for a raw event.
// It is the replay-safety key together with the tenant.
type SourceEventID string

const maxSourceEventIDLen = 255

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	return u, nil
}

func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID("tenant id", s)
	return TenantID(u), err
}

func ParseVisitorID(s string) (VisitorID, error) {
	u, err := parseUUID("visitor id", s)
	return VisitorID(u), err
}

func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID("person id", s)
	return PersonID(u), err
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID("company id", s)
	return CompanyID(u), err
}

// ParseSourceEventID validates an ingestion event id: non-empty after
// trimming, valid UTF-8, printable, at most 255 bytes.
func ParseSourceEventID(s string) (SourceEventID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "source event id is required")
	}
	if len(s) > maxSourceEventIDLen || !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid source event id")
	}
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid source event id")
		}
	}
	return SourceEventID(s), nil
}

func (id TenantID) String() string  { return uuid.UUID(id).String() }
func (id VisitorID) String() string { return uuid.UUID(id).String() }
func (id PersonID) String() string  { return uuid.UUID(id).String() }
func (id CompanyID) String() string { return uuid.UUID(id).String() }
func (id EntryID) String() string   { return uuid.UUID(id).String() }

func (id SourceEventID) String() string { return string(id) }

func (id TenantID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id VisitorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs render as plain UUID strings in JSON.
func (id TenantID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id VisitorID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PersonID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id CompanyID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id EntryID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }

func (id *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = TenantID(u)
	return err
}

func (id *VisitorID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = VisitorID(u)
	return err
}

func (id *PersonID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = PersonID(u)
	return err
}

func (id *CompanyID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = CompanyID(u)
	return err
}

func (id *EntryID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = EntryID(u)
	return err
}

// NewVisitorID and friends generate fresh random identifiers.
func NewVisitorID() VisitorID { return VisitorID(uuid.New()) }
func NewEntryID() EntryID     { return EntryID(uuid.New()) }

package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "dealroom/pkg/domain-errors"
)

// Typed identifiers. Each is a distinct named type over uuid.UUID so the compiler
// refuses to pass a ListingID where a UserID is expected.
type (
	UserID         uuid.UUID
	ListingID      uuid.UUID
	NDARequestID   uuid.UUID
	TransactionID  uuid.UUID
	LOIID          uuid.UUID
	MilestoneID    uuid.UUID
	ActivityID     uuid.UUID
	DDProjectID    uuid.UUID
	DDTaskID       uuid.UUID
	NotificationID uuid.UUID
	MessageID      uuid.UUID
)

const maxIDLength = 36

// parseUUID enforces the shared parsing invariant: ids are valid, non-nil UUIDs.
func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	if len(s) > maxIDLength {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID("user id", s)
	return UserID(u), err
}

func ParseListingID(s string) (ListingID, error) {
	u, err := parseUUID("listing id", s)
	return ListingID(u), err
}

func ParseNDARequestID(s string) (NDARequestID, error) {
	u, err := parseUUID("nda request id", s)
	return NDARequestID(u), err
}

func ParseTransactionID(s string) (TransactionID, error) {
	u, err := parseUUID("transaction id", s)
	return TransactionID(u), err
}

func ParseLOIID(s string) (LOIID, error) {
	u, err := parseUUID("loi id", s)
	return LOIID(u), err
}

func ParseMilestoneID(s string) (MilestoneID, error) {
	u, err := parseUUID("milestone id", s)
	return MilestoneID(u), err
}

func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID("notification id", s)
	return NotificationID(u), err
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ListingID) String() string      { return uuid.UUID(id).String() }
func (id NDARequestID) String() string   { return uuid.UUID(id).String() }
func (id TransactionID) String() string  { return uuid.UUID(id).String() }
func (id LOIID) String() string          { return uuid.UUID(id).String() }
func (id MilestoneID) String() string    { return uuid.UUID(id).String() }
func (id ActivityID) String() string     { return uuid.UUID(id).String() }
func (id DDProjectID) String() string    { return uuid.UUID(id).String() }
func (id DDTaskID) String() string       { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ListingID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NDARequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id LOIID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id MilestoneID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DDProjectID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps ids as canonical strings in JSON payloads.

func (id UserID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id ListingID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id NDARequestID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id TransactionID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id LOIID) MarshalText() ([]byte, error)          { return uuid.UUID(id).MarshalText() }
func (id MilestoneID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id ActivityID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DDProjectID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id DDTaskID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id MessageID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ListingID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NDARequestID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TransactionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *LOIID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MilestoneID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ActivityID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DDProjectID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DDTaskID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }

package uid

import "github.com/google/uuid"

var (
	_ StringID = (*UUID)(nil)
	_ NumberID = (*Snowflake)(nil)
)

// UUID generates time-ordered RFC 9562 version 7 UUID strings.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string, falling back to a random v4 when the
// v7 generator cannot read the clock sequence.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

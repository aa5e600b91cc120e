package booking

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// TicketIDLength is the length of ids produced by NewTicketID.
const TicketIDLength = 22

// NewTicketID returns a random 22-character URL-safe ticket id
// (the 16 bytes of a v4 UUID, base64url without padding).
func NewTicketID() TicketID {
	id := uuid.New()
	return TicketID(base64.RawURLEncoding.EncodeToString(id[:]))
}

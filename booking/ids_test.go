package booking_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/ticket-engine/booking"
)

func TestNewTicketID(t *testing.T) {
	urlSafe := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	seen := make(map[booking.TicketID]bool)
	for i := 0; i < 1000; i++ {
		id := booking.NewTicketID()
		assert.Len(t, string(id), booking.TicketIDLength)
		assert.Regexp(t, urlSafe, string(id))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

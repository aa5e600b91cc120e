package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ticket-engine/booking"
)

func fullShift() booking.ShiftAvailability {
	return booking.ShiftAvailability{AllBooked: true, BookedSeats: booking.SeatMap{true, true, true, true, true}}
}

func TestTransition_BooksSeatOnEmptyDate(t *testing.T) {
	next, err := booking.Transition(booking.EmptyDateAvailability(), "2030-01-10", booking.ShiftAfternoon, 5)
	require.NoError(t, err)

	assert.Equal(t, booking.SeatMap{false, false, false, false, true}, next.Shifts.Afternoon.BookedSeats)
	assert.Equal(t, booking.SeatMap{}, next.Shifts.Morning.BookedSeats)
	assert.False(t, next.AllBooked)
}

func TestTransition_DoesNotModifyInput(t *testing.T) {
	current := booking.EmptyDateAvailability()
	_, err := booking.Transition(current, "2030-01-10", booking.ShiftMorning, 1)
	require.NoError(t, err)
	assert.Equal(t, booking.EmptyDateAvailability(), current)
}

func TestTransition_ConflictOrder(t *testing.T) {
	// The coarsest conflict wins: a full date reports "date" even for a
	// seat that is also taken in a full shift.
	fullDate := booking.DateAvailability{
		AllBooked: true,
		Shifts:    booking.ShiftSet{Morning: fullShift(), Afternoon: fullShift()},
	}
	fullMorning := booking.DateAvailability{
		Shifts: booking.ShiftSet{Morning: fullShift()},
	}
	seatTaken := booking.DateAvailability{
		Shifts: booking.ShiftSet{Afternoon: booking.ShiftAvailability{BookedSeats: booking.SeatMap{false, true}}},
	}

	tests := []struct {
		name    string
		current booking.DateAvailability
		shift   booking.Shift
		seat    booking.Seat
		want    booking.ConflictKind
		wantErr error
	}{
		{"full date", fullDate, booking.ShiftMorning, 1, booking.ConflictDate, booking.ErrDateFullyBooked},
		{"full shift", fullMorning, booking.ShiftMorning, 3, booking.ConflictShift, booking.ErrShiftFullyBooked},
		{"seat taken", seatTaken, booking.ShiftAfternoon, 2, booking.ConflictSeat, booking.ErrSeatAlreadyBooked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := booking.Transition(tt.current, "2030-01-10", tt.shift, tt.seat)
			require.ErrorIs(t, err, tt.wantErr)

			var conflict *booking.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.want, conflict.Kind)
			assert.Equal(t, "2030-01-10", conflict.Date)
			assert.Equal(t, tt.seat, conflict.Seat)
		})
	}
}

func TestTransition_FreeSeatInOtherShiftOfFullShift(t *testing.T) {
	current := booking.DateAvailability{Shifts: booking.ShiftSet{Morning: fullShift()}}

	next, err := booking.Transition(current, "2030-01-10", booking.ShiftAfternoon, 1)
	require.NoError(t, err)
	assert.True(t, next.Shifts.Morning.AllBooked)
	assert.False(t, next.AllBooked)
}

func TestTransition_LastSeatOfDateFlipsDateRollup(t *testing.T) {
	current := booking.DateAvailability{
		Shifts: booking.ShiftSet{
			Morning:   fullShift(),
			Afternoon: booking.ShiftAvailability{BookedSeats: booking.SeatMap{true, true, true, true, false}},
		},
	}

	next, err := booking.Transition(current, "2030-01-10", booking.ShiftAfternoon, 5)
	require.NoError(t, err)
	assert.True(t, next.Shifts.Afternoon.AllBooked)
	assert.True(t, next.AllBooked)
}

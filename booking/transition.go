package booking

// Transition applies a booking of (shift, seat) to the current availability
// of a date and returns the new availability with rollups recomputed.
//
// Conflicts are checked coarsest first: date, then shift, then seat. A date
// that is not in the route document yet is passed as EmptyDateAvailability().
// The input is never modified.
func Transition(current DateAvailability, date string, shift Shift, seat Seat) (DateAvailability, error) {
	if current.AllBooked {
		return DateAvailability{}, &ConflictError{Kind: ConflictDate, Date: date, Shift: shift, Seat: seat}
	}
	if current.Shifts.Get(shift).AllBooked {
		return DateAvailability{}, &ConflictError{Kind: ConflictShift, Date: date, Shift: shift, Seat: seat}
	}
	if current.Shifts.Get(shift).BookedSeats.Booked(seat) {
		return DateAvailability{}, &ConflictError{Kind: ConflictSeat, Date: date, Shift: shift, Seat: seat}
	}

	next := current
	next.Shifts.ref(shift).BookedSeats.Book(seat)
	return RecomputeRollups(next), nil
}

/*
availability.go - Availability document model and rollup rules

PURPOSE:
  Seat flags are the only independent state in a route document. The two
  "allBooked" flags are derived from them and recomputed after every
  mutation:

    ShiftAvailability.AllBooked == all 5 seats booked
    DateAvailability.AllBooked  == both shifts AllBooked

  Recomputation is pure and idempotent, so it is safe to apply to documents
  read back from any store, including ones written by older clients.

SEE ALSO:
  - transition.go: Applies a booking, then recomputes
*/
package booking

// EmptyDateAvailability returns the availability of a date nobody has booked yet.
func EmptyDateAvailability() DateAvailability {
	return DateAvailability{}
}

// Recompute returns s with AllBooked derived from its seats.
func (s ShiftAvailability) Recompute() ShiftAvailability {
	s.AllBooked = s.BookedSeats.All()
	return s
}

// RecomputeRollups derives every flag of d bottom-up: seats -> shifts -> date.
func RecomputeRollups(d DateAvailability) DateAvailability {
	d.AllBooked = true
	for _, shift := range Shifts {
		sa := d.Shifts.ref(shift)
		*sa = sa.Recompute()
		if !sa.AllBooked {
			d.AllBooked = false
		}
	}
	return d
}

// FreeSeats returns the unbooked seats of a shift in seat order.
func (s ShiftAvailability) FreeSeats() []Seat {
	var free []Seat
	for i, booked := range s.BookedSeats {
		if !booked {
			free = append(free, Seat(i+1))
		}
	}
	return free
}

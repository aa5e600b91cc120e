package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ticket-engine/booking"
)

func testValidator() booking.Validator {
	return booking.Validator{Clock: booking.FixedClock(today), Location: time.UTC}
}

func validInput() booking.BookingInput {
	return booking.BookingInput{
		From:          " Jakarta ",
		To:            "BANDUNG",
		Date:          "2030-01-10",
		Shift:         "Morning",
		Seat:          "3",
		PassengerName: " Siti ",
	}
}

func TestValidate_Normalizes(t *testing.T) {
	b, err := testValidator().Validate(validInput())
	require.NoError(t, err)

	assert.Equal(t, "jkt_bdg", b.RouteKey)
	assert.Equal(t, "jakarta", b.From)
	assert.Equal(t, "bandung", b.To)
	assert.Equal(t, "2030-01-10", b.Date)
	assert.Equal(t, booking.ShiftMorning, b.Shift)
	assert.Equal(t, booking.Seat(3), b.Seat)
	assert.Equal(t, "Siti", b.PassengerName)
}

func TestValidate_RFC3339DateIsNormalizedToMidnight(t *testing.T) {
	in := validInput()
	in.Date = "2030-01-10T17:45:00Z"

	b, err := testValidator().Validate(in)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-10", b.Date)
}

func TestValidate_TimestampUsesValidatorLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	v := booking.Validator{Clock: booking.FixedClock(today), Location: jakarta}

	in := validInput()
	in.Date = "2030-01-10T20:00:00Z" // already the 11th in UTC+7

	b, err := v.Validate(in)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-11", b.Date)
}

func TestCheckDate(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"yesterday", "2030-01-04", booking.ErrPastDate},
		{"far past", "2019-06-01", booking.ErrPastDate},
		{"today", "2030-01-05", nil},
		{"today as late timestamp", "2030-01-05T23:59:00Z", nil},
		{"yesterday as timestamp", "2030-01-04T23:59:00Z", booking.ErrPastDate},
		{"tomorrow", "2030-01-06", nil},
		{"garbage", "next tuesday", booking.ErrInvalidDate},
		{"no day", "2030-01", booking.ErrInvalidDate},
		{"impossible day", "2030-02-30", booking.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.CheckDate(tt.date)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)

			var verr *booking.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "bookDate", verr.Field)
		})
	}
}

func TestValidate_ReportsFirstFailingField(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*booking.BookingInput)
		wantField string
		wantErr   error
	}{
		{
			name:      "past date checked before city",
			mutate:    func(in *booking.BookingInput) { in.Date = "2030-01-01"; in.From = "Surabaya" },
			wantField: "bookDate",
			wantErr:   booking.ErrPastDate,
		},
		{
			name:      "unknown origin",
			mutate:    func(in *booking.BookingInput) { in.From = "Surabaya"; in.To = "Medan" },
			wantField: "bookFrom",
			wantErr:   booking.ErrUnknownCity,
		},
		{
			name:      "unknown destination",
			mutate:    func(in *booking.BookingInput) { in.To = "Medan" },
			wantField: "bookTo",
			wantErr:   booking.ErrUnknownCity,
		},
		{
			name:      "bad shift before bad seat",
			mutate:    func(in *booking.BookingInput) { in.Shift = "night"; in.Seat = "9" },
			wantField: "bookShift",
			wantErr:   booking.ErrInvalidShift,
		},
		{
			name:      "seat out of range",
			mutate:    func(in *booking.BookingInput) { in.Seat = "0" },
			wantField: "bookSitPos",
			wantErr:   booking.ErrInvalidSeat,
		},
		{
			name:      "seat not a number",
			mutate:    func(in *booking.BookingInput) { in.Seat = "A1" },
			wantField: "bookSitPos",
			wantErr:   booking.ErrInvalidSeat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := testValidator().Validate(in)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, booking.IsClientError(err))

			var verr *booking.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestRouteKey(t *testing.T) {
	key, err := booking.RouteKey("Ciamis", "bekasi")
	require.NoError(t, err)
	assert.Equal(t, "cms_bks", key)

	_, err = booking.RouteKey("jakarta", "")
	assert.ErrorIs(t, err, booking.ErrUnknownCity)

	assert.Equal(t, []string{"bandung", "bekasi", "bogor", "ciamis", "garut", "jakarta"}, booking.Cities())
}

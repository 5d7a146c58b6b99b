package settlement

import (
	"math"

	"github.com/sharath018/seva-counter-backend/internal/booking"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// totals are the ledger-derived figures of one scope.
type totals struct {
	cash, upi, card float64

	bookings, cashBookings, digitalBookings, cancelled, noShows int
}

// aggregate partitions the collected payments of one shift by mode. A booking counts towards
// the shift it was created in, its money towards the shift that collected it and its
// cancellation or no-show towards the shift that recorded it. A split payment counts towards
// both the cash and the digital booking counts.
func aggregate(bookings []booking.Booking, businessDate, shift string) totals {
	var t totals
	for i := range bookings {
		b := &bookings[i]
		if b.BusinessDate == businessDate && b.Shift == shift {
			t.bookings++
		}
		if date, sh := b.OutcomeScope(); date == businessDate && sh == shift {
			switch b.Status {
			case booking.StatusCancelled:
				t.cancelled++
			case booking.StatusNoShow:
				t.noShows++
			}
		}

		if b.Payment.Status != booking.PaymentCollected {
			continue
		}
		if date, sh := b.PaymentScope(); date != businessDate || sh != shift {
			continue
		}
		if b.Payment.CashAmount > 0 {
			t.cash += b.Payment.CashAmount
			t.cashBookings++
		}
		if b.Payment.DigitalAmount > 0 {
			t.digitalBookings++
			if b.Payment.Mode == booking.ModeCard {
				t.card += b.Payment.DigitalAmount
			} else {
				t.upi += b.Payment.DigitalAmount
			}
		}
	}
	t.cash = round2(t.cash)
	t.upi = round2(t.upi)
	t.card = round2(t.card)
	return t
}

// apply writes the totals onto s. Digital and revenue are sums of the rounded parts
// so the settlement identities hold exactly.
func (t totals) apply(s *CounterSettlement) {
	s.SystemCashTotal = t.cash
	s.UPITotal = t.upi
	s.CardTotal = t.card
	s.DigitalTotal = s.UPITotal + s.CardTotal
	s.TotalRevenue = s.SystemCashTotal + s.DigitalTotal
	s.ClosingBalance = round2(s.OpeningBalance + s.SystemCashTotal)

	s.BookingsCount = t.bookings
	s.CashBookings = t.cashBookings
	s.DigitalBookings = t.digitalBookings
	s.CancelledCount = t.cancelled
	s.NoShowCount = t.noShows

	s.AchievementPercentage = 0
	if s.TargetRevenue > 0 {
		s.AchievementPercentage = round2(s.TotalRevenue / s.TargetRevenue * 100)
	}
}

package settlement

import (
	"fmt"
	"strings"

	"github.com/sharath018/seva-counter-backend/internal/booking"
)

// RevenueLossEstimator prices the no-shows of a shift.
type RevenueLossEstimator interface {
	Name() string
	Estimate(noShows int, scope []booking.Booking) float64
}

// FlatEstimator charges every no-show at a configured average price.
type FlatEstimator struct {
	AveragePrice float64
}

func (FlatEstimator) Name() string { return "flat" }

func (f FlatEstimator) Estimate(noShows int, _ []booking.Booking) float64 {
	return round2(float64(noShows) * f.AveragePrice)
}

// MeanEstimator charges every no-show at the mean snapshot price of the shift's bookings.
type MeanEstimator struct{}

func (MeanEstimator) Name() string { return "mean" }

func (MeanEstimator) Estimate(noShows int, scope []booking.Booking) float64 {
	if noShows == 0 || len(scope) == 0 {
		return 0
	}
	var sum float64
	for _, b := range scope {
		sum += b.Price
	}
	return round2(float64(noShows) * sum / float64(len(scope)))
}

// NewEstimator resolves the configured strategy name.
func NewEstimator(strategy string, flatPrice float64) (RevenueLossEstimator, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "mean":
		return MeanEstimator{}, nil
	case "flat":
		if flatPrice < 0 {
			return nil, fmt.Errorf("flat average price must not be negative")
		}
		return FlatEstimator{AveragePrice: flatPrice}, nil
	default:
		return nil, fmt.Errorf("unknown loss strategy %q", strategy)
	}
}

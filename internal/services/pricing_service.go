package services

import (
	"github.com/KOLIFAST/backend/internal/models"
	"github.com/KOLIFAST/backend/internal/utils"

	"github.com/shopspring/decimal"
)

// PricingService computes delivery quotes in FCFA. All intermediate math runs
// on decimals; the result is rounded up to the nearest 10 FCFA.
type PricingService interface {
	EstimateCost(request *PricingRequest) (*PricingEstimate, error)
	RouteMetrics(stops []*models.ParcelAddress) *RouteMetrics
}

type pricingService struct{}

type PricingRequest struct {
	ParcelType   models.ParcelType   `json:"parcel_type" validate:"required"`
	DeliveryType models.DeliveryType `json:"delivery_type" validate:"required"`
	Weight       float64             `json:"weight"`
	DistanceKM   float64             `json:"distance_km"`
	Destinations int                 `json:"destinations"`
	WaitingHours int                 `json:"waiting_hours"`
}

type PricingEstimate struct {
	EstimatedCost      int64   `json:"estimated_cost"`
	CostBeforeDiscount int64   `json:"cost_before_discount"`
	SavingsAmount      int64   `json:"savings_amount"`
	DiscountRate       float64 `json:"discount_rate"`
	Currency           string  `json:"currency"`
}

type RouteMetrics struct {
	DistanceKM float64 `json:"distance_km"`
	ETAMinutes int     `json:"eta_minutes"`
}

func NewPricingService() PricingService {
	return &pricingService{}
}

var parcelTypeMultipliers = map[models.ParcelType]decimal.Decimal{
	models.ParcelTypeLight:      decimal.NewFromInt(1),
	models.ParcelTypeMedium:     decimal.NewFromFloat(1.2),
	models.ParcelTypeUltraHeavy: decimal.NewFromFloat(1.5),
}

// EstimateCost prices one delivery:
//
//	base 500 + 100 per km + 50 per kg + 200 per destination beyond the first,
//	times the parcel type multiplier, times 1.5 for express.
//
// Grouped deliveries trade waiting time for a discount of 5% per accepted
// hour, capped at 30%. The final amount is rounded up to a 10 FCFA step.
func (s *pricingService) EstimateCost(request *PricingRequest) (*PricingEstimate, error) {
	multiplier, ok := parcelTypeMultipliers[request.ParcelType]
	if !ok {
		return nil, NewValidationError("invalid parcel type", map[string]string{
			"parcel_type": "must be light, medium or ultra_heavy",
		})
	}
	if request.DeliveryType != models.DeliveryTypeGrouped && request.DeliveryType != models.DeliveryTypeExpress {
		return nil, NewValidationError("invalid delivery type", map[string]string{
			"delivery_type": "must be grouped or express",
		})
	}
	if request.Weight < 0 || request.Weight > utils.MaxParcelWeightKG {
		return nil, NewValidationError("invalid weight", map[string]string{
			"weight": "must be between 0 and 100 kg",
		})
	}
	if request.DistanceKM < 0 {
		return nil, NewValidationError("invalid distance", map[string]string{
			"distance_km": "must not be negative",
		})
	}
	if request.Destinations > utils.MaxDestinations {
		return nil, NewValidationError("too many destinations", map[string]string{
			"destinations": "at most 5 destinations allowed",
		})
	}
	if request.DeliveryType == models.DeliveryTypeGrouped {
		if request.WaitingHours < utils.GroupedMinWaitHours || request.WaitingHours > utils.GroupedMaxWaitHours {
			return nil, NewValidationError("invalid waiting time", map[string]string{
				"waiting_hours": "grouped deliveries wait between 2 and 24 hours",
			})
		}
	}

	cost := decimal.NewFromInt(utils.BaseFare)
	cost = cost.Add(decimal.NewFromFloat(request.DistanceKM).Mul(decimal.NewFromInt(utils.FarePerKM)))
	cost = cost.Add(decimal.NewFromFloat(request.Weight).Mul(decimal.NewFromInt(utils.FarePerKG)))
	if request.Destinations > 1 {
		extra := decimal.NewFromInt(int64(request.Destinations - 1))
		cost = cost.Add(extra.Mul(decimal.NewFromInt(utils.FarePerExtraStop)))
	}

	cost = cost.Mul(multiplier)
	if request.DeliveryType == models.DeliveryTypeExpress {
		cost = cost.Mul(decimal.NewFromFloat(utils.ExpressMultiplier))
	}

	before := roundUpToStep(cost)

	discountRate := decimal.Zero
	if request.DeliveryType == models.DeliveryTypeGrouped {
		discountRate = decimal.NewFromInt(int64(request.WaitingHours)).
			Mul(decimal.NewFromFloat(utils.GroupedDiscountSlope))
		cap := decimal.NewFromFloat(utils.GroupedDiscountCap)
		if discountRate.GreaterThan(cap) {
			discountRate = cap
		}
		cost = cost.Mul(decimal.NewFromInt(1).Sub(discountRate))
	}

	final := roundUpToStep(cost)
	rate, _ := discountRate.Float64()

	return &PricingEstimate{
		EstimatedCost:      final,
		CostBeforeDiscount: before,
		SavingsAmount:      before - final,
		DiscountRate:       rate,
		Currency:           utils.DefaultCurrency,
	}, nil
}

// RouteMetrics sums the great-circle legs between consecutive stops and
// estimates travel time at the city average speed plus a fixed per-stop
// overhead.
func (s *pricingService) RouteMetrics(stops []*models.ParcelAddress) *RouteMetrics {
	var distance float64
	legs := 0
	for i := 1; i < len(stops); i++ {
		prev, curr := stops[i-1], stops[i]
		if prev.Latitude == 0 && prev.Longitude == 0 {
			continue
		}
		if curr.Latitude == 0 && curr.Longitude == 0 {
			continue
		}
		distance += utils.CalculateDistance(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)
		legs++
	}

	eta := utils.EstimateETAMinutes(distance, utils.AverageSpeedKMH)
	eta += legs * utils.StopOverheadMinutes

	return &RouteMetrics{
		DistanceKM: distance,
		ETAMinutes: eta,
	}
}

// roundUpToStep ceils an FCFA amount to the next 10 FCFA.
func roundUpToStep(amount decimal.Decimal) int64 {
	step := decimal.NewFromInt(utils.FareRoundingStepFCA)
	units := amount.Div(step).Ceil()
	return units.Mul(step).IntPart()
}

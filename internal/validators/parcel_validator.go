package validators

// ParcelCreation is the validated shape of a delivery request.
type ParcelCreation struct {
	Flow         string  `validate:"required,oneof=send receive"`
	ParcelType   string  `validate:"required,oneof=light medium ultra_heavy"`
	Weight       float64 `validate:"weight_kg"`
	Description  string  `validate:"required,min=3,max=500"`
	ParcelCount  int     `validate:"omitempty,min=1,max=20"`
	DeliveryType string  `validate:"required,oneof=grouped express"`
	WaitingHours int     `validate:"omitempty,min=0,max=24"`
}

// ParcelStop is one pickup or delivery address.
type ParcelStop struct {
	AddressType   string `validate:"required,oneof=pickup delivery"`
	Address       string `validate:"required,min=3,max=300"`
	ContactNumber string `validate:"required,phone_number"`
}

// ValidateParcelCreation checks the request and its stops together.
func ValidateParcelCreation(parcel *ParcelCreation, stops []*ParcelStop) ValidationErrors {
	errs := ValidateStruct(parcel)

	if parcel.DeliveryType == "grouped" && parcel.WaitingHours < 2 {
		errs = append(errs, ValidationError{
			Field:   "WaitingHours",
			Tag:     "min",
			Message: "Grouped deliveries wait at least 2 hours",
		})
	}

	pickups, deliveries := 0, 0
	for _, stop := range stops {
		errs = append(errs, ValidateStruct(stop)...)
		switch stop.AddressType {
		case "pickup":
			pickups++
		case "delivery":
			deliveries++
		}
	}
	if pickups != 1 {
		errs = append(errs, ValidationError{
			Field:   "Stops",
			Tag:     "pickup",
			Message: "Exactly one pickup address is required",
		})
	}
	if deliveries < 1 {
		errs = append(errs, ValidationError{
			Field:   "Stops",
			Tag:     "delivery",
			Message: "At least one delivery address is required",
		})
	} else if deliveries > 5 {
		errs = append(errs, ValidationError{
			Field:   "Stops",
			Tag:     "max",
			Message: "At most 5 delivery addresses allowed",
		})
	}

	return errs
}

package validators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCreation() (*ParcelCreation, []*ParcelStop) {
	return &ParcelCreation{
			Flow:         "send",
			ParcelType:   "light",
			Weight:       2,
			Description:  "Documents for the bank",
			DeliveryType: "express",
		}, []*ParcelStop{
			{AddressType: "pickup", Address: "Rue du Commerce, Lome", ContactNumber: "+22890112233"},
			{AddressType: "delivery", Address: "Agoe, Lome", ContactNumber: "+22890445566"},
		}
}

func TestValidateParcelCreation(t *testing.T) {
	parcel, stops := validCreation()
	assert.Empty(t, ValidateParcelCreation(parcel, stops))
}

func TestValidateParcelCreationStops(t *testing.T) {
	// No pickup.
	parcel, stops := validCreation()
	errs := ValidateParcelCreation(parcel, stops[1:])
	assert.Contains(t, errs.Fields(), "Stops")

	// Two pickups.
	parcel, stops = validCreation()
	stops = append(stops, &ParcelStop{AddressType: "pickup", Address: "Somewhere else", ContactNumber: "+22890778899"})
	errs = ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "Stops")

	// Six deliveries.
	parcel, stops = validCreation()
	for i := 0; i < 5; i++ {
		stops = append(stops, &ParcelStop{AddressType: "delivery", Address: "Another stop somewhere", ContactNumber: "+22890778899"})
	}
	errs = ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "Stops")
}

func TestValidateParcelCreationFields(t *testing.T) {
	parcel, stops := validCreation()
	parcel.ParcelType = "gigantic"
	errs := ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "ParcelType")

	parcel, stops = validCreation()
	parcel.Weight = 150
	errs = ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "Weight")

	parcel, stops = validCreation()
	parcel.DeliveryType = "grouped"
	parcel.WaitingHours = 1
	errs = ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "WaitingHours")

	parcel, stops = validCreation()
	stops[0].ContactNumber = "not a phone"
	errs = ValidateParcelCreation(parcel, stops)
	assert.Contains(t, errs.Fields(), "ContactNumber")
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ParcelStatus string
type ParcelType string
type ParcelFlow string
type DeliveryType string
type AddressType string

const (
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusConfirmed ParcelStatus = "confirmed"
	ParcelStatusPickedUp  ParcelStatus = "picked_up"
	ParcelStatusInTransit ParcelStatus = "in_transit"
	ParcelStatusDelivered ParcelStatus = "delivered"
	ParcelStatusCancelled ParcelStatus = "cancelled"

	ParcelTypeLight      ParcelType = "light"       // 0-5kg
	ParcelTypeMedium     ParcelType = "medium"      // 5-15kg
	ParcelTypeUltraHeavy ParcelType = "ultra_heavy" // 15kg+

	ParcelFlowSend    ParcelFlow = "send"
	ParcelFlowReceive ParcelFlow = "receive"

	DeliveryTypeGrouped DeliveryType = "grouped"
	DeliveryTypeExpress DeliveryType = "express"

	AddressTypePickup   AddressType = "pickup"
	AddressTypeDelivery AddressType = "delivery"
)

type Parcel struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID            primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	DriverID          *primitive.ObjectID `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	TrackingNumber    string              `json:"tracking_number" bson:"tracking_number"`
	Flow              ParcelFlow          `json:"type" bson:"type" validate:"required"`
	ParcelType        ParcelType          `json:"parcel_type" bson:"parcel_type" validate:"required"`
	Weight            float64             `json:"weight,omitempty" bson:"weight,omitempty"`
	Description       string              `json:"description" bson:"description" validate:"required"`
	ParcelCount       int                 `json:"parcel_count" bson:"parcel_count" default:"1"`
	DeliveryType      DeliveryType        `json:"delivery_type" bson:"delivery_type" validate:"required"`
	WaitingHours      int                 `json:"waiting_hours,omitempty" bson:"waiting_hours,omitempty"`
	EstimatedCost     int64               `json:"estimated_cost,omitempty" bson:"estimated_cost,omitempty"` // FCFA
	FinalCost         int64               `json:"final_cost,omitempty" bson:"final_cost,omitempty"`         // FCFA
	SavingsAmount     int64               `json:"savings_amount,omitempty" bson:"savings_amount,omitempty"` // FCFA
	IsPaid            bool                `json:"is_paid" bson:"is_paid" default:"false"`
	Status            ParcelStatus        `json:"status" bson:"status" default:"pending"`
	CancelReason      string              `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	AssignedAt        *time.Time          `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	PickupCompletedAt *time.Time          `json:"pickup_completed_at,omitempty" bson:"pickup_completed_at,omitempty"`
	DeliveryStartedAt *time.Time          `json:"delivery_started_at,omitempty" bson:"delivery_started_at,omitempty"`
	DeliveredAt       *time.Time          `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CancelledAt       *time.Time          `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

// ParcelAddress is a pickup or delivery stop. Position preserves the order of
// multi-destination deliveries.
type ParcelAddress struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ParcelID      primitive.ObjectID `json:"parcel_id" bson:"parcel_id" validate:"required"`
	AddressType   AddressType        `json:"address_type" bson:"address_type" validate:"required"`
	Address       string             `json:"address" bson:"address" validate:"required"`
	Latitude      float64            `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude     float64            `json:"longitude,omitempty" bson:"longitude,omitempty"`
	ContactName   string             `json:"contact_name,omitempty" bson:"contact_name,omitempty"`
	ContactNumber string             `json:"contact_number" bson:"contact_number" validate:"required"`
	Position      int                `json:"position" bson:"position"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

type ParcelTimelineEntry struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ParcelID    primitive.ObjectID  `json:"parcel_id" bson:"parcel_id" validate:"required"`
	Status      ParcelStatus        `json:"status" bson:"status" validate:"required"`
	Description string              `json:"description,omitempty" bson:"description,omitempty"`
	Latitude    float64             `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude   float64             `json:"longitude,omitempty" bson:"longitude,omitempty"`
	TriggeredBy *primitive.ObjectID `json:"triggered_by,omitempty" bson:"triggered_by,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

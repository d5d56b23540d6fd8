package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStatus string
type UserType string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"

	UserTypeClient UserType = "client"
	UserTypeDriver UserType = "driver"
	UserTypeAdmin  UserType = "admin"
)

// User is identified by phone number; accounts are created on first OTP
// login. DriverVerified is the capability flag set when a driver's KYC file
// reaches the verified state.
type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Phone           string             `json:"phone" bson:"phone" validate:"required"`
	FullName        string             `json:"full_name" bson:"full_name"`
	ProfilePicture  string             `json:"profile_picture" bson:"profile_picture"`
	UserType        UserType           `json:"user_type" bson:"user_type" default:"client"`
	Status          UserStatus         `json:"status" bson:"status" default:"active"`
	IsDriver        bool               `json:"is_driver" bson:"is_driver" default:"false"`
	DriverVerified  bool               `json:"driver_verified" bson:"driver_verified" default:"false"`
	IsPhoneVerified bool               `json:"is_phone_verified" bson:"is_phone_verified" default:"false"`
	LastLoginAt     *time.Time         `json:"last_login_at" bson:"last_login_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt       *time.Time         `json:"deleted_at" bson:"deleted_at"`
}

package utils

import "time"

// Application Constants
const (
	AppName    = "KoliFast"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage    = "fr"
	DefaultCurrency    = "FCFA"
	DefaultCountryCode = "+228"
	DefaultTimeZone    = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL  = 24 * time.Hour
	JWTRefreshTokenTTL = 7 * 24 * time.Hour
	OTPLength          = 6
	OTPExpiry          = 10 * time.Minute

	// Delivery Constants
	AverageSpeedKMH      = 40.0
	StopOverheadMinutes  = 10
	MaxDestinations      = 5
	MaxParcelWeightKG    = 100.0
	GroupedMinWaitHours  = 2
	GroupedMaxWaitHours  = 24
	GroupedDiscountCap   = 0.30
	GroupedDiscountSlope = 0.05 // per hour of accepted wait

	// Pricing (FCFA)
	BaseFare            = 500
	FarePerKM           = 100
	FarePerKG           = 50
	FarePerExtraStop    = 200
	ExpressMultiplier   = 1.5
	FareRoundingStepFCA = 10

	// KYC Constants
	MaxKYCReferences   = 3
	KYCDocumentMaxSize = 5 * 1024 * 1024 // 5MB

	// File Upload
	MaxImageSize    = 5 * 1024 * 1024  // 5MB
	MaxDocumentSize = 10 * 1024 * 1024 // 10MB

	// Rate Limiting
	DefaultRateLimit = 100
	LoginRateLimit   = 5
	OTPRateLimit     = 3

	// Tracking
	TrackingNumberPrefix = "KF"
	TrackingNumberDigits = 8
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusFailed  = "failed"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid credentials"
	ErrUserNotFound       = "user not found"
	ErrUserExists         = "user already exists"
	ErrInvalidToken       = "invalid token"
	ErrTokenExpired       = "token expired"
	ErrInvalidInput       = "invalid input"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrNotFound           = "not found"
	ErrConflict           = "conflict"
	ErrValidationFailed   = "validation failed"
	ErrFileUploadFailed   = "file upload failed"
	ErrInvalidOTP         = "invalid or expired otp"
	ErrParcelNotFound     = "parcel not found"
	ErrDriverNotVerified  = "driver is not verified"
)

// Cache Keys
const (
	CacheUserPrefix      = "user:"
	CacheKYCPrefix       = "kyc:"
	CacheParcelPrefix    = "parcel:"
	CacheRateLimitPrefix = "rate_limit:"
	CacheOTPPrefix       = "otp:"
	CacheSessionPrefix   = "session:"
)

// Event Types
const (
	EventUserRegistered    = "user_registered"
	EventUserLogin         = "user_login"
	EventDocumentSubmitted = "kyc_document_submitted"
	EventDocumentDecided   = "kyc_document_decided"
	EventDriverVerified    = "driver_verified"
	EventParcelCreated     = "parcel_created"
	EventParcelDelivered   = "parcel_delivered"
)

// File Types
var (
	AllowedImageTypes    = []string{"jpg", "jpeg", "png"}
	AllowedDocumentTypes = []string{"jpg", "jpeg", "png", "pdf"}
)

// Geographic Constants
const (
	EarthRadiusKM = 6371.0
)

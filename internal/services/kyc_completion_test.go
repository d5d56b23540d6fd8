package services

import (
	"testing"

	"github.com/KOLIFAST/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCompletion(t *testing.T) {
	tests := []struct {
		name       string
		identity   models.CategoryStatus
		address    models.CategoryStatus
		selfie     models.CategoryStatus
		overall    models.OverallStatus
		percentage int
	}{
		{
			name:     "nothing submitted",
			identity: models.CategoryStatusNotSubmitted,
			address:  models.CategoryStatusNotSubmitted,
			selfie:   models.CategoryStatusNotSubmitted,
			overall:  models.OverallStatusNotStarted,
		},
		{
			name:     "one category pending",
			identity: models.CategoryStatusPending,
			address:  models.CategoryStatusNotSubmitted,
			selfie:   models.CategoryStatusNotSubmitted,
			overall:  models.OverallStatusInProgress,
		},
		{
			name:       "one verified one pending",
			identity:   models.CategoryStatusVerified,
			address:    models.CategoryStatusPending,
			selfie:     models.CategoryStatusNotSubmitted,
			overall:    models.OverallStatusInProgress,
			percentage: 33,
		},
		{
			name:     "all pending",
			identity: models.CategoryStatusPending,
			address:  models.CategoryStatusPending,
			selfie:   models.CategoryStatusPending,
			overall:  models.OverallStatusPendingReview,
		},
		{
			name:       "two verified one pending",
			identity:   models.CategoryStatusVerified,
			address:    models.CategoryStatusVerified,
			selfie:     models.CategoryStatusPending,
			overall:    models.OverallStatusPendingReview,
			percentage: 67,
		},
		{
			name:       "all verified",
			identity:   models.CategoryStatusVerified,
			address:    models.CategoryStatusVerified,
			selfie:     models.CategoryStatusVerified,
			overall:    models.OverallStatusVerified,
			percentage: 100,
		},
		{
			name:       "rejection wins over pending review",
			identity:   models.CategoryStatusVerified,
			address:    models.CategoryStatusRejected,
			selfie:     models.CategoryStatusPending,
			overall:    models.OverallStatusRejected,
			percentage: 33,
		},
		{
			name:       "rejection with two verified",
			identity:   models.CategoryStatusVerified,
			address:    models.CategoryStatusVerified,
			selfie:     models.CategoryStatusRejected,
			overall:    models.OverallStatusRejected,
			percentage: 67,
		},
		{
			name:     "rejection with missing category",
			identity: models.CategoryStatusRejected,
			address:  models.CategoryStatusNotSubmitted,
			selfie:   models.CategoryStatusNotSubmitted,
			overall:  models.OverallStatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DeriveCompletion(tt.identity, tt.address, tt.selfie)
			assert.Equal(t, tt.overall, result.OverallStatus)
			assert.Equal(t, tt.percentage, result.CompletionPercentage)
		})
	}
}

func TestDeriveCompletionPercentageValues(t *testing.T) {
	// Percentage counts verified categories only, so only four values exist.
	allowed := map[int]bool{0: true, 33: true, 67: true, 100: true}
	statuses := []models.CategoryStatus{
		models.CategoryStatusNotSubmitted,
		models.CategoryStatusPending,
		models.CategoryStatusVerified,
		models.CategoryStatusRejected,
	}

	for _, identity := range statuses {
		for _, address := range statuses {
			for _, selfie := range statuses {
				result := DeriveCompletion(identity, address, selfie)
				assert.True(t, allowed[result.CompletionPercentage],
					"unexpected percentage %d for %s/%s/%s",
					result.CompletionPercentage, identity, address, selfie)

				// 100 percent and verified imply each other.
				assert.Equal(t,
					result.OverallStatus == models.OverallStatusVerified,
					result.CompletionPercentage == 100)
			}
		}
	}
}

func TestCompletionEventFor(t *testing.T) {
	event := CompletionEventFor(models.OverallStatusInProgress, models.OverallStatusVerified)
	assert.True(t, event.ReachedVerified)
	assert.False(t, event.BecameSubmitted)
	assert.False(t, event.BecameRejected)

	event = CompletionEventFor(models.OverallStatusVerified, models.OverallStatusVerified)
	assert.False(t, event.ReachedVerified, "no event when already verified")

	event = CompletionEventFor(models.OverallStatusInProgress, models.OverallStatusPendingReview)
	assert.True(t, event.BecameSubmitted)

	event = CompletionEventFor(models.OverallStatusPendingReview, models.OverallStatusRejected)
	assert.True(t, event.BecameRejected)

	event = CompletionEventFor(models.OverallStatusRejected, models.OverallStatusRejected)
	assert.False(t, event.BecameRejected)
}

func TestDeriveReferencesStatus(t *testing.T) {
	assert.Equal(t, models.CategoryStatusSkipped, DeriveReferencesStatus(nil))
	assert.Equal(t, models.CategoryStatusSkipped, DeriveReferencesStatus([]*models.KYCReference{}))

	refs := []*models.KYCReference{
		{Status: models.ReferenceStatusVerified},
		{Status: models.ReferenceStatusNotContacted},
	}
	assert.Equal(t, models.CategoryStatusPending, DeriveReferencesStatus(refs))

	refs = []*models.KYCReference{
		{Status: models.ReferenceStatusVerified},
		{Status: models.ReferenceStatusVerified},
	}
	assert.Equal(t, models.CategoryStatusVerified, DeriveReferencesStatus(refs))

	refs = []*models.KYCReference{
		{Status: models.ReferenceStatusVerified},
		{Status: models.ReferenceStatusFailed},
		{Status: models.ReferenceStatusVerified},
	}
	assert.Equal(t, models.CategoryStatusRejected, DeriveReferencesStatus(refs),
		"one failed contact fails the whole set")
}

func TestReferencesNeverAffectCompletion(t *testing.T) {
	// The derivation only takes the three mandatory categories; this pins the
	// signature so references cannot sneak into the percentage.
	result := DeriveCompletion(
		models.CategoryStatusVerified,
		models.CategoryStatusVerified,
		models.CategoryStatusVerified,
	)
	assert.Equal(t, models.OverallStatusVerified, result.OverallStatus)
	assert.Equal(t, 100, result.CompletionPercentage)
}

package services

import (
	"math"

	"github.com/KOLIFAST/backend/internal/models"
)

// CompletionResult is the derived verification state for one driver. Overall
// status and percentage are a pure function of the three mandatory category
// statuses; references never enter the derivation.
type CompletionResult struct {
	OverallStatus        models.OverallStatus
	CompletionPercentage int
}

// CompletionEvent records the transitions a recompute produced relative to the
// previously stored aggregate. The service layer consumes it to stamp
// timestamps and flip the driver capability flag.
type CompletionEvent struct {
	ReachedVerified bool
	BecameSubmitted bool
	BecameRejected  bool
}

// DeriveCompletion maps the mandatory category statuses to an overall status
// and a completion percentage.
//
// Priority order, first match wins:
//  1. all three verified            -> verified
//  2. any rejected                  -> rejected
//  3. all three in {verified,pending} -> pending_review
//  4. any submitted at all          -> in_progress
//  5. nothing submitted             -> not_started
//
// Percentage counts verified categories only, so it takes exactly the values
// 0, 33, 67 and 100.
func DeriveCompletion(identity, address, selfie models.CategoryStatus) CompletionResult {
	statuses := []models.CategoryStatus{identity, address, selfie}

	verifiedCount := 0
	anyRejected := false
	allSubmitted := true
	anySubmitted := false
	for _, status := range statuses {
		switch status {
		case models.CategoryStatusVerified:
			verifiedCount++
			anySubmitted = true
		case models.CategoryStatusRejected:
			anyRejected = true
			anySubmitted = true
			allSubmitted = false
		case models.CategoryStatusPending:
			anySubmitted = true
		default:
			allSubmitted = false
		}
	}

	percentage := int(math.Round(100 * float64(verifiedCount) / float64(len(models.MandatoryCategories))))

	var overall models.OverallStatus
	switch {
	case verifiedCount == len(statuses):
		overall = models.OverallStatusVerified
	case anyRejected:
		overall = models.OverallStatusRejected
	case allSubmitted:
		overall = models.OverallStatusPendingReview
	case anySubmitted:
		overall = models.OverallStatusInProgress
	default:
		overall = models.OverallStatusNotStarted
	}

	return CompletionResult{
		OverallStatus:        overall,
		CompletionPercentage: percentage,
	}
}

// CompletionEventFor compares the previous overall status with the freshly
// derived one and reports which transitions happened.
func CompletionEventFor(previous models.OverallStatus, derived models.OverallStatus) CompletionEvent {
	return CompletionEvent{
		ReachedVerified: derived == models.OverallStatusVerified && previous != models.OverallStatusVerified,
		BecameSubmitted: derived == models.OverallStatusPendingReview && previous != models.OverallStatusPendingReview,
		BecameRejected:  derived == models.OverallStatusRejected && previous != models.OverallStatusRejected,
	}
}

// DeriveReferencesStatus folds per-reference outcomes into one category
// status. An empty set means the driver skipped references.
func DeriveReferencesStatus(references []*models.KYCReference) models.CategoryStatus {
	if len(references) == 0 {
		return models.CategoryStatusSkipped
	}

	allVerified := true
	for _, reference := range references {
		switch reference.Status {
		case models.ReferenceStatusFailed:
			return models.CategoryStatusRejected
		case models.ReferenceStatusVerified:
		default:
			allVerified = false
		}
	}

	if allVerified {
		return models.CategoryStatusVerified
	}
	return models.CategoryStatusPending
}

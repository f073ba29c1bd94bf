// Package premium gates features behind the premium entitlement recorded
// on the user profile. Purchase validation happens elsewhere; this package
// only reads the flag.
package premium

import (
	"errors"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// FreeProductLimit is the number of products a free profile may track.
const FreeProductLimit = 3

// FreeHistoryDays is how far back a free profile can view dose history.
const FreeHistoryDays = 30

// ErrPremiumRequired is returned when an action needs the premium tier.
var ErrPremiumRequired = errors.New("premium required")

// Feature is a capability reserved for premium profiles.
type Feature string

// Premium features.
const (
	FeatureUnlimitedProducts Feature = "unlimited_products"
	FeatureExport            Feature = "export"
	FeatureDaemon            Feature = "daemon"
	FeatureHistoryUnlimited  Feature = "history_unlimited"
)

// Features lists every gated feature.
var Features = []Feature{FeatureUnlimitedProducts, FeatureExport, FeatureDaemon, FeatureHistoryUnlimited}

// IsPremium reports whether the profile carries the entitlement. A nil
// profile is a free profile.
func IsPremium(p *model.UserProfile) bool {
	return p != nil && p.Premium
}

// Allows reports whether the profile may use f. Features not listed in
// Features are never gated.
func Allows(p *model.UserProfile, f Feature) bool {
	for _, gated := range Features {
		if gated == f {
			return IsPremium(p)
		}
	}
	return true
}

// Require returns ErrPremiumRequired wrapped with the feature name when the
// profile may not use f.
func Require(p *model.UserProfile, f Feature) error {
	if Allows(p, f) {
		return nil
	}
	return fmt.Errorf("%s: %w", f, ErrPremiumRequired)
}

// CheckAddProduct returns ErrPremiumRequired when a free profile already
// tracks FreeProductLimit products.
func CheckAddProduct(p *model.UserProfile, existing int) error {
	if IsPremium(p) || existing < FreeProductLimit {
		return nil
	}
	return fmt.Errorf("free tier is limited to %d products: %w", FreeProductLimit, ErrPremiumRequired)
}

// HistorySince returns the earliest date a profile may view, or the zero
// time when history is unlimited.
func HistorySince(p *model.UserProfile, now time.Time) time.Time {
	if Allows(p, FeatureHistoryUnlimited) {
		return time.Time{}
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -(FreeHistoryDays - 1))
}

// RemainingProducts returns how many more products a profile may add, or -1
// when unlimited.
func RemainingProducts(p *model.UserProfile, existing int) int {
	if IsPremium(p) {
		return -1
	}
	if n := FreeProductLimit - existing; n > 0 {
		return n
	}
	return 0
}

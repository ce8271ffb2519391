package domain

// Tier is the purchased entitlement level controlling the claim quota.
type Tier string

const (
	TierFree     Tier = "free"     // default on first sign-in; cannot start a claim
	TierStandard Tier = "standard" // ClaimEase Standard: one full claim
	TierPro      Tier = "pro"      // ClaimEase Pro: unlimited claims
)

// QuotaUnlimited is the sentinel quota for TierPro.
const QuotaUnlimited = -1

// Quota returns the number of claims the tier allows. Unknown tiers get the
// free quota, so an unrecognised value read from storage fails closed.
func Quota(t Tier) int {
	switch t {
	case TierStandard:
		return 1
	case TierPro:
		return QuotaUnlimited
	default:
		return 0
	}
}

// ValidTier reports whether t names a purchasable or default plan.
func ValidTier(t Tier) bool {
	return t == TierFree || t == TierStandard || t == TierPro
}

// CanStartClaim reports whether the account may start another claim.
// Pure read; the write path uses a conditional increment so two concurrent
// starts cannot both pass this check and exceed the quota.
func (a *Account) CanStartClaim() bool {
	q := Quota(a.Tier)
	if q == QuotaUnlimited {
		return true
	}
	return a.ClaimsUsed < q
}

// ClaimsRemaining returns how many claims the account can still start,
// or QuotaUnlimited for the pro tier. Never negative.
func (a *Account) ClaimsRemaining() int {
	q := Quota(a.Tier)
	if q == QuotaUnlimited {
		return QuotaUnlimited
	}
	if rem := q - a.ClaimsUsed; rem > 0 {
		return rem
	}
	return 0
}

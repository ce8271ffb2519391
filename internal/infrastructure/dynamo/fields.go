package dynamo

// DynamoDB attribute names used in update and condition expressions across
// all repos. Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldTier          = "tier"
	fieldClaimsUsed    = "claims_used"
	fieldPlanExpiresAt = "plan_expires_at"
	fieldUsed          = "used"
	fieldEnable        = "enable"
	fieldUpdatedAt     = "updated_at"
)

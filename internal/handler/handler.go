package handler

const CompanyName = "Khusela"

// Activity log descriptions. Keeping them as constants makes querying the
// audit trail for a given action reliable.
const (
	UserActivityLogRegistrationDescription = "Created an account"
	UserActivityLogLoginDescription        = "Logged in"
	UserActivityLogLogoutDescription       = "Logged out"
	UserActivityLogKYCCompletedDescription = "Completed identity verification"
	UserActivityLogKYCCancelledDescription = "Cancelled identity verification"

	PolicyActivityLogCreatedDescription   = "Policy application submitted"
	PolicyActivityLogActivatedDescription = "Policy activated"

	ClaimActivityLogSubmittedDescription = "Claim submitted"
	ClaimActivityLogCancelledDescription = "Claim cancelled"
)

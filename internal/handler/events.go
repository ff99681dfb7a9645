package handler

// KYCCompletedEvent is produced on the onboarding.kyc.completed topic once
// the final verification step's predicate is satisfied. It carries the
// summary downstream consumers need without the raw images.
type KYCCompletedEvent struct {
	UserID      string `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	IDNumber    string `json:"id_number"`
	RecordID    string `json:"record_id"`
}

// PolicyActivatedEvent is produced on the onboarding.policy.activated topic
// when payment setup is confirmed; the policy worker picks it up and brings
// the policy live.
type PolicyActivatedEvent struct {
	UserID   string  `json:"user_id"`
	PolicyID string  `json:"policy_id"`
	Premium  float64 `json:"premium"`
}

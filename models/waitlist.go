package models

// WaitlistEntry is what the external waitlist service returns for a signup.
type WaitlistEntry struct {
	Position     int    `json:"position"`
	ReferralCode string `json:"referral_code"`
	ReferralURL  string `json:"referral_url"`
}

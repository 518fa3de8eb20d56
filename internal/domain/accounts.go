package domain

import "time"

// VerificationToken is a pending one-time grant of a role.
type VerificationToken struct {
	UserID     string     `json:"userId"`
	Kind       string     `json:"kind"`
	Email      string     `json:"email"`
	Token      string     `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
}

// Valid reports whether the token can still be consumed at now.
func (t VerificationToken) Valid(now time.Time) bool {
	return t.VerifiedAt == nil && t.ExpiresAt.After(now)
}

// VerificationStatus is returned to a user requesting a role.
type VerificationStatus struct {
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Verification request outcomes.
const (
	VerificationSent    = "sent"
	VerificationPending = "pending"
)

// WebsiteStatus is the moderation state of a showcase entry.
type WebsiteStatus string

const (
	WebsitePending  WebsiteStatus = "pending"
	WebsiteApproved WebsiteStatus = "approved"
)

// WebsiteConnection is a student project submitted to the showcase.
type WebsiteConnection struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	WebsiteURL   string        `json:"websiteUrl"`
	BannerName   string        `json:"bannerName"`
	BannerPath   string        `json:"bannerPath"`
	UserID       string        `json:"userId"`
	Email        string        `json:"email"`
	Status       WebsiteStatus `json:"status"`
	CreatedDate  time.Time     `json:"createdDate"`
	ApprovedDate *time.Time    `json:"approvedDate,omitempty"`
}

// WebsiteSubmission is the input for a new showcase entry.
type WebsiteSubmission struct {
	Title       string
	Description string
	WebsiteURL  string
	Banner      File
}

// Email is an outbound notification.
type Email struct {
	To      string
	Subject string
	HTML    string
}

package core

import "errors"

var ErrReviewerNotFound = errors.New("reviewer not found")

// Reviewer is a user who may hold a leave request for review.
type Reviewer struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organizationId"`
}

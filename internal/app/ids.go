package app

import "github.com/google/uuid"

// newClaimID returns a random UUIDv4 string for a claim.
func newClaimID() string { return uuid.NewString() }

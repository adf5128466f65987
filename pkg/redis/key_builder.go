package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Election key builders
func (kb *KeyBuilder) KeyElectionTally(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElectionTally, electionID))
}

func (kb *KeyBuilder) KeyElectionView(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyElectionView, electionID))
}

func (kb *KeyBuilder) KeyVoterBallot(electionID, voterID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoterBallot, electionID, voterID))
}

func (kb *KeyBuilder) KeyCandidateList(electionID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyCandidateList, electionID))
}

// Booking key builders
func (kb *KeyBuilder) KeyPendingBookings() string {
	return kb.BuildKey(KeyPendingBookings)
}

func (kb *KeyBuilder) KeyFacilityStatus(facilityID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyFacilityStatus, facilityID))
}

// Profile key builders
func (kb *KeyBuilder) KeyProfileRole(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyProfileRole, userID))
}

// KeyCustom builds an arbitrary prefixed key
func (kb *KeyBuilder) KeyCustom(format string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(format, args...))
}

package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment defaults to prod",
			environment:    "something-else",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_ElectionKeys(t *testing.T) {
	kb := NewKeyBuilder("test")

	assert.Equal(t, "staging:election:e1:tally", kb.KeyElectionTally("e1"))
	assert.Equal(t, "staging:election:e1:view", kb.KeyElectionView("e1"))
	assert.Equal(t, "staging:election:e1:voter:u1", kb.KeyVoterBallot("e1", "u1"))
	assert.Equal(t, "staging:election:e1:candidates", kb.KeyCandidateList("e1"))
}

func TestKeyBuilder_BookingKeys(t *testing.T) {
	kb := NewKeyBuilder("production")

	assert.Equal(t, "prod:booking:pending", kb.KeyPendingBookings())
	assert.Equal(t, "prod:facility:f1:status", kb.KeyFacilityStatus("f1"))
}

func TestKeyBuilder_ProfileKeys(t *testing.T) {
	kb := NewKeyBuilder("test")

	assert.Equal(t, "staging:profile:u1:role", kb.KeyProfileRole("u1"))
}

func TestKeyBuilder_KeyCustom(t *testing.T) {
	kb := NewKeyBuilder("test")

	assert.Equal(t, "staging:lock:votes:e1", kb.KeyCustom("lock:votes:%s", "e1"))
}

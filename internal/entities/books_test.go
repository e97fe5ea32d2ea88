package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookStatus_IsValid(t *testing.T) {
	for _, status := range AllStatuses {
		assert.True(t, status.IsValid(), "status %q", status)
	}
	assert.False(t, BookStatus("devoured").IsValid())
	assert.False(t, BookStatus("").IsValid())
}

func TestCanTransition(t *testing.T) {
	// The current policy allows every move between known statuses
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}

	assert.False(t, CanTransition(BookStatus("devoured"), StatusRead))
}

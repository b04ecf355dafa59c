package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusShipped, StatusRefunded, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusPending, false},
		{StatusDelivered, StatusRefunded, false},
		{StatusCancelled, StatusPending, false},
		{StatusRefunded, StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransitionManually_NeverToProcessing(t *testing.T) {
	assert.False(t, CanTransitionManually(StatusPending, StatusProcessing))
	assert.True(t, CanTransitionManually(StatusProcessing, StatusShipped))
	assert.True(t, CanTransitionManually(StatusPending, StatusCancelled))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("lost")
	assert.Error(t, err)
}

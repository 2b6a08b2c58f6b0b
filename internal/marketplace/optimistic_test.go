package marketplace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimistic_ConfirmKeepsMutation(t *testing.T) {
	state := 1
	res, err := Optimistic(context.Background(),
		func() int { return state },
		func() { state = 2 },
		func(context.Context) (string, error) { return "ok", nil },
		func(prev int) { state = prev },
	)
	assert.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, 2, state)
}

func TestOptimistic_FailureReverts(t *testing.T) {
	state := 1
	boom := errors.New("boom")
	var seenDuringCall int
	res, err := Optimistic(context.Background(),
		func() int { return state },
		func() { state = 2 },
		func(context.Context) (string, error) {
			seenDuringCall = state
			return "ignored", boom
		},
		func(prev int) { state = prev },
	)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "", res)
	assert.Equal(t, 2, seenDuringCall)
	assert.Equal(t, 1, state)
}

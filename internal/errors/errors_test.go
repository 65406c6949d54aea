package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient("rate limited")))
	assert.True(t, IsRetryable(Wrap(ErrTransient, "dispatch failed")))

	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(Permanent("unknown symbol")))
	assert.False(t, IsRetryable(InvalidInput("ticker is required")))
	assert.False(t, IsRetryable(UnknownTool("fourier_patterns")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", context.Canceled)))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))

	err := Wrap(ErrPermanent, "lookup AMD")
	assert.True(t, errors.Is(err, ErrPermanent))
	assert.Equal(t, "lookup AMD: permanent error", err.Error())
}

func TestMapUpstream_Classification(t *testing.T) {
	cases := map[string]struct {
		in   error
		want error
	}{
		"rate limit":       {errors.New("HTTP 429 Too Many Requests"), ErrTransient},
		"timeout":          {errors.New("dial tcp: i/o timeout"), ErrTransient},
		"network":          {errors.New("connection refused"), ErrTransient},
		"server error":     {errors.New("502 Bad Gateway"), ErrTransient},
		"not found":        {errors.New("resource not found"), ErrPermanent},
		"no tickers":       {errors.New(`no tickers found for "xyzzy"`), ErrPermanent},
		"bad request":      {errors.New("400 bad request"), ErrInvalidInput},
		"unclassifiable":   {errors.New("something odd"), ErrPermanent},
		"deadline":         {context.DeadlineExceeded, ErrTransient},
		"wrapped deadline": {fmt.Errorf("get quote: %w", context.DeadlineExceeded), ErrTransient},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mapped := MapUpstream(tc.in)
			assert.True(t, errors.Is(mapped, tc.want), "got %v", mapped)
		})
	}
}

func TestMapUpstream_Passthrough(t *testing.T) {
	assert.Nil(t, MapUpstream(nil))

	// Cancellation propagates untouched.
	assert.Equal(t, context.Canceled, MapUpstream(context.Canceled))

	// Already classified errors keep their category and message.
	classified := Permanent("unknown symbol \"ZZZZ\"")
	assert.Equal(t, classified, MapUpstream(classified))

	transient := Transient("rate limited after 5 attempts")
	assert.Equal(t, transient, MapUpstream(transient))
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "ErrTransient", Category(Transient("x")))
	assert.Equal(t, "ErrPermanent", Category(Permanent("x")))
	assert.Equal(t, "ErrInvalidInput", Category(InvalidInput("x")))
	assert.Equal(t, "ErrUnknownTool", Category(UnknownTool("x")))
	assert.Equal(t, "ErrRoundLimit", Category(ErrRoundLimit))
	assert.Equal(t, "Unknown", Category(errors.New("mystery")))
	assert.Equal(t, "", Category(nil))
}

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_MatchesSentinel(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := fmt.Errorf("create snapshot: %w", Wrap(ErrAggregationFailure, cause))

	assert.True(t, stderrors.Is(err, ErrAggregationFailure))
	assert.True(t, stderrors.Is(err, cause))
	assert.False(t, stderrors.Is(err, ErrDuplicateSnapshot))
	assert.Equal(t, "AGGREGATION_FAILURE", CodeOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewf(t *testing.T) {
	err := Newf(ErrInvalidCategory, "unknown category %q", "sports-cars")
	assert.True(t, stderrors.Is(err, ErrInvalidCategory))
	assert.Equal(t, `unknown category "sports-cars"`, err.Error())
}

func TestCodeOf_NonDomain(t *testing.T) {
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
	assert.Equal(t, "", CodeOf(nil))
}

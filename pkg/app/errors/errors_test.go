package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryFailure(t *testing.T) {
	err := fmt.Errorf("count StargatePool_OFTSent: %w", QueryFailure(nil, `{"errors":[]}`))

	assert.True(t, IsQueryFailure(err))
	assert.False(t, IsDecodeFailure(err))
	assert.True(t, Is(err, CategoryDependencyFailure))
	assert.Equal(t, http.StatusBadGateway, StatusCode(err))

	var svcErr *ServiceError
	assert.True(t, errors.As(err, &svcErr))
	assert.Equal(t, `{"errors":[]}`, svcErr.Detail)
	assert.Contains(t, err.Error(), "no 'data' in GraphQL response")
}

func TestDecodeFailure(t *testing.T) {
	cause := errors.New("not a number")
	err := DecodeFailure(cause, "amountSentLD")

	assert.True(t, IsDecodeFailure(err))
	assert.False(t, IsQueryFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

func TestDependencyErrorIsNotQueryFailure(t *testing.T) {
	err := DependencyError(errors.New("connection refused"), "indexer request failed")

	assert.True(t, Is(err, CategoryDependencyFailure))
	assert.False(t, IsQueryFailure(err))
}

func TestStatusCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
	assert.Equal(t, http.StatusNotFound, StatusCode(ResourceNotFoundError(nil, "unknown pipeline")))
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(RateLimitedError("slow down")))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "CategoryDataConflict", CategoryDataConflict.String())
	assert.Equal(t, "CategoryGeneralError", Category(99).String())
}

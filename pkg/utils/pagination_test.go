package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaginationParams(t *testing.T) {
	p := GetPaginationParams(0, -1)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)

	p = GetPaginationParams(2, 20)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 20, p.Limit)

	p = GetPaginationParams(1, 1000)
	assert.Equal(t, MaxPageLimit, p.Limit)
}

func TestCalculateOffset(t *testing.T) {
	p := PaginationParams{Page: 1, Limit: 20}
	assert.Equal(t, 0, p.CalculateOffset())

	p = PaginationParams{Page: 3, Limit: 20}
	assert.Equal(t, 40, p.CalculateOffset())

	p = PaginationParams{Page: 0, Limit: 20}
	assert.Equal(t, 0, p.CalculateOffset())
}

func TestCalculateMeta(t *testing.T) {
	meta := CalculateMeta(100, 2, 20)
	require.NotNil(t, meta.Total)
	require.NotNil(t, meta.TotalPages)
	assert.Equal(t, int64(100), *meta.Total)
	assert.Equal(t, 5, *meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)

	last := CalculateMeta(41, 3, 20)
	assert.Equal(t, 3, *last.TotalPages)
	assert.False(t, last.HasNextPage)

	empty := CalculateMeta(0, 1, 10)
	assert.Equal(t, 0, *empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}

func TestCalculateMetaUnknownTotal(t *testing.T) {
	meta := CalculateMetaUnknownTotal(2, 10, 10)
	assert.Nil(t, meta.Total)
	assert.Nil(t, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)

	partial := CalculateMetaUnknownTotal(1, 10, 3)
	assert.False(t, partial.HasNextPage)
	assert.False(t, partial.HasPrevPage)
}

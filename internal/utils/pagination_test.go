package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePagination(t *testing.T) {
	p := NormalizePagination(PaginationParams{Page: 0, Limit: 500, Order: "sideways"})
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, defaultPageLimit, p.Limit)
	assert.Equal(t, "desc", p.Order)

	p = NormalizePagination(PaginationParams{Page: 3, Limit: 50, Order: "asc"})
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, "asc", p.Order)
}

func TestCreatePaginationResult(t *testing.T) {
	result := CreatePaginationResult([]int{1, 2}, 41, PaginationParams{Page: 2, Limit: 20})
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, int64(41), result.Total)
}

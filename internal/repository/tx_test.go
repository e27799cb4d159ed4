package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageSizeNormalize(t *testing.T) {
	size := PageSize{Default: 50, Max: 500}
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, 50},
		{-3, -1, 1, 50},
		{2, 20, 2, 20},
		{1, 500, 1, 500},
		{1, 501, 1, 500},
		{4, 100000, 4, 500},
	}
	for _, tc := range cases {
		page, limit := size.Normalize(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page, "page %d limit %d", tc.page, tc.limit)
		assert.Equal(t, tc.wantLimit, limit, "page %d limit %d", tc.page, tc.limit)
	}

	offset, n := paginate(3, 5000, size)
	assert.Equal(t, 1000, offset)
	assert.Equal(t, 500, n)
}

package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPaginateSlice(t *testing.T) {
	page := Paginate(seq(60), 1, 25)
	assert.Len(t, page, 25)
	assert.Equal(t, 25, page[0])
	assert.Equal(t, 49, page[24])
}

func TestPaginateLastPartialPage(t *testing.T) {
	page := Paginate(seq(60), 2, 25)
	assert.Equal(t, []int{50, 51, 52, 53, 54, 55, 56, 57, 58, 59}, page)
}

func TestPaginateOutOfRange(t *testing.T) {
	tests := []struct {
		name          string
		n, page, size int
	}{
		{"past end", 60, 3, 25},
		{"empty input", 0, 0, 25},
		{"negative page", 60, -1, 25},
		{"zero size", 60, 0, 0},
		{"huge page", 60, 1 << 62, 4},
		{"huge page wrapping negative", 60, 1 << 62, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(seq(tt.n), tt.page, tt.size)
			assert.NotNil(t, page)
			assert.Empty(t, page)
		})
	}
}

func TestPaginateDoesNotAliasTail(t *testing.T) {
	items := seq(10)
	page := Paginate(items, 0, 5)
	page = append(page, 99)
	assert.Equal(t, 5, items[5])
	assert.Len(t, page, 6)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(60, 25))
	assert.Equal(t, 2, PageCount(50, 25))
	assert.Equal(t, 0, PageCount(0, 25))
	assert.Equal(t, 0, PageCount(10, 0))
}

func TestOffset(t *testing.T) {
	off, ok := Offset(3, 25)
	assert.True(t, ok)
	assert.Equal(t, 75, off)

	_, ok = Offset(1<<62, 3)
	assert.False(t, ok)
	_, ok = Offset(-1, 25)
	assert.False(t, ok)
	_, ok = Offset(0, 0)
	assert.False(t, ok)

	off, ok = Offset(MaxPage, 100)
	assert.True(t, ok)
	assert.Equal(t, 100_000_000, off)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageParamsNormalize(t *testing.T) {
	p := PageParams{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)

	p = PageParams{Page: 3, PageSize: 0}.Normalize()
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 20, p.Offset())
}

func TestNewPageNavigation(t *testing.T) {
	page, err := NewPage([]int{1, 2}, 5, PageParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, 3, *page.Next)
	assert.Equal(t, 1, *page.Previous)

	last, err := NewPage([]int{5}, 5, PageParams{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Nil(t, last.Next)
}

func TestNewPageEmptyFirstPage(t *testing.T) {
	page, err := NewPage[int](nil, 0, PageParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Count)
	assert.NotNil(t, page.Results)
	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
}

func TestNewPagePastEnd(t *testing.T) {
	_, err := NewPage[int](nil, 3, PageParams{Page: 5, PageSize: 10})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

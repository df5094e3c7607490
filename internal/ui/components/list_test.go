package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListNewList(t *testing.T) {
	list := NewList(10)
	assert.Equal(t, 10, list.PageSize)
	assert.Equal(t, 0, list.Cursor)
	assert.Equal(t, 0, list.Offset)
	assert.Equal(t, 0, list.Len)
}

func TestListDownMovement(t *testing.T) {
	list := NewList(3)
	list.SetLen(5)

	list.Down()
	assert.Equal(t, 1, list.Cursor)
	assert.Equal(t, 0, list.Offset)

	list.Down()
	list.Down()
	assert.Equal(t, 3, list.Cursor)
	assert.Equal(t, 1, list.Offset)

	list.Down()
	list.Down()
	assert.Equal(t, 4, list.Cursor)
	assert.Equal(t, 2, list.Offset)
}

func TestListUpMovement(t *testing.T) {
	list := NewList(3)
	list.SetLen(5)
	list.Move(10)
	assert.Equal(t, 4, list.Cursor)
	assert.Equal(t, 2, list.Offset)

	list.Up()
	list.Up()
	assert.Equal(t, 2, list.Cursor)
	assert.Equal(t, 2, list.Offset)

	list.Up()
	assert.Equal(t, 1, list.Cursor)
	assert.Equal(t, 1, list.Offset)

	list.Move(-10)
	assert.Equal(t, 0, list.Cursor)
	assert.Equal(t, 0, list.Offset)
}

func TestListEmptyStaysAtZero(t *testing.T) {
	list := NewList(5)
	for _, d := range []int{1, -1, 3, -7, 1} {
		list.Move(d)
		assert.Equal(t, 0, list.Cursor)
	}
	start, end := list.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
	assert.False(t, list.IsSelected(0))
}

func TestListCursorAlwaysInBounds(t *testing.T) {
	list := NewList(4)
	list.SetLen(7)
	for _, d := range []int{1, 1, 1, 1, 1, 1, 1, 1, 1, -1, -1, -1, -1, -1, -1, -1, -1, -1, 1} {
		list.Move(d)
		assert.GreaterOrEqual(t, list.Cursor, 0)
		assert.LessOrEqual(t, list.Cursor, 6)
		start, end := list.Window()
		assert.True(t, list.Cursor >= start && list.Cursor < end)
	}
}

func TestListSetLenShrinksCursor(t *testing.T) {
	list := NewList(3)
	list.SetLen(10)
	list.Move(9)
	list.SetLen(4)
	assert.Equal(t, 3, list.Cursor)
	assert.Equal(t, 1, list.Offset)

	list.SetLen(0)
	assert.Equal(t, 0, list.Cursor)
	assert.Equal(t, 0, list.Offset)
}

func TestListWindow(t *testing.T) {
	list := NewList(3)
	list.SetLen(5)
	start, end := list.Window()
	assert.Equal(t, 0, start)
	assert.Equal(t, 3, end)

	list.Move(4)
	start, end = list.Window()
	assert.Equal(t, 2, start)
	assert.Equal(t, 5, end)
}

func TestListSetPageSizeKeepsCursorVisible(t *testing.T) {
	list := NewList(10)
	list.SetLen(20)
	list.Move(9)
	list.SetPageSize(4)
	start, end := list.Window()
	assert.Equal(t, 6, start)
	assert.Equal(t, 10, end)
}

package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindow_KeepsMostRecent(t *testing.T) {
	w := NewSlidingWindow("doctor", 3, nil)
	for i := 0; i < 5; i++ {
		w.Add("user", fmt.Sprintf("msg-%d", i))
	}

	hist := w.History()
	assert.Len(t, hist, 3)
	assert.Equal(t, "msg-2", hist[0].Content)
	assert.Equal(t, "msg-4", hist[2].Content)
}

func TestSlidingWindow_HistoryIsACopy(t *testing.T) {
	w := NewSlidingWindow("analysis", 10, nil)
	w.Add("user", "original")

	hist := w.History()
	hist[0].Content = "mutated"

	assert.Equal(t, "original", w.History()[0].Content)
}

func TestSlidingWindow_DefaultSize(t *testing.T) {
	w := NewSlidingWindow("camera", 0, nil)
	for i := 0; i < 20; i++ {
		w.Add("user", "x")
	}
	assert.Equal(t, 10, w.Len())
}

func TestNewRedisMirror_EmptyURL(t *testing.T) {
	assert.Nil(t, NewRedisMirror(""))
}

func TestNewRedisMirror_BadURL(t *testing.T) {
	assert.Nil(t, NewRedisMirror("not-a-url"))
}

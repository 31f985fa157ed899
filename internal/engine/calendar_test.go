package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendarPinAndDetect(t *testing.T) {
	cal := DefaultCalendar()

	pinned := cal.Pin(time.Date(2025, time.July, 4, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2099, time.July, 4, 0, 0, 0, 0, time.UTC), pinned)
	assert.True(t, cal.IsPlaceholder(pinned))

	actual := time.Date(2025, time.July, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, actual, cal.Pin(actual))
	assert.False(t, cal.IsPlaceholder(actual))

	assert.False(t, cal.IsPlaceholder(time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsPlaceholder(time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.Pin(time.Time{}).IsZero())
}

func TestParseDateLayouts(t *testing.T) {
	want := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	for _, input := range []string{"2025-03-07", "03/07/2025", "3/7/2025", "2025-03-07T15:04:05Z", "2025-03-07 08:00:00"} {
		got, err := ParseDate(input)
		if assert.NoError(t, err, input) {
			assert.Equal(t, want, got, input)
		}
	}

	_, err := ParseDate("next week")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	qty, err := ParseQuantity("1,250.5")
	assert.NoError(t, err)
	assertDec(t, "1250.5", qty)

	_, err = ParseQuantity("n/a")
	assert.Error(t, err)
}

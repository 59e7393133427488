package timecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0:00", 0},
		{"00:00", 0},
		{"5:30", 330},
		{"05:30", 330},
		{"999:59", 999*60 + 59},
		{"1:02:03", 3723},
		{"0:00:00", 0},
		{"23:59:59", 86399},
		{"1:10:00", 4200},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tc, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tc.Seconds())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"seconds over 59", "1:60"},
		{"minutes over 999", "1000:00"},
		{"hours over 23", "24:00:00"},
		{"three-part minutes over 59", "1:60:00"},
		{"single part", "90"},
		{"four parts", "1:02:03:04"},
		{"empty", ""},
		{"non numeric", "ab:cd"},
		{"negative", "-1:30"},
		{"trailing garbage", "1:2x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.Error(t, err)
			assert.False(t, Valid(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0:00", Format(0))
	assert.Equal(t, "1:05", Format(65))
	assert.Equal(t, "70:00", Format(4200))
	assert.Equal(t, "0:00", Format(-10))
}

func TestPretty(t *testing.T) {
	assert.Equal(t, "5:30", Pretty(330))
	assert.Equal(t, "1:10:00", Pretty(4200))
	assert.Equal(t, "0:00", Pretty(0))
}

func TestFromSecondsRoundTrip(t *testing.T) {
	tc := FromSeconds(3723)
	got, err := Parse("1:02:03")
	require.NoError(t, err)
	assert.Equal(t, tc.Seconds(), got.Seconds())
	assert.Equal(t, "62:03", tc.String())
}

package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horacerta/timeclock/clock"
)

func TestParseTimeOfDay_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"00:00", 0},
		{"08:00", 480},
		{"8:05", 485},
		{"08:00:00", 480},
		{"08:00:59", 480}, // seconds truncated, never rounded
		{"23:59", 1439},
		{" 12:30 ", 750},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := clock.ParseTimeOfDay(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, int(got))
		})
	}
}

func TestParseTimeOfDay_Malformed(t *testing.T) {
	inputs := []string{"", "8", "24:00", "12:60", "ab:cd", "12:3", "12:30:60", "+1:00", "12:30:00:00", "123:00"}
	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := clock.ParseTimeOfDay(input)
			require.Error(t, err)

			var malformed *clock.MalformedTimeError
			assert.ErrorAs(t, err, &malformed)
			assert.ErrorIs(t, err, clock.ErrMalformedTime)
			assert.True(t, clock.IsClientError(err))
		})
	}
}

func TestParsePunchTime_EmptyIsAbsent(t *testing.T) {
	p, err := clock.ParsePunchTime("  ")
	require.NoError(t, err)
	assert.False(t, p.Valid)
	assert.Equal(t, "", p.String())

	p, err = clock.ParsePunchTime("13:15")
	require.NoError(t, err)
	assert.True(t, p.Valid)
	assert.Equal(t, "13:15", p.String())
}

func TestParseDuration_AllowsLongHours(t *testing.T) {
	d, err := clock.ParseDuration("08:48")
	require.NoError(t, err)
	assert.Equal(t, clock.Duration(528), d)

	d, err = clock.ParseDuration("40:00")
	require.NoError(t, err)
	assert.Equal(t, 40*clock.Hour, d)

	_, err = clock.ParseDuration("08:75")
	assert.ErrorIs(t, err, clock.ErrMalformedTime)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 0min", clock.FormatDuration(0))
	assert.Equal(t, "8h 0min", clock.FormatDuration(480))
	assert.Equal(t, "8h 48min", clock.FormatDuration(528))
	assert.Equal(t, "0h 48min", clock.FormatDuration(-48), "magnitude only")
	assert.Equal(t, "125h 5min", clock.FormatDuration(125*60+5))
}

func TestFormatBalance_AlwaysSigned(t *testing.T) {
	assert.Equal(t, "+0h 0min", clock.FormatBalance(0))
	assert.Equal(t, "-0h 48min", clock.FormatBalance(-48))
	assert.Equal(t, "+1h 12min", clock.FormatBalance(72))
	assert.Equal(t, "-10h 0min", clock.FormatBalance(-600))
}

func TestDurationHours_Decimal(t *testing.T) {
	assert.Equal(t, "8.8", clock.Duration(528).Hours().String())
	assert.Equal(t, "-0.8", clock.Duration(-48).Hours().String())
	assert.Equal(t, "0.33", clock.Duration(20).Hours().String())
}

package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/horacerta/timeclock/clock"
)

func TestOpenDayAuditor_Audit(t *testing.T) {
	// GIVEN: A user with five open days in the last four weeks
	h, router := setupTestHandler(t)
	loadScenario(t, router, "open-days")
	auditor := NewOpenDayAuditor(h.Store, h.Service, zaptest.NewLogger(t))

	// WHEN
	report, err := auditor.Audit(context.Background())

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 1, report.Users)
	require.Len(t, report.Open, 5)

	missing := map[clock.PunchType]int{}
	for _, d := range report.Open {
		assert.Equal(t, clock.UserID("user-carla"), d.UserID)
		missing[d.Missing]++
	}
	assert.Equal(t, map[clock.PunchType]int{clock.PunchExit: 3, clock.PunchLunchReturn: 2}, missing)
	assert.Equal(t, report, auditor.LastReport())
}

func TestOpenDayAuditor_Lookback(t *testing.T) {
	h, router := setupTestHandler(t)
	loadScenario(t, router, "open-days")
	auditor := NewOpenDayAuditor(h.Store, h.Service, zaptest.NewLogger(t))

	// The most recent open day is 2024-02-26, more than a week ago
	auditor.LookbackDays = 7
	report, err := auditor.Audit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Open)

	auditor.LookbackDays = 0
	report, err = auditor.Audit(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Open, 5)
}

func TestOpenDayAuditor_StartStop(t *testing.T) {
	h, router := setupTestHandler(t)
	createUser(t, router, "u1")
	require.Equal(t, http.StatusOK, punch(t, router, "u1", "entry", "2024-03-01", "09:00").Code)

	auditor := NewOpenDayAuditor(h.Store, h.Service, zaptest.NewLogger(t))
	auditor.Schedule = "@every 1h"

	// Start runs an audit right away
	require.NoError(t, auditor.Start())
	require.Eventually(t, func() bool {
		return len(auditor.LastReport().Open) == 1
	}, time.Second, 10*time.Millisecond)

	auditor.Stop()
	auditor.Stop()
}

func TestOpenDayAuditor_Disabled(t *testing.T) {
	h, _ := setupTestHandler(t)
	auditor := NewOpenDayAuditor(h.Store, h.Service, zaptest.NewLogger(t))
	auditor.Enabled = false

	require.NoError(t, auditor.Start())
	auditor.Stop()

	assert.True(t, auditor.LastReport().CheckedAt.IsZero())
}

func TestOpenDayAuditor_InvalidSchedule(t *testing.T) {
	h, _ := setupTestHandler(t)
	auditor := NewOpenDayAuditor(h.Store, h.Service, zaptest.NewLogger(t))
	auditor.Schedule = "every now and then"

	assert.Error(t, auditor.Start())
	auditor.Stop()
}

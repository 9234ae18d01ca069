//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

// TestComplianceEndpoints exercises the fleet-level surface: summary,
// calendar, recalculation and the archived report.
func TestComplianceEndpoints(t *testing.T) {
	env := startEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()

	aurora, err := env.API.Ships().Register(ctx, client.RegisterShipRequest{
		Name:      "MV Aurora",
		IMONumber: "9074729",
	})
	require.NoError(t, err)
	_, err = env.API.Ships().SetAnchors(ctx, aurora.ID, client.SetAnchorsRequest{
		AnniversaryDay:   15,
		AnniversaryMonth: 6,
	})
	require.NoError(t, err)

	boreas, err := env.API.Ships().Register(ctx, client.RegisterShipRequest{
		Name:      "MV Boreas",
		IMONumber: "9811000",
	})
	require.NoError(t, err)

	// A certificate expiring inside the two month calendar window below.
	_, err = env.API.Certificates().Create(ctx, client.CreateCertificateRequest{
		ShipID:    aurora.ID,
		Name:      "Safety Equipment Certificate",
		IssueDate: now.AddDate(-5, 0, 0).Format(time.DateOnly),
		ValidDate: now.AddDate(0, 1, 0).Format(time.DateOnly),
	})
	require.NoError(t, err)

	// An expired equipment test on the second ship.
	_, err = env.API.Ships().RecordEquipmentTest(ctx, boreas.ID, "Fire Extinguisher",
		now.AddDate(-1, -2, 0))
	require.NoError(t, err)

	t.Run("Summary", func(t *testing.T) {
		summary, err := env.API.Compliance().Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.TotalShips)
		assert.Equal(t, 1, summary.TotalCertificates)
		assert.Equal(t, 1, summary.TotalEquipment)
		assert.Equal(t, 2, summary.ShipsWithFindings)
	})

	t.Run("Calendar", func(t *testing.T) {
		events, err := env.API.Compliance().Calendar(ctx, client.CalendarOptions{
			From: now,
			To:   now.AddDate(0, 2, 0),
		})
		require.NoError(t, err)
		require.NotEmpty(t, events)

		var found bool
		for _, e := range events {
			if e.Kind == "certificate_expiry" && e.ShipName == "MV Aurora" {
				found = true
			}
		}
		assert.True(t, found, "expected a certificate_expiry event for MV Aurora")
	})

	t.Run("CalendarICal", func(t *testing.T) {
		ics, err := env.API.Compliance().CalendarICal(ctx, client.CalendarOptions{
			From: now,
			To:   now.AddDate(0, 2, 0),
		})
		require.NoError(t, err)
		assert.Contains(t, string(ics), "BEGIN:VCALENDAR")
	})

	t.Run("RecalculateShip", func(t *testing.T) {
		result, err := env.API.Compliance().RecalculateShip(ctx, aurora.ID)
		require.NoError(t, err)
		assert.Equal(t, aurora.ID, result.ShipID)
	})

	t.Run("RecalculateFleetPublishes", func(t *testing.T) {
		resp, err := env.API.Compliance().RecalculateFleet(ctx, "post-audit refresh")
		require.NoError(t, err)
		assert.True(t, resp.Requested)
		assert.Equal(t, "fleet", resp.Scope)

		events := env.Publisher.byTopic(kafka.TopicRecalcRequested)
		require.NotEmpty(t, events)
		assert.Equal(t, kafka.EventTypeRecalcRequested, events[0].EventType)
	})

	t.Run("Report", func(t *testing.T) {
		report, err := env.API.Compliance().Report(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Rows)
		assert.Contains(t, report.DownloadURL, report.ObjectKey)

		env.Archive.mu.Lock()
		stored, ok := env.Archive.objects[report.ObjectKey]
		env.Archive.mu.Unlock()
		require.True(t, ok)
		assert.Contains(t, string(stored), "MV Aurora")
		assert.Contains(t, string(stored), "Fire Extinguisher")
	})
}

package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

func TestShipRegister(t *testing.T) {
	srv := newAPIStub(t, map[string]interface{}{
		"/api/v1/ships": client.Ship{
			ID:        "s-1",
			Name:      "MV Aurora",
			IMONumber: "9074729",
			Status:    "active",
		},
	})
	defer srv.Close()

	out, err := execCommand(t, srv.URL, "ship", "register",
		"--name", "MV Aurora", "--imo", "9074729")
	require.NoError(t, err)
	assert.Contains(t, out, "registered MV Aurora (IMO 9074729) as s-1")
}

func TestShipRegister_MissingFlags(t *testing.T) {
	srv := newAPIStub(t, nil)
	defer srv.Close()

	_, err := execCommand(t, srv.URL, "ship", "register", "--name", "MV Aurora")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imo")
}

func TestShipList_Table(t *testing.T) {
	srv := newAPIStub(t, map[string]interface{}{
		"/api/v1/ships": []client.Ship{
			{ID: "s-1", Name: "MV Aurora", IMONumber: "9074729", Flag: "Panama",
				Status: "active", AnniversaryDay: 15, AnniversaryMonth: 6},
			{ID: "s-2", Name: "MV Boreas", IMONumber: "9811000", Status: "laid_up"},
		},
	})
	defer srv.Close()

	out, err := execCommand(t, srv.URL, "ship", "list", "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "MV Aurora")
	assert.Contains(t, out, "06-15")
	assert.Contains(t, out, "laid_up")
}

func TestShipStatus_Table(t *testing.T) {
	valid := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	srv := newAPIStub(t, map[string]interface{}{
		"/api/v1/ships/s-1/compliance": client.ShipCompliance{
			Ship: &client.Ship{ID: "s-1", Name: "MV Aurora"},
			Certificates: []client.CertificateStatus{{
				Certificate: &client.Certificate{
					Name:      "Load Line Certificate",
					ValidDate: &valid,
				},
				Status: "EXPIRING_SOON",
			}},
			Equipment: []client.EquipmentStatus{{
				Record: &client.TestRecord{
					EquipmentName: "Portable Fire Extinguisher",
					ValidDate:     &valid,
				},
				Status:   "VALID",
				RuleKind: "fixed_interval_12m",
			}},
			AsOf: time.Now(),
		},
	})
	defer srv.Close()

	out, err := execCommand(t, srv.URL, "ship", "status", "--id", "s-1", "--output", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Load Line Certificate")
	assert.Contains(t, out, "2026-04-01")
	assert.Contains(t, out, "EXPIRING_SOON")
	assert.Contains(t, out, "Portable Fire Extinguisher")
}

func TestShipAnchors(t *testing.T) {
	srv := newAPIStub(t, map[string]interface{}{
		"/api/v1/ships/s-1/anchors": client.Ship{
			ID: "s-1", Name: "MV Aurora",
			AnniversaryDay: 15, AnniversaryMonth: 6,
		},
	})
	defer srv.Close()

	out, err := execCommand(t, srv.URL, "ship", "anchors",
		"--id", "s-1", "--day", "15", "--month", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "anchors set on MV Aurora")
}

func TestShipAnchors_BadCycleDate(t *testing.T) {
	srv := newAPIStub(t, nil)
	defer srv.Close()

	_, err := execCommand(t, srv.URL, "ship", "anchors",
		"--id", "s-1", "--day", "15", "--month", "6", "--cycle-to", "June 2027")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

// NewFleetCommand groups the fleet-level compliance commands.
func NewFleetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Fleet-level compliance: summary, calendar, recalculation, reports",
	}
	cmd.AddCommand(
		newFleetStatusCmd(),
		newFleetCalendarCmd(),
		newFleetRecalcCmd(),
		newFleetReportCmd(),
	)
	return cmd
}

// fleetStatusResult wraps the summary for table rendering.
type fleetStatusResult struct {
	*client.FleetSummary
}

func (r fleetStatusResult) TableHeaders() []string {
	return []string{"METRIC", "VALUE"}
}

func (r fleetStatusResult) TableRows() [][]string {
	rows := [][]string{
		{"ships", strconv.Itoa(r.TotalShips)},
		{"certificates", strconv.Itoa(r.TotalCertificates)},
		{"equipment", strconv.Itoa(r.TotalEquipment)},
		{"ships with findings", strconv.Itoa(r.ShipsWithFindings)},
	}
	rows = append(rows, statusRows("certificates ", r.CertificateStatus)...)
	rows = append(rows, statusRows("equipment ", r.EquipmentStatus)...)
	rows = append(rows, statusRows("windows ", r.WindowStatus)...)
	return rows
}

func statusRows(prefix string, counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{prefix + k, strconv.Itoa(counts[k])})
	}
	return rows
}

func newFleetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the aggregated fleet compliance summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			summary, err := cliCtx.Client.Compliance().Summary(cmd.Context())
			if err != nil {
				return err
			}
			return PrintResult(cmd, fleetStatusResult{summary})
		},
	}
}

// calendarResult wraps calendar events for table rendering.
type calendarResult []client.CalendarEvent

func (calendarResult) TableHeaders() []string {
	return []string{"DATE", "SHIP", "KIND", "TITLE", "STATUS"}
}

func (r calendarResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		status := e.Status
		if e.Kind == "survey" {
			status = e.WindowStatus
		}
		rows = append(rows, []string{
			e.Date.Format(time.DateOnly), e.ShipName, e.Kind, e.Title, status,
		})
	}
	return rows
}

func newFleetCalendarCmd() *cobra.Command {
	var fromStr, toStr string
	var ics bool

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the fleet survey calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var opts client.CalendarOptions
			if fromStr != "" {
				if opts.From, err = time.Parse(time.DateOnly, fromStr); err != nil {
					return fmt.Errorf("invalid --from date %q: expected YYYY-MM-DD", fromStr)
				}
			}
			if toStr != "" {
				if opts.To, err = time.Parse(time.DateOnly, toStr); err != nil {
					return fmt.Errorf("invalid --to date %q: expected YYYY-MM-DD", toStr)
				}
			}

			if ics {
				data, err := cliCtx.Client.Compliance().CalendarICal(cmd.Context(), opts)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			events, err := cliCtx.Client.Compliance().Calendar(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, calendarResult(events))
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "range start (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&toStr, "to", "", "range end (YYYY-MM-DD, default +90 days)")
	cmd.Flags().BoolVar(&ics, "ics", false, "emit the calendar in iCalendar format")
	return cmd
}

func newFleetRecalcCmd() *cobra.Command {
	var shipID, reason string

	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recalculate survey schedules for one ship or the whole fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			if shipID != "" {
				result, err := cliCtx.Client.Compliance().RecalculateShip(cmd.Context(), shipID)
				if err != nil {
					return err
				}
				PrintSuccess(cmd, fmt.Sprintf("ship %s: %d certificates, %d equipment records updated",
					result.ShipID, result.CertificatesUpdated, result.EquipmentUpdated))
				return nil
			}

			resp, err := cliCtx.Client.Compliance().RecalculateFleet(cmd.Context(), reason)
			if err != nil {
				return err
			}
			if resp.Requested {
				PrintSuccess(cmd, "fleet recalculation requested")
				return nil
			}
			PrintSuccess(cmd, fmt.Sprintf("fleet recalculated: %d ships, %d certificates, %d equipment records updated",
				resp.ShipsProcessed, resp.CertificatesUpdated, resp.EquipmentUpdated))
			return nil
		},
	}

	cmd.Flags().StringVar(&shipID, "ship", "", "recalculate only this ship ID")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded on the recalculation request")
	return cmd
}

func newFleetReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate and archive the fleet compliance CSV report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			report, err := cliCtx.Client.Compliance().Report(cmd.Context())
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("%d rows archived as %s", report.Rows, report.ObjectKey))
			fmt.Fprintln(cmd.OutOrStdout(), report.DownloadURL)
			return nil
		},
	}
}

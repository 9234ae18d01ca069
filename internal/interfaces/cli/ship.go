package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

// NewShipCommand groups the fleet registry commands.
func NewShipCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ship",
		Short: "Fleet registry: register ships, set anchors, inspect compliance",
	}
	cmd.AddCommand(
		newShipRegisterCmd(),
		newShipListCmd(),
		newShipStatusCmd(),
		newShipAnchorsCmd(),
	)
	return cmd
}

func newShipRegisterCmd() *cobra.Command {
	var req client.RegisterShipRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Add a ship to the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ship, err := cliCtx.Client.Ships().Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("registered %s (IMO %s) as %s", ship.Name, ship.IMONumber, ship.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "ship name (required)")
	cmd.Flags().StringVar(&req.IMONumber, "imo", "", "IMO number (required)")
	cmd.Flags().StringVar(&req.Flag, "flag", "", "flag state")
	cmd.Flags().StringVar(&req.ShipType, "type", "", "ship type")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("imo")
	return cmd
}

// shipListResult wraps ships for table rendering.
type shipListResult []client.Ship

func (shipListResult) TableHeaders() []string {
	return []string{"ID", "NAME", "IMO", "FLAG", "STATUS", "ANNIVERSARY"}
}

func (r shipListResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, s := range r {
		anniversary := "-"
		if s.AnniversaryMonth > 0 {
			anniversary = fmt.Sprintf("%02d-%02d", s.AnniversaryMonth, s.AnniversaryDay)
		}
		rows = append(rows, []string{s.ID, s.Name, s.IMONumber, s.Flag, s.Status, anniversary})
	}
	return rows
}

func newShipListCmd() *cobra.Command {
	var opts client.ListShipsOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered ships",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ships, page, err := cliCtx.Client.Ships().List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if err := PrintResult(cmd, shipListResult(ships)); err != nil {
				return err
			}
			if page != nil && page.Total > int64(len(ships)) {
				fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d ships shown)\n", len(ships), page.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (active, laid_up, inactive, archived)")
	cmd.Flags().StringVar(&opts.Flag, "flag", "", "filter by flag state")
	cmd.Flags().StringVar(&opts.NameQuery, "q", "", "filter by name substring")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 0, "page size")
	return cmd
}

// shipComplianceResult renders the per-ship schedule view.
type shipComplianceResult struct {
	*client.ShipCompliance
}

func (shipComplianceResult) TableHeaders() []string {
	return []string{"KIND", "NAME", "VALID", "NEXT SURVEY", "STATUS"}
}

func (r shipComplianceResult) TableRows() [][]string {
	var rows [][]string
	for _, v := range r.Certificates {
		c := v.Certificate
		status := v.Status
		if v.WindowStatus != "" {
			status += " / " + v.WindowStatus
		}
		rows = append(rows, []string{
			"certificate", c.Name, formatDate(c.ValidDate), formatDate(c.NextSurveyDate), status,
		})
	}
	for _, v := range r.Equipment {
		rows = append(rows, []string{
			"equipment", v.Record.EquipmentName, formatDate(v.Record.ValidDate), "-", v.Status,
		})
	}
	return rows
}

func newShipStatusCmd() *cobra.Command {
	var shipID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a ship's graded certificate and equipment schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			view, err := cliCtx.Client.Ships().Compliance(cmd.Context(), shipID)
			if err != nil {
				return err
			}
			return PrintResult(cmd, shipComplianceResult{view})
		},
	}

	cmd.Flags().StringVar(&shipID, "id", "", "ship ID (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newShipAnchorsCmd() *cobra.Command {
	var shipID, cycleTo string
	var day, month int

	cmd := &cobra.Command{
		Use:   "anchors",
		Short: "Set a ship's anniversary and special survey cycle anchors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if cycleTo != "" {
				if _, err := time.Parse(time.DateOnly, cycleTo); err != nil {
					return fmt.Errorf("invalid --cycle-to date %q: expected YYYY-MM-DD", cycleTo)
				}
			}

			ship, err := cliCtx.Client.Ships().SetAnchors(cmd.Context(), shipID, client.SetAnchorsRequest{
				AnniversaryDay:   day,
				AnniversaryMonth: month,
				CycleTo:          cycleTo,
			})
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("anchors set on %s: anniversary %s-%s",
				ship.Name, strconv.Itoa(ship.AnniversaryMonth), strconv.Itoa(ship.AnniversaryDay)))
			return nil
		},
	}

	cmd.Flags().StringVar(&shipID, "id", "", "ship ID (required)")
	cmd.Flags().IntVar(&day, "day", 0, "anniversary day of month (required)")
	cmd.Flags().IntVar(&month, "month", 0, "anniversary month (required)")
	cmd.Flags().StringVar(&cycleTo, "cycle-to", "", "special survey cycle end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

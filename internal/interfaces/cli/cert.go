package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/SeaCert-Compliance/pkg/client"
)

// NewCertCommand groups the certificate commands.
func NewCertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Certificates: add, endorse, renew and inspect survey windows",
	}
	cmd.AddCommand(
		newCertAddCmd(),
		newCertNextCmd(),
		newCertEndorseCmd(),
		newCertRenewCmd(),
	)
	return cmd
}

func newCertAddCmd() *cobra.Command {
	var req client.CreateCertificateRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a certificate; the server derives its schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			cert, err := cliCtx.Client.Certificates().Create(cmd.Context(), req)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("certificate %q registered as %s", cert.Name, cert.ID)
			if cert.NextSurveyDate != nil {
				msg += fmt.Sprintf(", next survey %s (%s)",
					cert.NextSurveyDate.Format(time.DateOnly), cert.NextSurveyType)
			}
			PrintSuccess(cmd, msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ShipID, "ship", "", "ship ID (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "certificate name (required)")
	cmd.Flags().StringVar(&req.Category, "category", "", "category (full_term, short_term, interim, national, ...)")
	cmd.Flags().StringVar(&req.IssueDate, "issue", "", "issue date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&req.ValidDate, "valid", "", "valid-until date YYYY-MM-DD")
	cmd.Flags().StringVar(&req.SurveyAnnotation, "annotation", "", `survey window annotation ("±3M", "-3M")`)
	_ = cmd.MarkFlagRequired("ship")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("issue")
	return cmd
}

// certWindowResult renders a certificate's window.
type certWindowResult struct {
	*client.CertificateWindow
}

func (certWindowResult) TableHeaders() []string {
	return []string{"TARGET", "OPENS", "CLOSES", "TYPE", "STATUS"}
}

func (r certWindowResult) TableRows() [][]string {
	if !r.Schedulable || r.Window == nil {
		return nil
	}
	w := r.Window
	return [][]string{{
		w.TargetDate.Format(time.DateOnly),
		w.WindowOpen.Format(time.DateOnly),
		w.WindowClose.Format(time.DateOnly),
		w.WindowType,
		r.WindowStatus,
	}}
}

func newCertNextCmd() *cobra.Command {
	var certID string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show a certificate's next survey window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			view, err := cliCtx.Client.Certificates().Window(cmd.Context(), certID)
			if err != nil {
				return err
			}
			if !view.Schedulable {
				fmt.Fprintln(cmd.OutOrStdout(), "no survey scheduled")
				return nil
			}
			return PrintResult(cmd, certWindowResult{view})
		},
	}

	cmd.Flags().StringVar(&certID, "id", "", "certificate ID (required)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newCertEndorseCmd() *cobra.Command {
	var certID, dateStr string

	cmd := &cobra.Command{
		Use:   "endorse",
		Short: "Record an endorsement; DOC certificates advance to the next audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			date, err := time.Parse(time.DateOnly, dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", dateStr)
			}

			cert, err := cliCtx.Client.Certificates().Endorse(cmd.Context(), certID, date)
			if err != nil {
				return err
			}

			msg := fmt.Sprintf("certificate %q endorsed", cert.Name)
			if cert.NextSurveyDate != nil {
				msg += fmt.Sprintf(", next survey %s (%s)",
					cert.NextSurveyDate.Format(time.DateOnly), cert.NextSurveyType)
			} else {
				msg += ", audit cycle complete"
			}
			PrintSuccess(cmd, msg)
			return nil
		},
	}

	cmd.Flags().StringVar(&certID, "id", "", "certificate ID (required)")
	cmd.Flags().StringVar(&dateStr, "date", "", "endorsement date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newCertRenewCmd() *cobra.Command {
	var certID, issueStr, validStr string

	cmd := &cobra.Command{
		Use:   "renew",
		Short: "Renew a certificate with new issue and valid dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			issue, err := time.Parse(time.DateOnly, issueStr)
			if err != nil {
				return fmt.Errorf("invalid --issue %q: expected YYYY-MM-DD", issueStr)
			}
			valid, err := time.Parse(time.DateOnly, validStr)
			if err != nil {
				return fmt.Errorf("invalid --valid %q: expected YYYY-MM-DD", validStr)
			}

			cert, err := cliCtx.Client.Certificates().Renew(cmd.Context(), certID, issue, valid)
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("certificate %q renewed until %s",
				cert.Name, formatDate(cert.ValidDate)))
			return nil
		},
	}

	cmd.Flags().StringVar(&certID, "id", "", "certificate ID (required)")
	cmd.Flags().StringVar(&issueStr, "issue", "", "new issue date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&validStr, "valid", "", "new valid-until date YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("issue")
	_ = cmd.MarkFlagRequired("valid")
	return cmd
}

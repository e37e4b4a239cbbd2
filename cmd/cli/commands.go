package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/iho/gobooks/internal/adapter/csvchart"
	"github.com/iho/gobooks/internal/adapter/http/dto"
)

func accountsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Chart of accounts operations",
	}

	var accountType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if accountType != "" {
				q.Set("type", accountType)
			}
			var resp dto.ListAccountsResponse
			if err := opts.client().do(http.MethodGet, "/accounts?"+q.Encode(), nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tTYPE\tCATEGORY\tACTIVE")
			for _, a := range resp.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", a.Code, a.Name, a.Type, a.Category, a.Active)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&accountType, "type", "", "Only list accounts of this type")

	export := &cobra.Command{
		Use:   "export",
		Short: "Write the chart of accounts as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if err := opts.client().do(http.MethodGet, "/accounts/export", nil, &raw); err != nil {
				return err
			}
			_, err := cmd.OutOrStdout().Write(raw)
			return err
		},
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create the accounts listed in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return importAccounts(opts, f, cmd.OutOrStdout())
		},
	}

	balance := &cobra.Command{
		Use:   "balance CODE",
		Short: "Show the balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.AccountBalanceResponse
			if err := opts.client().do(http.MethodGet, "/accounts/"+url.PathEscape(args[0])+"/balance", nil, &resp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", resp.Code, resp.Name, amount(opts.printer(), resp.Balance))
			return nil
		},
	}

	cmd.AddCommand(list, export, importCmd, balance)
	return cmd
}

// importAccounts creates every account in the CSV. Existing codes are
// skipped so an import can be re-run.
func importAccounts(opts *options, r io.Reader, out io.Writer) error {
	accounts, err := csvchart.ReadAccounts(r)
	if err != nil {
		return err
	}

	client := opts.client()
	created, skipped := 0, 0
	for _, a := range accounts {
		req := dto.CreateAccountRequest{
			Code:        a.Code,
			Name:        a.Name,
			Type:        string(a.Type),
			Category:    string(a.Category),
			ParentCode:  a.ParentCode,
			Description: a.Description,
		}
		err := client.do(http.MethodPost, "/accounts", req, nil)
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("account %s: %w", a.Code, err)
		}
		created++
	}

	fmt.Fprintf(out, "created %d accounts, skipped %d existing\n", created, skipped)
	return nil
}

func reportsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Financial statements",
	}

	balanceSheet := &cobra.Command{
		Use:   "balance-sheet",
		Short: "Print the balance sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			var bs dto.BalanceSheetResponse
			if err := opts.client().do(http.MethodGet, "/reports/balance-sheet", nil, &bs); err != nil {
				return err
			}
			printBalanceSheet(cmd.OutOrStdout(), opts.printer(), &bs)
			return nil
		},
	}

	var from, to string
	income := &cobra.Command{
		Use:   "income-statement",
		Short: "Print the income statement for a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			var is dto.IncomeStatementResponse
			if err := opts.client().do(http.MethodGet, "/reports/income-statement?"+q.Encode(), nil, &is); err != nil {
				return err
			}
			printIncomeStatement(cmd.OutOrStdout(), opts.printer(), &is)
			return nil
		},
	}
	income.Flags().StringVar(&from, "from", "", "Period start (YYYY-MM-DD)")
	income.Flags().StringVar(&to, "to", "", "Period end (YYYY-MM-DD)")

	trial := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print debit and credit totals per account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tb dto.TrialBalanceResponse
			if err := opts.client().do(http.MethodGet, "/reports/trial-balance", nil, &tb); err != nil {
				return err
			}
			p := opts.printer()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "CODE\tNAME\tDEBIT\tCREDIT\t")
			for _, l := range tb.Lines {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", l.Code, l.Name, amount(p, l.Debit), amount(p, l.Credit))
			}
			fmt.Fprintf(tw, "\tTotal\t%s\t%s\t\n", amount(p, tb.TotalDebit), amount(p, tb.TotalCredit))
			if err := tw.Flush(); err != nil {
				return err
			}
			if !tb.Balanced {
				return fmt.Errorf("trial balance does not balance")
			}
			return nil
		},
	}

	cmd.AddCommand(balanceSheet, income, trial)
	return cmd
}

func printSection(w io.Writer, p *message.Printer, title string, s dto.SectionResponse) {
	if len(s.Lines) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", title)
	for _, l := range s.Lines {
		fmt.Fprintf(w, "    %s %-30s %15s\n", l.Code, l.Name, amount(p, l.Balance))
	}
}

func printBalanceSheet(w io.Writer, p *message.Printer, bs *dto.BalanceSheetResponse) {
	fmt.Fprintln(w, "ASSETS")
	printSection(w, p, "Current", bs.Assets.Current)
	printSection(w, p, "Fixed", bs.Assets.Fixed)
	printSection(w, p, "Other", bs.Assets.Other)
	fmt.Fprintf(w, "  %-35s %15s\n", "Total assets", amount(p, bs.Assets.Total))

	fmt.Fprintln(w, "LIABILITIES")
	printSection(w, p, "Current", bs.Liabilities.Current)
	printSection(w, p, "Long term", bs.Liabilities.LongTerm)
	printSection(w, p, "Other", bs.Liabilities.Other)
	fmt.Fprintf(w, "  %-35s %15s\n", "Total liabilities", amount(p, bs.Liabilities.Total))

	fmt.Fprintln(w, "EQUITY")
	printSection(w, p, "Equity", bs.Equity)
	fmt.Fprintf(w, "  %-35s %15s\n", "Current earnings", amount(p, bs.CurrentEarnings))
	fmt.Fprintf(w, "  %-35s %15s\n", "Total liabilities and equity", amount(p, bs.TotalLiabilitiesAndEquity))

	if bs.Balanced {
		fmt.Fprintln(w, "Balanced: yes")
	} else {
		fmt.Fprintln(w, "Balanced: NO")
	}
}

func printIncomeStatement(w io.Writer, p *message.Printer, is *dto.IncomeStatementResponse) {
	fmt.Fprintf(w, "INCOME STATEMENT %s to %s\n", is.From, is.To)
	printSection(w, p, "Revenues", is.Revenues)
	printSection(w, p, "Cost of sales", is.Costs)
	fmt.Fprintf(w, "  %-35s %15s\n", "Gross profit", amount(p, is.GrossProfit))
	printSection(w, p, "Expenses", is.Expenses)
	fmt.Fprintf(w, "  %-35s %15s\n", "Net income", amount(p, is.NetIncome))
}

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistency := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ReconciliationResponse
			err := opts.client().do(http.MethodGet, "/ledger/consistency", nil, &report)
			if err != nil {
				return fmt.Errorf("consistency check FAILED: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Consistency check PASSED\n")
			fmt.Fprintf(out, "Accounts: %d reconciled of %d\n", report.ReconciledAccounts, report.TotalAccounts)
			for _, d := range report.Discrepancies {
				fmt.Fprintf(out, "Drift %s: recorded %s, calculated %s\n", d.AccountCode, d.Recorded, d.Calculated)
			}
			if report.Rebuilt {
				fmt.Fprintln(out, "Balances were rebuilt from the journal")
			}
			return nil
		},
	}

	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every balance from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().do(http.MethodPost, "/ledger/rebuild", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "balances rebuilt")
			return nil
		},
	}

	cmd.AddCommand(consistency, rebuild)
	return cmd
}

func entriesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Journal operations",
	}

	var description, date string
	reverse := &cobra.Command{
		Use:   "reverse ID",
		Short: "Post an entry that offsets entry ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry dto.EntryResponse
			req := dto.ReverseEntryRequest{Date: date, Description: description}
			if err := opts.client().do(http.MethodPost, "/entries/"+url.PathEscape(args[0])+"/reverse", req, &entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted reversal entry %d on %s\n", entry.ID, entry.Date)
			return nil
		},
	}
	reverse.Flags().StringVar(&date, "date", "", "Reversal date (YYYY-MM-DD), today when empty")
	reverse.Flags().StringVar(&description, "description", "", "Reversal description")

	cmd.AddCommand(reverse)
	return cmd
}

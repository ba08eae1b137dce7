package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"credit-sales/calculator"
	"credit-sales/cli"
	"credit-sales/domain"
	"credit-sales/service"
)

type loanFlags struct {
	amount float64
	term   int
	rate   float64
	json   bool
}

func (f *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&f.amount, "amount", "a", 0, "Loan amount")
	cmd.Flags().IntVarP(&f.term, "term", "t", 0, "Term in months")
	cmd.Flags().Float64VarP(&f.rate, "rate", "r", 0, "Nominal annual interest rate, in percent")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON instead of a table")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("term")
}

func (f *loanFlags) request() domain.LoanRequest {
	return domain.LoanRequest{
		Principal:         f.amount,
		TermMonths:        f.term,
		AnnualRatePercent: f.rate,
	}
}

func newQuoteCmd(a *app) *cobra.Command {
	var flags loanFlags

	cmd := &cobra.Command{
		Use:     "quote",
		Short:   "Monthly payment and totals of a loan",
		Example: "  credit-sales quote --amount 10000 --term 24 --rate 12.5",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loans := service.NewLoanService(nil, nil, service.WithLogger(a.logger))
			req := flags.request()

			quote, err := loans.CalculateLoan(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, quote)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTitle("COTIZACIÓN DE PRÉSTAMO"))
			fmt.Fprintln(out)
			fmt.Fprint(out, cli.RenderQuote(req, quote))
			return nil
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("rate")
	return cmd
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		flags  loanFlags
		months int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Quote plus the first months of the amortization schedule",
		Long: "Quote plus the first months of the amortization schedule. " +
			"A zero rate is accepted and amortizes in equal installments.",
		Example: "  credit-sales simulate --amount 12000 --term 12 --rate 0 --months 6",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if months < 0 {
				return errors.New("--months cannot be negative")
			}
			loans := service.NewLoanService(nil, nil, service.WithLogger(a.logger))
			req := flags.request()

			sim, err := loans.SimulateLoan(cmd.Context(), req, months)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.json {
				return printJSON(out, sim)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTitle("SIMULACIÓN DE PRÉSTAMO"))
			fmt.Fprintln(out)
			fmt.Fprint(out, cli.RenderQuote(req, sim.Quote))
			fmt.Fprintln(out)
			fmt.Fprint(out, cli.RenderSchedule(sim.Schedule))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&months, "months", "m", calculator.DefaultScheduleEntries, "Schedule rows to show")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

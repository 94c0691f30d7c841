package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"finplan/internal/core"
	"finplan/internal/projection"
	"finplan/internal/report"
	"finplan/internal/scenario"
	"finplan/internal/services"
)

func newProjectCmd(opts *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a scenario file without storing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}
			in, err := s.Inputs()
			if err != nil {
				return err
			}
			p, err := projection.New(in).Generate()
			if err != nil {
				return fmt.Errorf("generate projection: %w", err)
			}
			if !opts.asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), assumptions(in))
			}
			return opts.printProjection(cmd.OutOrStdout(), s.Name(), p)
		},
	}
	cmd.Flags().StringVarP(&path, "scenario", "s", "", "TOML scenario file")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store the household described by a scenario file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := scenario.Load(path)
			if err != nil {
				return err
			}
			h, err := s.Household()
			if err != nil {
				return err
			}
			repo, ctx, err := opts.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			id, err := repo.ImportHousehold(ctx, h)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported household %q with id %d (%d people, %d lump sums)\n",
				h.Name, id, len(h.People), len(h.LumpSums))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "scenario", "s", "", "TOML scenario file with [household] and [[person]] tables")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newShowCmd(opts *options) *cobra.Command {
	var (
		householdID int64
		latest      bool
		save        bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Project a stored household",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if householdID <= 0 {
				return errors.New("--household must be a positive id")
			}
			repo, ctx, err := opts.openRepo(cmd)
			if err != nil {
				return err
			}
			defer repo.Close()

			svc := services.NewProjectionService(repo, nil, services.DefaultProjectionServiceConfig(), opts.logger(cmd.ErrOrStderr()))
			title := fmt.Sprintf("Household #%d", householdID)

			switch {
			case latest:
				run, err := svc.LatestRun(ctx, householdID)
				if err != nil {
					return err
				}
				title += " (run " + run.CreatedAt.Local().Format(time.DateTime) + ")"
				return opts.printProjection(cmd.OutOrStdout(), title, run.Projection)
			case save:
				run, err := svc.Refresh(ctx, householdID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved projection run %d\n", run.ID)
				return opts.printProjection(cmd.OutOrStdout(), title, run.Projection)
			default:
				p, err := svc.Project(ctx, householdID, core.InputsPatch{})
				if err != nil {
					return err
				}
				return opts.printProjection(cmd.OutOrStdout(), title, p)
			}
		},
	}
	cmd.Flags().Int64Var(&householdID, "household", 0, "Stored household id")
	cmd.Flags().BoolVar(&latest, "latest", false, "Show the latest saved run instead of projecting now")
	cmd.Flags().BoolVar(&save, "save", false, "Save the projection as a new run")
	cmd.MarkFlagsMutuallyExclusive("latest", "save")
	_ = cmd.MarkFlagRequired("household")
	return cmd
}

func assumptions(in core.ProjectionInputs) string {
	return fmt.Sprintf("Income %s/mo (+%s/yr)  Expenses %s/mo (+%s/yr)  Savings %s @ %s  Investments %s @ %s",
		report.Money(in.MonthlyIncome), report.Percent(in.IncomeGrowthRate),
		report.Money(in.MonthlyExpenses), report.Percent(in.ExpenseGrowthRate),
		report.Money(in.CurrentSavings), report.Percent(in.SavingsInterestRate),
		report.Money(in.CurrentInvestments), report.Percent(in.InvestmentReturnRate))
}

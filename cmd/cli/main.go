package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inspectdash/adapters/excel"
	"inspectdash/internal"
	"inspectdash/internal/analysis"
	"inspectdash/internal/config"
	"inspectdash/internal/container"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("✗ "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dataFile string

	rootCmd := &cobra.Command{
		Use:           "inspectdash-cli",
		Short:         "Inspection dashboard CLI for checking and summarising the data file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataFile, "file", "", "Data file to read (overrides EXCEL_FILE)")

	rootCmd.AddCommand(
		newSummaryCmd(&dataFile),
		newOwnerCmd(&dataFile),
		newCheckCmd(&dataFile),
		newExportCmd(&dataFile),
	)
	return rootCmd
}

// newContainer loads configuration the same way the server does. The CLI
// never watches the file.
func newContainer(dataFile string) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataFile != "" {
		cfg.Data.ExcelFile = dataFile
	}
	cfg.Data.Watch = false

	// Terminal output is the report; logs stay quiet unless asked for
	level := internal.LogLevelError
	if os.Getenv("LOG_LEVEL") != "" {
		level = internal.ParseLogLevel(cfg.LogLevel)
	}
	logger, err := internal.NewLogger(level)
	if err != nil {
		return nil, err
	}
	return container.New(cfg, logger)
}

func newSummaryCmd(dataFile *string) *cobra.Command {
	var sel analysis.Selection
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard indicators and pending ranking",
		Long: `Print total, closed and pending observations, the compliance percentage
and the ranking of owners with pending observations.

Example: inspectdash-cli summary --month Enero --section Taller`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(*dataFile)
			if err != nil {
				return err
			}
			return runSummary(cmd.Context(), cmd.OutOrStdout(), c, sel, asJSON)
		},
	}

	cmd.Flags().StringVar(&sel.Month, "month", "", "Month to show (default: all)")
	cmd.Flags().StringVar(&sel.Section, "section", "", "Section to show (default: all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func runSummary(ctx context.Context, out io.Writer, c *container.Container, sel analysis.Selection, asJSON bool) error {
	view, err := c.Dashboard.Dashboard(ctx, sel)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	fmt.Fprintln(out, titleStyle.Render(c.Config.UI.Title))
	fmt.Fprintf(out, "Visualizando: %s | %s | Registros: %d\n\n", sel.MonthLabel(), sel.SectionLabel(), view.Summary.Total)
	fmt.Fprintln(out, renderKPIs(view.Summary))
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("Ranking: Responsables con más Pendientes"))
	if !view.Summary.HasPendingOwners() {
		fmt.Fprintln(out, okStyle.Render("🎉 ¡Sin pendientes con los filtros aplicados!"))
		return nil
	}
	fmt.Fprintln(out, renderRanking(view.Summary.PendingRanking, view.Summary.MaxRankingCount()))
	return nil
}

func newOwnerCmd(dataFile *string) *cobra.Command {
	var sel analysis.Selection

	cmd := &cobra.Command{
		Use:   "owner NAME",
		Short: "List the pending observations of one owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !analysis.IsOwnerSelected(args[0]) {
				return fmt.Errorf("owner name is required")
			}
			c, err := newContainer(*dataFile)
			if err != nil {
				return err
			}
			return runOwner(cmd.Context(), cmd.OutOrStdout(), c, sel, args[0])
		},
	}

	cmd.Flags().StringVar(&sel.Month, "month", "", "Month to show (default: all)")
	cmd.Flags().StringVar(&sel.Section, "section", "", "Section to show (default: all)")
	return cmd
}

func runOwner(ctx context.Context, out io.Writer, c *container.Container, sel analysis.Selection, owner string) error {
	view, err := c.Dashboard.Owner(ctx, sel, owner)
	if err != nil {
		return err
	}

	detail := view.Detail
	if detail.Congratulate {
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("🎊 ¡Felicidades %s! No tienes deudas con los filtros actuales.", detail.Owner)))
		return nil
	}

	fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Hola %s, tienes %d pendientes en esta selección.", detail.Owner, detail.PendingCount())))
	for _, o := range detail.Pending {
		fmt.Fprintln(out, renderObservation(o))
	}
	return nil
}

func newCheckCmd(dataFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the data file and report what normalization changed",
		Long: `Load the data file exactly as the dashboard does and report the sheet,
content hash, row count and any status values that were not recognised.

Exits non-zero when the file cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(*dataFile)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), c)
		},
	}
}

func runCheck(ctx context.Context, out io.Writer, c *container.Container) error {
	ds, err := c.Loader.Load(ctx)
	if err != nil {
		return err
	}

	source := ds.Records.Source
	report := ds.Report
	fmt.Fprintln(out, okStyle.Render("✓ "+source.Path))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Hoja:"), source.Sheet)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Hash:"), source.Hash.Short())
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Registros:"), report.Rows)

	if !report.StatusColumn {
		fmt.Fprintln(out, warnStyle.Render("Sin columna de estado: todos los registros cuentan como pendientes."))
	}
	if !report.OwnerColumn {
		fmt.Fprintln(out, warnStyle.Render("Sin columna de responsable: el ranking estará vacío."))
	}
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Estados vacíos:"), report.BlankStatuses)
	fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Responsables vacíos:"), report.BlankOwners)
	if report.Clamped > 0 {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("%d estados no reconocidos se cuentan como pendientes:", report.Clamped)))
		for _, value := range sortedKeys(report.ClampedValues) {
			fmt.Fprintf(out, "  %q × %d\n", value, report.ClampedValues[value])
		}
	}
	return nil
}

func newExportCmd(dataFile *string) *cobra.Command {
	var sel analysis.Selection
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered table to a new workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer(*dataFile)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), c, sel, output)
		},
	}

	cmd.Flags().StringVar(&sel.Month, "month", "", "Month to export (default: all)")
	cmd.Flags().StringVar(&sel.Section, "section", "", "Section to export (default: all)")
	cmd.Flags().StringVarP(&output, "output", "o", "inspecciones.xlsx", "Workbook to write")
	return cmd
}

func runExport(ctx context.Context, out io.Writer, c *container.Container, sel analysis.Selection, output string) error {
	view, err := c.Dashboard.Dashboard(ctx, sel)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	if err := excel.WriteWorkbook(f, excel.DefaultSheetName, view.Records.Headers, view.Records.Rows); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("✓ %d registros escritos en %s", view.Records.Len(), output)))
	return nil
}

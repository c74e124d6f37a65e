package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"carbon-registry/internal/application/export"
	"carbon-registry/internal/application/ledger"
	"carbon-registry/internal/pkg/format"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func addFilterFlags(cmd *cobra.Command, f *ledger.EmissionFilter) {
	cmd.Flags().StringVar(&f.ProjectID, "project", "", "Only records of this project id")
	cmd.Flags().StringVar(&f.Methodology, "methodology", "", "Only records of this methodology code")
	cmd.Flags().StringVar(&f.From, "from", "", "Earliest record date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.To, "to", "", "Latest record date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "Maximum number of records (0 for all)")
}

func newEmissionsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "emissions",
		Aliases: []string{"em"},
		Short:   "Inspect and export emission records",
	}

	var listFilter ledger.EmissionFilter
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List emission records, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := s.store.ListEmissions(cmd.Context(), listFilter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No emission records.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "ID\tMETHODOLOGY\tDATE\tQUANTITY\t")
			var total float64
			for _, e := range rows {
				total += e.QuantityTCO2e
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", e.EmissionID, e.Methodology, e.RecordDate, format.TCO2e(e.QuantityTCO2e))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s records, total %s\n", format.Int(int64(len(rows))), format.TCO2e(total))
			return nil
		},
	}
	addFilterFlags(list, &listFilter)

	var (
		exportFilter ledger.EmissionFilter
		exportFormat string
		exportOut    string
	)
	exp := &cobra.Command{
		Use:   "export",
		Short: "Write emission records to a CSV or XLSX file",
		Example: `  ledgerctl emissions export --format xlsx
  ledgerctl emissions export --format csv --out - --methodology VM0038`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := s.store.ListEmissions(cmd.Context(), exportFilter)
			if err != nil {
				return err
			}
			if exportOut == "-" {
				return export.Write(cmd.OutOrStdout(), exportFormat, rows)
			}
			path := exportOut
			if path == "" {
				path = export.FileName(exportFormat, time.Now())
			}
			if err := writeFile(path, func(w io.Writer) error {
				return export.Write(w, exportFormat, rows)
			}); err != nil {
				return err
			}
			log.Info().Str("path", path).Int("records", len(rows)).Msg("emissions exported")
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s records to %s\n", format.Int(int64(len(rows))), path)
			return nil
		},
	}
	addFilterFlags(exp, &exportFilter)
	exp.Flags().StringVar(&exportFormat, "format", export.FormatCSV, "Output format: csv or xlsx")
	exp.Flags().StringVarP(&exportOut, "out", "o", "", "Output file, - for stdout (default emissions_<timestamp>.<format>)")

	cmd.AddCommand(list, exp)
	return cmd
}

// writeFile removes a partially written file when write fails.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

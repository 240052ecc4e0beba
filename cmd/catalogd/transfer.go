package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mobit-catalog/internal/usecase"
)

var (
	exportFormat string
	exportOut    string
)

// exportCmd writes the catalog file as CSV or XLSX
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as CSV or XLSX",
	Long: `Reads the catalog file (or the sample table when it does not exist yet)
and writes it in the requested format.

Example:
  catalogd export --format xlsx --out produtos.xlsx`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

// importCmd replaces the catalog file with a CSV or XLSX file
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the catalog with a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(usecase.ExportCSV), "csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	session, err := a.catalog.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer a.catalog.CloseSession(ctx, session.ID)

	data, err := a.catalog.Export(ctx, session.ID, usecase.ExportFormat(exportFormat))
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	a.logger.Info("catalog exported", zap.String("out", exportOut), zap.Int("bytes", len(data)))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.close()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx := cmd.Context()
	session, err := a.catalog.OpenSession(ctx)
	if err != nil {
		return err
	}
	defer a.catalog.CloseSession(ctx, session.ID)

	rows, err := a.catalog.Import(ctx, session.ID, filepath.Base(path), data)
	if err != nil {
		return err
	}
	if _, err := a.catalog.Save(ctx, session.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows into %s\n", rows, a.cfg.CatalogPath)
	return nil
}

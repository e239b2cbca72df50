package report

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/metrics"
)

// Exporter persists metric tables as CSV and narrative reports as text files
// under a single output directory.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter creates an exporter rooted at dir. The directory is created on
// first write.
func NewExporter(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, logger: logger}
}

// WriteResultCSV writes one metric result as <symbol>_<metric>.csv, latest
// period first, and returns the written path. Undefined cells stay empty so
// spreadsheet consumers never mistake them for zero.
func (e *Exporter) WriteResultCSV(res *metrics.Result) (string, error) {
	if res.IsEmpty() {
		return "", apperrors.NewInsufficientDataError("nothing to export: metric result has no periods")
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", res.Symbol, res.Metric))
	file, err := e.createFile(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	// UTF-8 BOM so Excel renders non-ASCII labels correctly.
	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", apperrors.NewStorageError("write csv BOM", err)
	}

	writer := csv.NewWriter(file)
	header := make([]string, 0, len(res.Columns)+2)
	header = append(header, "period")
	for _, col := range res.Columns {
		header = append(header, col.Name)
	}
	if res.Labels != nil {
		header = append(header, "classification")
	}
	if err := writer.Write(header); err != nil {
		return "", apperrors.NewStorageError("write csv header", err)
	}

	for i := res.Len() - 1; i >= 0; i-- {
		record := make([]string, 0, len(header))
		record = append(record, res.Periods[i].Key())
		for _, col := range res.Columns {
			record = append(record, formatCell(col.Values[i]))
		}
		if res.Labels != nil {
			record = append(record, res.Labels[i])
		}
		if err := writer.Write(record); err != nil {
			return "", apperrors.NewStorageError(fmt.Sprintf("write csv record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("flush csv", err)
	}

	e.logger.Info("metric table exported",
		slog.String("symbol", res.Symbol),
		slog.String("metric", res.Metric),
		slog.String("path", path),
		slog.Int("periods", res.Len()),
	)
	return path, nil
}

// WriteReportText writes one narrative report as <symbol>_<name>.txt and
// returns the written path.
func (e *Exporter) WriteReportText(symbol, name, text string) (string, error) {
	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.txt", symbol, name))
	file, err := e.createFile(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(text); err != nil {
		return "", apperrors.NewStorageError("write report text", err)
	}

	e.logger.Info("report written",
		slog.String("symbol", symbol),
		slog.String("report", name),
		slog.String("path", path),
	)
	return path, nil
}

func (e *Exporter) createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperrors.NewStorageError("create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, apperrors.NewStorageError("create output file", err)
	}
	return file, nil
}

// formatCell renders a CSV cell with full float precision; undefined is empty.
func formatCell(v metrics.Value) string {
	if !v.IsDefined() {
		return ""
	}
	return fmt.Sprintf("%g", v.Float64)
}

package app

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"sessionchart/internal/fetcher"
	"sessionchart/internal/render"
	"sessionchart/internal/service"
)

var sessionFields = []string{render.FieldPrice, render.FieldLong, render.FieldShort, render.FieldProfit}

func writeSessionCSV(path string, records []fetcher.RawRecord, cols render.SessionColumns) error {
	return writeCSV(path, func(writer *csv.Writer) error {
		header := append([]string{"time"}, sessionFields...)
		if err := writer.Write(header); err != nil {
			return err
		}
		for i, rec := range records {
			row := []string{cols.Times[i].Format(time.RFC3339)}
			for _, name := range sessionFields {
				v, ok := rec.Field(name)
				if !ok {
					row = append(row, "")
					continue
				}
				row = append(row, v.String())
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAverageCSV(path string, report service.AverageReport) error {
	return writeCSV(path, func(writer *csv.Writer) error {
		header := []string{"index"}
		for _, in := range report.Inputs {
			header = append(header, in.File.Label())
		}
		header = append(header, "average")
		if err := writer.Write(header); err != nil {
			return err
		}

		for i, avg := range report.Result.Average {
			row := []string{strconv.Itoa(i)}
			for _, resampled := range report.Result.Resampled {
				row = append(row, formatFloat(resampled[i], 4))
			}
			row = append(row, formatFloat(avg, 4))
			if err := writer.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, write func(*csv.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := write(writer); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatFloat(v float64, places int32) string {
	return formatDecimal(decimal.NewFromFloat(v), places)
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

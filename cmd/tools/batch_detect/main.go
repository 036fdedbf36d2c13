// batch_detect scores a CSV of view events (or pre-aggregated daily
// counts) offline and writes detected anomalies as CSV.
//
// Event mode (default) expects rows of timestamp,entity_id; counts mode
// (-counts) expects date,entity_id,count. A header row is detected and
// skipped automatically.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/bandwatch/bandwatch/internal/aggregation"
	"github.com/bandwatch/bandwatch/internal/analytics/band"
	"github.com/bandwatch/bandwatch/internal/config"
	"github.com/bandwatch/bandwatch/internal/logging"
	"github.com/bandwatch/bandwatch/internal/services"
)

func main() {
	input := flag.String("input", "", "Input CSV file (default: stdin)")
	output := flag.String("output", "", "Output CSV file (default: stdout)")
	recordsOut := flag.String("records", "", "Also write the full per-day band table to this CSV file")
	countsMode := flag.Bool("counts", false, "Input holds pre-aggregated daily counts (date,entity_id,count)")
	span := flag.Float64("span", 30, "Decay span in days")
	alpha := flag.Float64("alpha", 0, "Explicit decay factor in (0,1], overrides -span when set")
	weight := flag.Float64("weight", 3.5, "Band width in standard deviations")
	upper := flag.Float64("upper", 1.0, "Upper percent-bandwidth threshold")
	lower := flag.Float64("lower", 0.0, "Lower percent-bandwidth threshold")
	lowerSide := flag.Bool("lower-side", false, "Also flag drops below the lower band")
	sortBy := flag.String("sort", "pct_b", "Anomaly sort order: pct_b, value, date")
	workers := flag.Int("workers", 8, "Concurrent entity pipelines")
	flag.Parse()

	logger := logging.NewDevelopment()

	svc, err := services.NewDetectService(logger, config.DetectorConfig{
		Span:            *span,
		Weight:          *weight,
		UpperThreshold:  *upper,
		LowerThreshold:  *lower,
		EnableLowerSide: *lowerSide,
		MaxWorkers:      *workers,
	})
	if err != nil {
		log.Fatalf("Error: invalid detection parameters: %v", err)
	}

	cfg := svc.BaseConfig()
	cfg.Alpha = *alpha
	key, err := services.ParseSortKey(*sortBy)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	opts := services.RunOptions{Config: cfg, SortBy: key, IncludeRecords: *recordsOut != ""}

	in := os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Error opening input: %v", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var result *services.Result
	if *countsMode {
		counts, err := readCounts(in)
		if err != nil {
			log.Fatalf("Error reading counts: %v", err)
		}
		result, err = svc.DetectSeries(context.Background(), counts, opts)
		if err != nil {
			log.Fatalf("Detection failed: %v", err)
		}
	} else {
		events, err := readEvents(in)
		if err != nil {
			log.Fatalf("Error reading events: %v", err)
		}
		result, err = svc.DetectEvents(context.Background(), events, opts)
		if err != nil {
			log.Fatalf("Detection failed: %v", err)
		}
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Error creating output: %v", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := writeAnomalies(out, result.Anomalies); err != nil {
		log.Fatalf("Error writing output: %v", err)
	}

	if *recordsOut != "" {
		f, err := os.Create(*recordsOut)
		if err != nil {
			log.Fatalf("Error creating records output: %v", err)
		}
		if err := writeRecords(f, result.Records); err != nil {
			log.Fatalf("Error writing records: %v", err)
		}
		_ = f.Close()
	}

	for _, f := range result.Failures {
		fmt.Fprintf(os.Stderr, "Warning: entity %s skipped: %s\n", f.EntityID, f.Reason)
	}
	fmt.Fprintf(os.Stderr, "%d entities, %d anomalies, %d dropped events (%s)\n",
		result.Entities, len(result.Anomalies), result.DroppedEvents, result.Elapsed)
}

func readEvents(r io.Reader) ([]aggregation.RawEvent, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var events []aggregation.RawEvent
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && row[0] == "timestamp" {
			continue
		}
		events = append(events, aggregation.RawEvent{
			Timestamp: row[0],
			EntityID:  row[1],
		})
	}
	return events, nil
}

func readCounts(r io.Reader) ([]aggregation.DailyCount, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3

	var counts []aggregation.DailyCount
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && row[0] == "date" {
			continue
		}

		date, err := aggregation.ParseTimestamp(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line, row[0])
		}
		count, err := strconv.Atoi(row[2])
		if err != nil || count < 0 {
			return nil, fmt.Errorf("line %d: invalid count %q", line, row[2])
		}

		counts = append(counts, aggregation.DailyCount{
			Date:     date,
			EntityID: row[1],
			Count:    count,
		})
	}
	return counts, nil
}

// fmtPtr renders an optional value; undefined stays an empty cell.
func fmtPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func recordRow(r band.Record) []string {
	return []string{
		r.Date.Format("2006-01-02"),
		r.EntityID,
		strconv.FormatFloat(r.Value, 'g', -1, 64),
		strconv.FormatFloat(r.Mean, 'g', -1, 64),
		fmtPtr(r.Stdev),
		fmtPtr(r.Upper),
		fmtPtr(r.Lower),
		fmtPtr(r.PctB),
	}
}

func writeAnomalies(w io.Writer, anomalies []band.Anomaly) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "entity_id", "value", "mean", "stdev", "upper", "lower", "pct_b", "side"}); err != nil {
		return err
	}
	for _, a := range anomalies {
		if err := writer.Write(append(recordRow(a.Record), string(a.Side))); err != nil {
			return err
		}
	}
	return writer.Error()
}

func writeRecords(w io.Writer, records []band.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "entity_id", "value", "mean", "stdev", "upper", "lower", "pct_b"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write(recordRow(r)); err != nil {
			return err
		}
	}
	return writer.Error()
}

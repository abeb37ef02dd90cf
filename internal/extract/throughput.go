package extract

import (
	"log"
	"regexp"
	"time"

	"github.com/coffersTech/tcmetrics/internal/model"
	"github.com/coffersTech/tcmetrics/internal/pkg/units"
)

// progressLine matches one download progress summary entry:
//
//	[2024-03-15 14:23:01] download progress: 12.5M / 100M (850.3K/s)
var progressLine = regexp.MustCompile(
	`\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\] download progress: ([\d.]+\w*) / ([\d.]+\w*) \(([\d.]+\w*)/s\)`)

const progressTimeLayout = "2006-01-02 15:04:05"

// Throughput extracts every progress summary entry from a download log.
// Sizes are normalized to bytes, the instantaneous rate to bits per second,
// and completion is derived as downloaded/total*100 (0 when total is zero).
func Throughput(text string) []model.Record {
	matches := progressLine.FindAllStringSubmatch(text, -1)
	records := make([]model.Record, 0, len(matches))
	for _, m := range matches {
		ts, err := time.Parse(progressTimeLayout, m[1])
		if err != nil {
			log.Printf("skipping progress entry with bad timestamp %q: %v", m[1], err)
			continue
		}
		downloaded, err := units.SizeToBytes(m[2])
		if err != nil {
			log.Printf("skipping progress entry: downloaded %q: %v", m[2], err)
			continue
		}
		total, err := units.SizeToBytes(m[3])
		if err != nil {
			log.Printf("skipping progress entry: total %q: %v", m[3], err)
			continue
		}
		rate, err := units.SizeToBytes(m[4])
		if err != nil {
			log.Printf("skipping progress entry: rate %q: %v", m[4], err)
			continue
		}

		percent := 0.0
		if total > 0 {
			percent = downloaded / total * 100
		}

		records = append(records, model.Record{
			Type:      model.Throughput,
			Timestamp: ts.Format(progressTimeLayout),
			Fields: map[string]any{
				"downloaded_bytes": downloaded,
				"total_bytes":      total,
				"throughput_bits":  rate * 8,
				"percent_complete": percent,
			},
		})
	}
	return records
}

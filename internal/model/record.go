package model

import "strings"

// QdiscType tags a record with the queue discipline (or log kind) it was
// extracted from. The set is closed: blocks carrying any other tag are
// dropped during dispatch, never defaulted.
type QdiscType string

const (
	Pie        QdiscType = "pie"
	Codel      QdiscType = "codel"
	DualPi2    QdiscType = "dualpi2"
	FqCodel    QdiscType = "fq_codel"
	Throughput QdiscType = "throughput"
)

// ParseQdiscType lowercases a raw type token and validates it against the
// supported set.
func ParseQdiscType(s string) (QdiscType, bool) {
	t := QdiscType(strings.ToLower(s))
	switch t {
	case Pie, Codel, DualPi2, FqCodel, Throughput:
		return t, true
	}
	return "", false
}

// Metric-type discriminator values used in simulation-directory mode.
const (
	MetricQueue      = "queue_metrics"
	MetricThroughput = "throughput"
)

// Record is one flattened snapshot: a fixed provenance header plus the
// type-specific fields recovered from the text block. Fields holds string,
// int64 or float64 values; a field that did not match in the source block is
// simply absent. Records are built once per parsed block and never mutated
// afterwards.
type Record struct {
	Type       QdiscType
	SourceFile string
	Index      int    // 1-based block ordinal within SourceFile
	Timestamp  string // run wall-clock for qdisc dumps, parsed log time for throughput

	// Simulation-directory provenance; empty in keyword-scan mode.
	TestID     string
	Origin     string
	Interface  string
	MetricType string

	Fields map[string]any
}

// InputFile records the provenance of one processed input for the run
// manifest written next to the CSV.
type InputFile struct {
	Path    string `json:"path"`
	Digest  string `json:"blake2b"`
	Records int    `json:"records"`
}

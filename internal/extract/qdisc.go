// Package extract turns the semi-structured text of tc qdisc statistics
// dumps and download-progress logs into flat records. Field extraction is
// dispatched on the block's qdisc type tag: each supported discipline has a
// static table of (field name, pattern, converter) entries that is applied
// against the block, and fields whose pattern does not match are omitted
// from the record rather than null-filled.
package extract

import (
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/coffersTech/tcmetrics/internal/model"
	"github.com/coffersTech/tcmetrics/internal/pkg/units"
)

// Converter turns a captured substring into its typed value.
type Converter func(string) (any, error)

// FieldSpec binds a field name to the pattern locating it inside a block.
// Pattern must carry exactly one capturing group. A nil Convert stores the
// capture as a literal string.
type FieldSpec struct {
	Name    string
	Pattern *regexp.Regexp
	Convert Converter
}

func asInt(s string) (any, error) {
	return strconv.ParseInt(s, 10, 64)
}

func asFloat(s string) (any, error) {
	return strconv.ParseFloat(s, 64)
}

func asNanos(s string) (any, error) {
	return units.TimeToNanos(s)
}

func asBytes(s string) (any, error) {
	return units.SizeToBytes(s)
}

func field(name, pattern string, conv Converter) FieldSpec {
	return FieldSpec{Name: name, Pattern: regexp.MustCompile(pattern), Convert: conv}
}

// commonFields appear in every `tc -s qdisc` statistics dump regardless of
// discipline. The backlog byte count is printed with a unit letter glued on
// ("backlog 73724b 49p"), hence the \d+\w capture.
func commonFields() []FieldSpec {
	return []FieldSpec{
		field("sent_bytes", `Sent (\d+) bytes`, asInt),
		field("sent_pkts", `Sent \d+ bytes (\d+) pkt`, asInt),
		field("dropped", `dropped (\d+)`, asInt),
		field("overlimits", `overlimits (\d+)`, asInt),
		field("requeues", `requeues (\d+)`, asInt),
		field("backlog_bytes", `backlog (\d+\w)`, asBytes),
		field("backlog_pkts", `backlog \d+\w (\d+)p`, asInt),
	}
}

// fieldTables holds the per-discipline extraction tables. Field names and
// patterns must stay verbatim: downstream spreadsheets key on them.
var fieldTables = map[model.QdiscType][]FieldSpec{
	model.Pie: append(commonFields(),
		field("prob", `prob (\d+)`, asInt),
		field("delay", `delay ([\d.]+(?:us|ms))`, asNanos),
		field("pkts_in", `pkts_in (\d+)`, asInt),
		field("pkts_overlimit", `overlimit (\d+)`, asInt),
		field("pkts_dropped", `dropped (\d+)`, asInt),
		field("maxq", `maxq (\d+)`, asInt),
		field("ecn_mark", `ecn_mark (\d+)`, asInt),
		field("target", `target ([\d.]+ms)`, asNanos),
		field("tupdate", `tupdate ([\d.]+ms)`, asNanos),
		field("alpha", `alpha (\d+)`, asInt),
		field("beta", `beta (\d+)`, asInt),
	),
	model.Codel: append(commonFields(),
		field("count", `count (\d+)`, asInt),
		field("lastcount", `lastcount (\d+)`, asInt),
		field("ldelay", `ldelay ([\d.]+us)`, asNanos),
		field("drop_next", `drop_next ([\d.]+us)`, asNanos),
		field("maxpacket", `maxpacket (\d+)`, asInt),
		field("ecn_mark", `ecn_mark (\d+)`, asInt),
		field("drop_overlimit", `drop_overlimit (\d+)`, asInt),
		field("target", `target ([\d.]+ms)`, asNanos),
		field("interval", `interval ([\d.]+ms)`, asNanos),
	),
	model.DualPi2: append(commonFields(),
		field("prob", `prob ([\d.]+)`, asFloat),
		field("delay_c", `delay_c ([\d.]+us)`, asNanos),
		field("delay_l", `delay_l ([\d.]+us)`, asNanos),
		field("pkts_in_c", `pkts_in_c (\d+)`, asInt),
		field("pkts_in_l", `pkts_in_l (\d+)`, asInt),
		field("maxq", `maxq (\d+)`, asInt),
		field("ecn_mark", `ecn_mark (\d+)`, asInt),
		field("step_marks", `step_marks (\d+)`, asInt),
		field("credit", `credit (-?\d+)`, asInt),
		field("target", `target ([\d.]+ms)`, asNanos),
		field("tupdate", `tupdate ([\d.]+ms)`, asNanos),
		field("alpha", `alpha ([\d.]+)`, asFloat),
		field("beta", `beta ([\d.]+)`, asFloat),
		field("coupling_factor", `coupling_factor (\d+)`, asInt),
	),
	model.FqCodel: append(commonFields(),
		field("maxpacket", `maxpacket (\d+)`, asInt),
		field("drop_overlimit", `drop_overlimit (\d+)`, asInt),
		field("new_flow_count", `new_flow_count (\d+)`, asInt),
		field("ecn_mark", `ecn_mark (\d+)`, asInt),
		field("new_flows_len", `new_flows_len (\d+)`, asInt),
		field("old_flows_len", `old_flows_len (\d+)`, asInt),
		field("target", `target ([\d.]+ms)`, asNanos),
		field("interval", `interval ([\d.]+ms)`, asNanos),
		field("quantum", `quantum (\d+)`, asInt),
		field("memory_limit", `memory_limit (\d+\w+)`, asBytes),
		field("drop_batch", `drop_batch (\d+)`, asInt),
	),
}

var blockStart = regexp.MustCompile(`(?m)^qdisc \w+`)

// Blocks splits a qdisc statistics dump into per-snapshot spans. Each span
// starts at a line beginning with "qdisc" and runs up to the next such line,
// or to end-of-text for the trailing block.
func Blocks(text string) []string {
	starts := blockStart.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, strings.TrimRight(text[loc[0]:end], " \n"))
	}
	return blocks
}

var typeToken = regexp.MustCompile(`^qdisc (\w+)`)

// Dispatch identifies the block's queue discipline and applies its field
// table. A block tagged with an unsupported discipline is skipped with a
// diagnostic; that is not an error.
func Dispatch(block string) (model.Record, bool) {
	m := typeToken.FindStringSubmatch(block)
	if m == nil {
		return model.Record{}, false
	}
	qt, ok := model.ParseQdiscType(m[1])
	if !ok || qt == model.Throughput {
		log.Printf("unsupported qdisc type: %s", strings.ToLower(m[1]))
		return model.Record{}, false
	}

	fields := make(map[string]any)
	for _, fs := range fieldTables[qt] {
		sm := fs.Pattern.FindStringSubmatch(block)
		if sm == nil {
			continue
		}
		if fs.Convert == nil {
			fields[fs.Name] = sm[1]
			continue
		}
		v, err := fs.Convert(sm[1])
		if err != nil {
			log.Printf("field %s: unparseable value %q: %v", fs.Name, sm[1], err)
			continue
		}
		fields[fs.Name] = v
	}
	return model.Record{Type: qt, Fields: fields}, true
}

package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/coffersTech/tcmetrics/internal/extract"
	"github.com/coffersTech/tcmetrics/internal/model"
)

func TestColumnsUnionAndPrefix(t *testing.T) {
	tbl := NewTable(ScanColumns)
	tbl.Append(
		model.Record{Type: model.Pie, Fields: map[string]any{"delay": 12000.0, "alpha": int64(2)}},
		model.Record{Type: model.Codel, Fields: map[string]any{"ldelay": 2300.0, "alpha": int64(3)}},
	)

	want := []string{"timestamp", "source_file", "simulation_id", "qdisc_type", "alpha", "delay", "ldelay"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
}

func TestWriteCSVMissingFieldsEmpty(t *testing.T) {
	tbl := NewTable(ScanColumns)
	tbl.Append(
		model.Record{
			Type: model.Pie, SourceFile: "a.txt", Index: 1, Timestamp: "2024-03-15 10:00:00",
			Fields: map[string]any{"alpha": int64(2)},
		},
		model.Record{
			Type: model.Codel, SourceFile: "b.txt", Index: 1, Timestamp: "2024-03-15 10:00:00",
			Fields: map[string]any{"ldelay": 2300.0},
		},
	)

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := tbl.WriteCSV(path); err != nil {
		t.Fatal(err)
	}

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	header := rows[0]
	wantHeader := []string{"timestamp", "source_file", "simulation_id", "qdisc_type", "alpha", "ldelay"}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Fatalf("header = %v, want %v", header, wantHeader)
	}

	// Row 1: pie has alpha but no ldelay.
	if rows[1][4] != "2" || rows[1][5] != "" {
		t.Errorf("pie row = %v", rows[1])
	}
	// Row 2: codel has ldelay but no alpha.
	if rows[2][4] != "" || rows[2][5] != "2300" {
		t.Errorf("codel row = %v", rows[2])
	}
	if rows[1][3] != "pie" || rows[2][3] != "codel" {
		t.Errorf("type cells = %q, %q", rows[1][3], rows[2][3])
	}
}

// End-to-end: two concatenated pie blocks flow through segmenter, dispatcher
// and exporter, producing rows in block order with converted values.
func TestEndToEndTwoPieBlocks(t *testing.T) {
	dump := "qdisc pie 1: root target 15ms tupdate 16ms alpha 2 beta 20\n" +
		" Sent 100 bytes 1 pkt (dropped 0, overlimits 0 requeues 0)\n" +
		"\n" +
		"qdisc pie 1: root target 30ms tupdate 16ms alpha 4 beta 20\n" +
		" Sent 200 bytes 2 pkt (dropped 0, overlimits 0 requeues 0)\n"

	tbl := NewTable(ScanColumns)
	for i, block := range extract.Blocks(dump) {
		rec, ok := extract.Dispatch(block)
		if !ok {
			t.Fatalf("block %d not dispatched", i)
		}
		rec.SourceFile = "pie_run.txt"
		rec.Index = i + 1
		rec.Timestamp = "2024-03-15 10:00:00"
		tbl.Append(rec)
	}
	if tbl.Len() != 2 {
		t.Fatalf("table has %d rows, want 2", tbl.Len())
	}

	path := filepath.Join(t.TempDir(), "pie.csv")
	if err := tbl.WriteCSV(path); err != nil {
		t.Fatal(err)
	}
	rows := readCSV(t, path)

	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	if rows[1][col["simulation_id"]] != "1" || rows[2][col["simulation_id"]] != "2" {
		t.Errorf("row order does not match block order: %v / %v", rows[1], rows[2])
	}
	if rows[1][col["target"]] != "15000000" || rows[2][col["target"]] != "30000000" {
		t.Errorf("target cells = %q, %q", rows[1][col["target"]], rows[2][col["target"]])
	}
	if rows[1][col["alpha"]] != "2" || rows[2][col["alpha"]] != "4" {
		t.Errorf("alpha cells = %q, %q", rows[1][col["alpha"]], rows[2][col["alpha"]])
	}
}

func TestSummary(t *testing.T) {
	tbl := NewTable(SimColumns)
	tbl.Append(
		model.Record{Type: model.Pie},
		model.Record{Type: model.Pie},
		model.Record{Type: model.Throughput},
	)
	total, types := tbl.Summary()
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if !reflect.DeepEqual(types, []string{"pie", "throughput"}) {
		t.Errorf("types = %v", types)
	}
}

func TestWriteManifest(t *testing.T) {
	tbl := NewTable(ScanColumns)
	tbl.Append(model.Record{Type: model.Pie, Fields: map[string]any{"alpha": int64(2)}})

	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	m := NewManifest(out, tbl, []model.InputFile{{Path: "a.txt", Digest: "ab12", Records: 1}})

	path := filepath.Join(dir, "out.csv.manifest.json")
	if err := WriteManifest(path, m); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var back RunManifest
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("manifest is not valid JSON: %v", err)
	}
	if back.Records != 1 || len(back.Inputs) != 1 || back.Inputs[0].Path != "a.txt" {
		t.Errorf("round-tripped manifest = %+v", back)
	}
	if !reflect.DeepEqual(back.QdiscTypes, []string{"pie"}) {
		t.Errorf("qdisc types = %v", back.QdiscTypes)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/coffersTech/tcmetrics/internal/export"
	"github.com/coffersTech/tcmetrics/internal/model"
	"github.com/coffersTech/tcmetrics/internal/walker"
)

func main() {
	// Command-line flags
	mode := flag.String("mode", "scan", "run mode: scan (keyword search over a root directory) or sim (simulation directory loop)")
	dir := flag.String("dir", "", "root or simulation directory (skips the prompt)")
	keyword := flag.String("keyword", "", "filename keyword for scan mode (skips the prompt)")
	flag.Parse()

	log.Println("tcmetrics: qdisc statistics and throughput log flattener")

	switch *mode {
	case "scan":
		if err := runScan(*dir, *keyword); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
	case "sim":
		runSimLoop(*dir)
	default:
		log.Fatalf("unknown mode %q (want scan or sim)", *mode)
	}
}

// prompt reads one trimmed line from stdin; ok is false once input is
// exhausted.
func prompt(in *bufio.Reader, label string) (string, bool) {
	fmt.Printf("%s: ", label)
	line, err := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

func runScan(root, keyword string) error {
	in := bufio.NewReader(os.Stdin)
	if root == "" {
		root, _ = prompt(in, "Root directory")
	}
	if keyword == "" {
		keyword, _ = prompt(in, "Filename keyword")
	}

	records, inputs, err := walker.ScanKeyword(root, keyword)
	if errors.Is(err, walker.ErrNoFiles) {
		log.Println("no files found, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Println("no data extracted, skipping CSV output")
		return nil
	}

	out := filepath.Join(root, fmt.Sprintf("qdisc_results_%s.csv", keyword))
	return writeResults(out, export.ScanColumns, records, inputs)
}

func runSimLoop(first string) {
	in := bufio.NewReader(os.Stdin)
	for {
		dir := first
		first = ""
		if dir == "" {
			line, ok := prompt(in, "Simulation directory (quit/exit to stop)")
			if !ok {
				return
			}
			dir = line
		}
		switch strings.ToLower(dir) {
		case "":
			continue
		case "quit", "exit":
			return
		}

		if err := runSim(dir); err != nil {
			log.Printf("simulation %s failed: %v", dir, err)
			log.Println("check that the path exists, is readable, and contains the expected tc_<role>_<iface>.txt dumps and logs/ directory")
		}
	}
}

func runSim(dir string) error {
	testID, records, inputs, err := walker.ScanSimulation(dir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		log.Printf("no data extracted from %s, skipping CSV output", dir)
		return nil
	}

	out := filepath.Join(dir, testID+"_metrics.csv")
	return writeResults(out, export.SimColumns, records, inputs)
}

func writeResults(out string, columns []string, records []model.Record, inputs []model.InputFile) error {
	table := export.NewTable(columns)
	table.Append(records...)

	if err := table.WriteCSV(out); err != nil {
		return err
	}
	if err := export.WriteManifest(out+".manifest.json", export.NewManifest(out, table, inputs)); err != nil {
		log.Printf("warning: manifest not written: %v", err)
	}

	total, types := table.Summary()
	log.Printf("CSV written: %s", out)
	log.Printf("records: %d, qdisc types: %s", total, strings.Join(types, ", "))
	return nil
}

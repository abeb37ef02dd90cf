package walker

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/fastjson"

	"github.com/coffersTech/tcmetrics/internal/extract"
	"github.com/coffersTech/tcmetrics/internal/model"
)

// Conventional file set of a simulation directory: one qdisc dump per
// role/interface combination plus download logs under logs/.
var (
	defaultRoles      = []string{"client", "router", "server"}
	defaultInterfaces = []string{"eth0", "eth1"}
)

// SimConfig describes one simulation directory. Defaults derive from the
// directory name and the conventional role/interface matrix; an optional
// simulation.json manifest overrides them.
type SimConfig struct {
	TestID     string
	Roles      []string
	Interfaces []string
}

func stringArray(v *fastjson.Value, key string) []string {
	arr := v.GetArray(key)
	if len(arr) == 0 {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s := e.GetStringBytes(); len(s) > 0 {
			out = append(out, string(s))
		}
	}
	return out
}

// loadSimConfig reads simulation.json if present. A missing or malformed
// manifest falls back to the defaults.
func loadSimConfig(dir string) SimConfig {
	cfg := SimConfig{
		TestID:     filepath.Base(filepath.Clean(dir)),
		Roles:      defaultRoles,
		Interfaces: defaultInterfaces,
	}

	data, err := os.ReadFile(filepath.Join(dir, "simulation.json"))
	if err != nil {
		return cfg
	}
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		log.Printf("warning: malformed simulation.json in %s: %v", dir, err)
		return cfg
	}

	if id := v.GetStringBytes("test_id"); len(id) > 0 {
		cfg.TestID = string(id)
	}
	if roles := stringArray(v, "roles"); roles != nil {
		cfg.Roles = roles
	}
	if ifaces := stringArray(v, "interfaces"); ifaces != nil {
		cfg.Interfaces = ifaces
	}
	return cfg
}

// findVariant resolves an expected path to the plain or gzip-compressed
// variant, whichever exists.
func findVariant(path string) (string, bool) {
	if _, err := os.Stat(path); err == nil {
		return path, true
	}
	if _, err := os.Stat(path + ".gz"); err == nil {
		return path + ".gz", true
	}
	return "", false
}

// ScanSimulation parses the conventional file set of one simulation
// directory and returns its test id alongside the extracted records.
// Missing expected files are warned about and skipped.
func ScanSimulation(dir string) (string, []model.Record, []model.InputFile, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", nil, nil, fmt.Errorf("invalid simulation directory %q", dir)
	}

	cfg := loadSimConfig(dir)
	stamp := time.Now().Format(runTimeLayout)
	var records []model.Record
	var inputs []model.InputFile

	// 1. Queue metric dumps: tc_<role>_<iface>.txt[.gz]
	for _, role := range cfg.Roles {
		for _, iface := range cfg.Interfaces {
			name := fmt.Sprintf("tc_%s_%s.txt", role, iface)
			path, ok := findVariant(filepath.Join(dir, name))
			if !ok {
				log.Printf("warning: expected file %s not found in %s", name, dir)
				continue
			}
			text, err := readFile(path)
			if err != nil {
				log.Printf("warning: skipping %s: %v", path, err)
				continue
			}
			recs := parseQdiscFile(path, text, stamp)
			for i := range recs {
				recs[i].TestID = cfg.TestID
				recs[i].Origin = role
				recs[i].Interface = iface
				recs[i].MetricType = model.MetricQueue
			}
			records = append(records, recs...)
			inputs = append(inputs, model.InputFile{Path: path, Digest: inputDigest(path), Records: len(recs)})
			log.Printf("processed %s: %d record(s)", path, len(recs))
		}
	}

	// 2. Throughput logs: logs/*download*.log[.gz]
	logDir := filepath.Join(dir, "logs")
	plain, _ := filepath.Glob(filepath.Join(logDir, "*download*.log"))
	zipped, _ := filepath.Glob(filepath.Join(logDir, "*download*.log.gz"))
	logPaths := append(plain, zipped...)
	if len(logPaths) == 0 {
		log.Printf("warning: no throughput logs under %s", logDir)
	}
	for _, path := range logPaths {
		text, err := readFile(path)
		if err != nil {
			log.Printf("warning: skipping %s: %v", path, err)
			continue
		}
		recs := extract.Throughput(text)
		for i := range recs {
			recs[i].SourceFile = filepath.Base(path)
			recs[i].Index = i + 1
			recs[i].TestID = cfg.TestID
			recs[i].Origin = "client" // downloads are measured client-side
			recs[i].MetricType = model.MetricThroughput
		}
		records = append(records, recs...)
		inputs = append(inputs, model.InputFile{Path: path, Digest: inputDigest(path), Records: len(recs)})
		log.Printf("processed %s: %d record(s)", path, len(recs))
	}

	return cfg.TestID, records, inputs, nil
}

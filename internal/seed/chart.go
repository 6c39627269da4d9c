package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
)

// ChartNode is one account of a chart file and its sub-accounts.
type ChartNode struct {
	Name     string      `yaml:"name"`
	Children []ChartNode `yaml:"children,omitempty"`
}

// Chart maps a master account key to the accounts filed under it.
type Chart map[string][]ChartNode

//go:embed demo_chart.yaml
var demoChart []byte

// DemoChart returns the bundled household chart of accounts.
func DemoChart(masters map[string]ledger.MasterAccount) (Chart, error) {
	return LoadChart(bytes.NewReader(demoChart), masters)
}

// LoadChartFile reads a chart from a YAML file.
func LoadChartFile(path string, masters map[string]ledger.MasterAccount) (Chart, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("seed: open chart: %w", err)
	}
	defer f.Close()
	return LoadChart(f, masters)
}

// LoadChart decodes a YAML chart and checks it against masters. Account names
// must be non-empty and unique across the chart, master names included.
func LoadChart(r io.Reader, masters map[string]ledger.MasterAccount) (Chart, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var chart Chart
	if err := dec.Decode(&chart); err != nil {
		if errors.Is(err, io.EOF) {
			return Chart{}, nil
		}
		return nil, fmt.Errorf("seed: decode chart: %w", err)
	}

	seen := make(map[string]string, len(masters))
	for key, m := range masters {
		seen[m.Name] = key
	}
	for key, nodes := range chart {
		if _, ok := masters[key]; !ok {
			return nil, fmt.Errorf("seed: unknown master account key %q", key)
		}
		if err := checkNodes(nodes, key, seen); err != nil {
			return nil, err
		}
	}
	return chart, nil
}

func checkNodes(nodes []ChartNode, path string, seen map[string]string) error {
	for _, n := range nodes {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return fmt.Errorf("seed: unnamed account under %s", path)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("seed: account %q under %s already defined under %s", name, path, prev)
		}
		seen[name] = path
		if err := checkNodes(n.Children, path+"/"+name, seen); err != nil {
			return err
		}
	}
	return nil
}

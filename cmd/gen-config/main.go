// Command gen-config writes the built-in configuration, with the default
// pipeline spelled out node by node, as a starting point for custom graphs.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/framegraph/internal/config"
)

func main() {
	targetDir := "examples/default"
	if len(os.Args) > 1 {
		targetDir = os.Args[1]
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		panic(err)
	}

	cfg := config.Default()
	cfg.Graph = cfg.Topology()
	data, err := cfg.Marshal()
	if err != nil {
		panic(err)
	}

	path := filepath.Join(targetDir, "framegraph.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		panic(err)
	}
	fmt.Printf("Generated %s\n", path)
}

// Command schema writes the JSON schema of maildigest.yml, used by editors for completion and validation.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/maildigest/pkg/config"
)

type opts struct {
	Compact bool `long:"compact" description:"write schema without indentation"`
	Args    struct {
		Output string `positional-arg-name:"output" description:"output file, '-' for stdout"`
	} `positional-args:"yes"`
}

func main() {
	var o opts
	if _, err := flags.Parse(&o); err != nil {
		os.Exit(1)
	}
	if o.Args.Output == "" {
		o.Args.Output = "schema.json"
	}

	if o.Args.Output == "-" {
		if err := writeSchema(os.Stdout, o.Compact); err != nil {
			log.Fatalf("[ERROR] %v", err)
		}
		return
	}

	fh, err := os.Create(o.Args.Output)
	if err != nil {
		log.Fatalf("[ERROR] can't create %s: %v", o.Args.Output, err)
	}
	if err := writeSchema(fh, o.Compact); err != nil {
		_ = fh.Close()
		log.Fatalf("[ERROR] %v", err)
	}
	if err := fh.Close(); err != nil {
		log.Fatalf("[ERROR] can't close %s: %v", o.Args.Output, err)
	}
	fmt.Printf("schema written to %s\n", o.Args.Output)
}

func writeSchema(w io.Writer, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(config.Schema()); err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return nil
}

// auditdump prints and verifies the signature audit trail attached to
// an exported document (the signature-audit.json artifact).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/docmark/docmark/audit"
)

type options struct {
	trailPath string
	asJSON    bool
	verify    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "auditdump: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "auditdump: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/auditdump [flags] <%s>\n", audit.AttachmentName)
		flag.PrintDefaults()
	}
	asJSON := flag.Bool("json", false, "Re-emit the trail as compact JSON instead of a table")
	verify := flag.Bool("verify", true, "Verify the hash chain before printing")
	flag.Parse()

	if flag.NArg() != 1 {
		return options{}, fmt.Errorf("expected exactly one trail file, got %d args", flag.NArg())
	}
	opts.trailPath = flag.Arg(0)
	opts.asJSON = *asJSON
	opts.verify = *verify
	return opts, nil
}

func run(opts options) error {
	data, err := os.ReadFile(opts.trailPath)
	if err != nil {
		return err
	}
	var entries []audit.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse %s: %w", opts.trailPath, err)
	}
	if opts.verify {
		if err := audit.Verify(entries); err != nil {
			return err
		}
	}
	if opts.asJSON {
		out, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	for i, e := range entries {
		fmt.Printf("[%d] %s <%s>\n", i+1, e.SignerName, e.SignerEmail)
		fmt.Printf("    signed %s on page %d of %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05 MST"), e.PageNumber, e.DocumentFilename)
		fmt.Printf("    bounds x=%.1f y=%.1f w=%.1f h=%.1f\n", e.Bounds.X, e.Bounds.Y, e.Bounds.W, e.Bounds.H)
		fmt.Printf("    intent=%t consent=%t hash=%.16s\n", e.IntentAccepted, e.ConsentAccepted, e.RecordHash)
	}
	if opts.verify {
		fmt.Printf("%d entries, chain verified\n", len(entries))
	} else {
		fmt.Printf("%d entries\n", len(entries))
	}
	return nil
}

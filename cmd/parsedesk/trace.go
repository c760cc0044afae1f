package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parsedesk/parsedesk/bootstrap"
	"github.com/parsedesk/parsedesk/domain/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace <file>",
	Short: "Correlate request/response transactions in a trace file",
	Long: `Correlate the entries of a trace file into transactions using the
namespace's schema document.

The file holds one JSON object per line:

  {"node":"N1","type":"LoginReq","version":"01","direction":"send","payload":"01t0001..."}

Entries whose message type declares a response type and a transaction
id span are folded: retries of one request line up under the latest
attempt together with the matching response. Everything else passes
through unchanged, in file order.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	ns, err := namespaceArg()
	if err != nil {
		return err
	}

	entries, err := readTraceFile(args[0])
	if err != nil {
		return err
	}

	return withApp(func(a *bootstrap.App) error {
		items, err := a.Tracer.Correlate(context.Background(), ns, entries)
		if err != nil {
			return err
		}
		printTrace(items)
		return nil
	})
}

func readTraceFile(path string) ([]trace.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var entries []trace.Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var e trace.Entry
		if err := json.Unmarshal([]byte(text), &e); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if e.Line == 0 {
			e.Line = line
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return entries, nil
}

func printTrace(items []trace.Item) {
	for _, it := range items {
		if it.Transaction == nil {
			printTraceEntry("", it.Entry)
			continue
		}

		t := it.Transaction
		fmt.Printf("transaction %s node %s (%d requests)\n", t.TransID, t.Node, len(t.Requests))
		for _, req := range t.Requests {
			printTraceEntry("  ", req)
		}
		if t.Response != nil {
			printTraceEntry("  ", t.Response)
		} else {
			fmt.Println("  no response")
		}
	}
}

func printTraceEntry(indent string, e *trace.Entry) {
	stamp := ""
	if !e.Timestamp.IsZero() {
		stamp = e.Timestamp.Format("15:04:05.000") + " "
	}
	fmt.Printf("%s%s%s %s/%s %s %s\n", indent, stamp, e.Node, e.Type, e.Version, e.Direction, e.Payload)
}

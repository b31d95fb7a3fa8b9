package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gobmc/bmc"
	"gobmc/trace"
	"gobmc/translate"
	"gobmc/verify"
)

func checkCmd() *cobra.Command {
	var (
		entry       string
		unwind      int
		mode        string
		timeout     time.Duration
		arrayMemory bool
	)

	cmd := &cobra.Command{
		Use:   "check <package-or-file>",
		Short: "Bounded-model-check an entry function for reachable __VERIFIER_error/__assert_fail calls",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			opts := verify.Options{
				EntryFunction: entry,
				Mode:          m,
				Unwind:        unwind,
				ArrayMemory:   arrayMemory,
			}
			report, err := verify.Check(ctx, opts, args[0])
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "main", "entry function to verify")
	cmd.Flags().IntVar(&unwind, "unwind", 0, "loop unwinding bound (0 selects the default)")
	cmd.Flags().StringVar(&mode, "mode", "bv", "integer encoding: bv or int")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "time budget for the whole check run")
	cmd.Flags().BoolVar(&arrayMemory, "array-memory", false, "model arrays/slices precisely instead of havoc-ing loads")
	return cmd
}

func parseMode(s string) (translate.Mode, error) {
	switch s {
	case "bv", "":
		return translate.BitVectors, nil
	case "int":
		return translate.Integers, nil
	default:
		return 0, fmt.Errorf("unknown --mode %q (want bv or int)", s)
	}
}

func printReport(report *verify.FunctionReport) error {
	for _, r := range report.Results {
		log.WithFields(log.Fields{
			"location": bmc.LocationName(r.Site.Location),
			"outcome":  r.Outcome,
		}).Info("error site")
		if r.Outcome != bmc.Failed {
			continue
		}
		tr, ok := report.Traces[r.Site.Location]
		if !ok {
			continue
		}
		fmt.Printf("counterexample for %s:\n", bmc.LocationName(r.Site.Location))
		for _, ev := range tr.Events {
			fmt.Printf("  %s\n", eventLine(ev))
		}
	}
	fmt.Printf("overall: %s\n", report.Status())
	for _, reason := range report.Reasons {
		fmt.Printf("  reason: %s\n", reason)
	}
	if report.Status() == bmc.Failed {
		return fmt.Errorf("verification failed: %d error site(s) reachable", countFailed(report))
	}
	return nil
}

func eventLine(ev trace.Event) string {
	switch ev.Kind {
	case trace.Call:
		return fmt.Sprintf("call %s", ev.Callee)
	case trace.Truncated:
		return fmt.Sprintf("<trace truncated: %s>", ev.ValueText)
	default:
		label := ev.Variable.Name()
		if ev.SourceName != "" {
			label = ev.SourceName
		}
		return fmt.Sprintf("%s = %s", label, ev.ValueText)
	}
}

func countFailed(report *verify.FunctionReport) int {
	n := 0
	for _, r := range report.Results {
		if r.Outcome == bmc.Failed {
			n++
		}
	}
	return n
}

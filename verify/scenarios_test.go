package verify

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"gobmc/bmc"
	"gobmc/translate"
)

func checkFixture(t *testing.T, path string, opts Options) *FunctionReport {
	t.Helper()
	opts.EntryFunction = "main"
	report, err := Check(context.Background(), opts, path)
	if err != nil {
		t.Fatal(err)
	}
	return report
}

// dumpResults renders a FunctionReport's per-site results for a test
// failure message, since bmc.Result's Model field is an opaque
// solver.Valuation that %v doesn't print usefully.
func dumpResults(report *FunctionReport) string {
	return spew.Sdump(report.Results)
}

func TestNondetGuardIsReachable(t *testing.T) {
	report := checkFixture(t, "../testdata/verifier", Options{Mode: translate.BitVectors})
	if report.Status() != bmc.Failed {
		t.Fatalf("Status() = %s, want failed:\n%s", report.Status(), dumpResults(report))
	}
	if len(report.Traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(report.Traces))
	}
}

func TestAlwaysFalseConjunctionIsUnreachable(t *testing.T) {
	report := checkFixture(t, "../testdata/verifier/alwaysfalse", Options{Mode: translate.BitVectors})
	if report.Status() != bmc.Successful {
		t.Fatalf("Status() = %s, want successful:\n%s", report.Status(), dumpResults(report))
	}
}

func TestBoundedCountingLoopIsReachable(t *testing.T) {
	report := checkFixture(t, "../testdata/loops/counting", Options{Mode: translate.BitVectors, Unwind: 10})
	if report.Status() != bmc.Failed {
		t.Fatalf("Status() = %s, want failed:\n%s", report.Status(), dumpResults(report))
	}
}

func TestMultiExitLoopIsUnreachable(t *testing.T) {
	report := checkFixture(t, "../testdata/loops/multiexit", Options{Mode: translate.BitVectors, Unwind: 12})
	if report.Status() != bmc.Successful {
		t.Fatalf("Status() = %s, want successful:\n%s", report.Status(), dumpResults(report))
	}
}

func TestArrayModelProvesBoundsScenarioSafe(t *testing.T) {
	report := checkFixture(t, "../testdata/memory/bounds", Options{Mode: translate.BitVectors, ArrayMemory: true})
	if report.Status() != bmc.Successful {
		t.Fatalf("Status() = %s, want successful under the array memory model:\n%s", report.Status(), dumpResults(report))
	}
}

// Package infra contains output adapters for the status context.
package infra

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/business/status/domain"
)

// Ensure ConsoleReporter implements Reporter.
var _ app.Reporter = (*ConsoleReporter)(nil)

// ConsoleReporter implements Reporter for plain line output.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewConsoleReporter creates a reporter writing to stdout.
func NewConsoleReporter() *ConsoleReporter {
	return NewConsoleReporterTo(os.Stdout)
}

// NewConsoleReporterTo creates a reporter writing to out.
func NewConsoleReporterTo(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out, now: time.Now}
}

// Snapshot prints a table of every indicator.
func (r *ConsoleReporter) Snapshot(statuses []domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "BRIDGE STATUS (%d indicators)\n", len(statuses))
	fmt.Fprintln(r.out, "================================================================================")
	for _, st := range statuses {
		fmt.Fprintf(r.out, "  %-28s %-8s %s\n", st.Header, st.Color, st.Value)
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}

// Report prints one update.
func (r *ConsoleReporter) Report(st domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := fmt.Sprintf("[%s] %-28s %-8s %s", r.now().Format("15:04:05"), st.Header, st.Color, st.Value)
	if href := st.Href(); href != "" {
		line += "  " + href
	}
	fmt.Fprintln(r.out, line)
}

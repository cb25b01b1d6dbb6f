// internal/menu/menu.go
package menu

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tamzrod/pinlogger/internal/status"
)

// DefaultRefresh is the auto-refresh period used when refresh is zero.
const DefaultRefresh = time.Second

// Run drives the operator menu on in/out until the operator shuts down,
// in reaches EOF, or ctx is done. stopFn is called on shutdown and on EOF.
func Run(ctx context.Context, in io.Reader, out io.Writer, statusFn func() status.Snapshot, stopFn func(), refresh time.Duration) error {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		fmt.Fprint(out, "\n==== MENU ====\n")
		fmt.Fprint(out, "1) Show status\n")
		fmt.Fprint(out, "2) Show status (auto-refresh)\n")
		fmt.Fprint(out, "3) Shut down\n")
		fmt.Fprint(out, "Select: ")

		var choice string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				stopFn()
				fmt.Fprint(out, "\nInput closed. Service stopped.\n")
				return nil
			}
			choice = strings.TrimSpace(line)
		}

		switch choice {
		case "1":
			PrintStatus(out, statusFn())

		case "2":
			fmt.Fprint(out, "Auto-refreshing. Press Enter to return to menu.\n")
			if closed := autoRefresh(ctx, out, lines, statusFn, refresh); closed {
				stopFn()
				fmt.Fprint(out, "\nInput closed. Service stopped.\n")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}

		case "3":
			stopFn()
			fmt.Fprint(out, "Service stopped. Exiting.\n")
			return nil

		default:
			fmt.Fprint(out, "Unknown choice.\n")
		}
	}
}

// autoRefresh prints status every refresh until a line arrives.
// Reports whether input was closed.
func autoRefresh(ctx context.Context, out io.Writer, lines <-chan string, statusFn func() status.Snapshot, refresh time.Duration) bool {
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	PrintStatus(out, statusFn())
	for {
		select {
		case <-ctx.Done():
			return false
		case _, ok := <-lines:
			return !ok
		case <-ticker.C:
			PrintStatus(out, statusFn())
		}
	}
}

// PrintStatus writes a human readable status block.
func PrintStatus(out io.Writer, s status.Snapshot) {
	lastErr := s.LastError
	if lastErr == "" {
		lastErr = "none"
	}

	fmt.Fprint(out, "\n--- STATUS ---\n")
	fmt.Fprintf(out, "Running:         %t\n", s.Running)
	fmt.Fprintf(out, "Serial:          %s @ %d\n", s.Port, s.Baud)
	fmt.Fprintf(out, "Log file:        %s\n", s.LogPath)
	fmt.Fprintf(out, "Uptime:          %s\n", fmtSeconds(s.UptimeSeconds))
	fmt.Fprintf(out, "Last sample age: %s\n", fmtSeconds(s.LastSampleAgeSeconds))
	fmt.Fprintf(out, "Samples written: %d\n", s.SamplesWritten)
	fmt.Fprintf(out, "Bad reads:       %d\n", s.BadReads)
	fmt.Fprintf(out, "Write errors:    %d\n", s.WriteErrors)
	fmt.Fprintf(out, "Last error:      %s\n", lastErr)
	fmt.Fprintf(out, "Pins:            D4=%s D5=%s D6=%s D7=%s\n",
		fmtPin(s.Pins.D4), fmtPin(s.Pins.D5), fmtPin(s.Pins.D6), fmtPin(s.Pins.D7))
}

func fmtSeconds(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1fs", *v)
}

func fmtPin(v *int) string {
	if v == nil {
		return "none"
	}
	return strconv.Itoa(*v)
}

// readLines feeds lines from r into a channel closed at EOF.
// It gives up once done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return ch
}

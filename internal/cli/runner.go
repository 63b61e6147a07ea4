// Package cli is the terminal rendition of the publish flow's pages: phone
// entry, code entry, and the guarded publish step. It implements the flow's
// Navigator, so the state machine and guard drive it the same way they would
// drive a router.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vecinomarket/publicar-flow/internal/backend"
	"github.com/vecinomarket/publicar-flow/internal/flow"
	"github.com/vecinomarket/publicar-flow/internal/flowstore"
	"github.com/vecinomarket/publicar-flow/internal/models"
	"github.com/vecinomarket/publicar-flow/internal/session"
)

// Runner drives the interactive flow.
type Runner struct {
	store   flowstore.Store
	client  *backend.Client
	machine *flow.Machine

	in  *bufio.Scanner
	out io.Writer

	route    string
	navState *models.NavState
	quit     bool
}

// New creates a runner reading from stdin and writing to stdout.
func New(store flowstore.Store, client *backend.Client) *Runner {
	return &Runner{
		store:  store,
		client: client,
		in:     bufio.NewScanner(os.Stdin),
		out:    os.Stdout,
	}
}

// Push records a navigation. In a terminal there is no history stack; the
// distinction only matters to the guard, which insists on Replace.
func (r *Runner) Push(route string, st *models.NavState) {
	r.route = route
	r.navState = st
}

// Replace records a navigation, discarding the current step.
func (r *Runner) Replace(route string, st *models.NavState) {
	r.route = route
	r.navState = st
}

// Run resumes any persisted flow and loops through the steps until the user
// quits or reaches the publish step verified.
func (r *Runner) Run(ctx context.Context) error {
	r.machine = flow.NewMachine(r.store, r.client, r)
	if err := r.machine.Recover(ctx); err != nil {
		return fmt.Errorf("recover flow: %w", err)
	}

	// Landing at the entry point: short-circuit to the right step.
	r.route = models.RoutePhoneEntry
	draft, err := r.store.Load()
	if err != nil {
		return err
	}
	if plan := flow.PlanRedirect(draft, time.Now()); plan != nil {
		r.Replace(plan.Route, plan.State)
	}

	for !r.quit {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch r.route {
		case models.RouteVerify:
			r.verifyStep(ctx)
		case models.RoutePublish:
			r.publishStep(ctx)
		default:
			r.phoneStep(ctx)
		}
	}
	return nil
}

func (r *Runner) phoneStep(ctx context.Context) {
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "── Publicar en VecinoMarket ──")
	line, ok := r.prompt("WhatsApp number (10 digits, 'q' to quit): ")
	if !ok || line == "q" {
		r.quit = true
		return
	}

	if err := r.machine.RequestCode(ctx, line); err != nil {
		fmt.Fprintln(r.out, flow.UserMessage(err))
		return
	}
	fmt.Fprintln(r.out, "Code sent over WhatsApp.")
}

func (r *Runner) verifyStep(ctx context.Context) {
	_, local := r.machine.Phone()
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "── Verify %s ──\n", local)
	if remaining := r.machine.CooldownRemaining(); remaining > 0 {
		fmt.Fprintf(r.out, "Resend available in %ds.\n", remaining)
	}

	line, ok := r.prompt("6-digit code ('r' resend, 'c' change number, 'q' quit): ")
	if !ok || line == "q" {
		r.quit = true
		return
	}

	switch line {
	case "r":
		r.resend(ctx)
	case "c":
		if err := r.machine.ChangeNumber(); err != nil {
			fmt.Fprintln(r.out, flow.UserMessage(err))
		}
	default:
		if err := r.machine.SubmitCode(ctx, line); err != nil {
			fmt.Fprintln(r.out, flow.UserMessage(err))
			return
		}
		fmt.Fprintln(r.out, "Phone verified.")
	}
}

func (r *Runner) resend(ctx context.Context) {
	if r.machine.CooldownRemaining() > 0 {
		r.waitCooldown(ctx)
	}
	if err := r.machine.Resend(ctx); err != nil {
		fmt.Fprintln(r.out, flow.UserMessage(err))
		return
	}
	fmt.Fprintln(r.out, "New code sent.")
}

// waitCooldown ticks once a second, recomputing the remaining time from the
// stored timestamp each tick rather than counting down in memory.
func (r *Runner) waitCooldown(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		remaining := r.machine.CooldownRemaining()
		if remaining <= 0 {
			fmt.Fprintln(r.out)
			return
		}
		fmt.Fprintf(r.out, "\r⏳ Resend available in %2ds", remaining)
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return
		case <-ticker.C:
		}
	}
}

// publishStep is gated: it asks the backend once whether this client holds a
// live publish session and only renders when admitted. A denial redirects
// back to phone entry via the guard.
func (r *Runner) publishStep(ctx context.Context) {
	oracle := session.NewOracle(ctx, r.client)
	defer oracle.Cancel()

	guard := session.NewGuard(oracle, r, "")
	access := guard.Wait()
	if !access.OK {
		fmt.Fprintln(r.out, "Verification required before publishing.")
		return // the guard already replaced the route
	}

	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "✅ Verified as %s. You can publish your listing now.\n", access.PhoneLocal)
	r.quit = true
}

func (r *Runner) prompt(label string) (string, bool) {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

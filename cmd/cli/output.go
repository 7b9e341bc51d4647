package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/domain/account"
	"github.com/fatih/color"
)

type printer struct {
	w     io.Writer
	ok    *color.Color
	warn  *color.Color
	bad   *color.Color
	label *color.Color
}

func newPrinter(w io.Writer) printer {
	return printer{
		w:     w,
		ok:    color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed, color.Bold),
		label: color.New(color.FgCyan),
	}
}

func (p printer) success(format string, args ...any) {
	_, _ = p.ok.Fprintf(p.w, "✔ "+format+"\n", args...)
}

func (p printer) notice(format string, args ...any) {
	_, _ = p.warn.Fprintf(p.w, format+"\n", args...)
}

func (p printer) field(name string, value any) {
	_, _ = p.label.Fprintf(p.w, "  %-16s", name)
	_, _ = fmt.Fprintln(p.w, value)
}

func (p printer) plain(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p printer) failure(err error) {
	_, _ = p.bad.Fprintf(p.w, "✘ %v\n", err)
	if hint := hintFor(err); hint != "" {
		_, _ = p.warn.Fprintf(p.w, "  %s\n", hint)
	}
}

func hintFor(err error) string {
	switch {
	case account.IsRetryable(err):
		return "the account is busy, retry with the same -key"
	case errors.Is(err, commands.ErrValidation), errors.Is(err, errUsage):
		return "run 'help' for usage"
	case errors.Is(err, account.ErrAccountNotActive):
		return "unblock the account first"
	case errors.Is(err, account.ErrNonZeroBalanceOnClose):
		return "withdraw or transfer the remaining balance first"
	default:
		return ""
	}
}

func (p printer) account(acc *account.Account) {
	p.field("number", acc.Number)
	p.field("owner", acc.UserID)
	p.field("type", acc.Type)
	p.field("status", statusText(acc))
	p.field("balance", acc.Balance)
	p.field("available", acc.AvailableBalance())
	if !acc.OverdraftLimit.IsZero() {
		p.field("overdraft limit", acc.OverdraftLimit)
	}
	p.field("interest rate", acc.InterestRate.StringFixed(2)+"%")
	if acc.BranchIFSC != "" {
		p.field("branch", acc.BranchIFSC)
	}
}

func statusText(acc *account.Account) string {
	if acc.StatusReason == "" {
		return acc.Status.String()
	}
	return fmt.Sprintf("%s (%s)", acc.Status, acc.StatusReason)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/amirasaad/ledger/pkg/commands"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/money"
	"github.com/amirasaad/ledger/pkg/service/journal"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/amirasaad/ledger/pkg/service/lifecycle"
	"github.com/amirasaad/ledger/pkg/service/provisioning"
	"github.com/google/uuid"
)

var errUsage = errors.New("usage")

const usage = `Commands (flags go before positional arguments):
  open -user <uuid> [-type SAVINGS|CURRENT|SALARY|FIXED_DEPOSIT] [-currency USD]
       [-branch IFSC] [-deposit 0.00] [-overdraft 0.00]
  accounts -user <uuid>
  deposit  [-currency USD] [-narration text] [-key k] <account> <amount>
  withdraw [-currency USD] [-narration text] [-key k] <account> <amount>
  transfer [-currency USD] [-narration text] [-key k] <from> <to> <amount>
  balance  <account>
  show     <account>
  block    <account> <reason>
  unblock  <account>
  close    <account> <reason>
  history  <account>
  verify   <account>
  help | exit`

type cli struct {
	ledger       *ledger.Engine
	lifecycle    *lifecycle.Manager
	journal      *journal.Service
	provisioning *provisioning.Service
	out          printer
	w            io.Writer
}

func newCLI(deps config.Deps, w io.Writer, opts ...provisioning.Option) *cli {
	return &cli{
		ledger:       ledger.NewEngine(deps),
		lifecycle:    lifecycle.NewManager(deps),
		journal:      journal.NewService(deps),
		provisioning: provisioning.NewService(deps, opts...),
		out:          newPrinter(w),
		w:            w,
	}
}

func (c *cli) help() {
	c.out.plain("%s", usage)
}

func (c *cli) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	name, rest := args[0], args[1:]
	switch name {
	case "help", "-h", "--help":
		c.help()
		return nil
	case "open":
		return c.open(ctx, rest)
	case "accounts":
		return c.accounts(ctx, rest)
	case "deposit":
		return c.post(ctx, name, rest)
	case "withdraw":
		return c.post(ctx, name, rest)
	case "transfer":
		return c.transfer(ctx, rest)
	case "balance":
		return c.balance(ctx, rest)
	case "show":
		return c.show(ctx, rest)
	case "block":
		return c.block(ctx, rest)
	case "unblock":
		return c.unblock(ctx, rest)
	case "close":
		return c.close(ctx, rest)
	case "history":
		return c.history(ctx, rest)
	case "verify":
		return c.verify(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string, positional ...string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errUsage, fs.Name(), err)
	}
	rest := fs.Args()
	if len(rest) < len(positional) {
		return nil, fmt.Errorf("%w: %s needs %s", errUsage, fs.Name(), strings.Join(positional, " "))
	}
	return rest, nil
}

func (c *cli) open(ctx context.Context, args []string) error {
	fs := c.flags("open")
	cmd := commands.Open{}
	fs.StringVar(&cmd.UserID, "user", "", "owner id")
	fs.StringVar(&cmd.Type, "type", "SAVINGS", "account type")
	fs.StringVar(&cmd.Currency, "currency", string(money.DefaultCode), "currency code")
	fs.StringVar(&cmd.BranchIFSC, "branch", "", "branch IFSC code")
	fs.StringVar(&cmd.InitialDeposit, "deposit", "", "opening balance")
	fs.StringVar(&cmd.OverdraftLimit, "overdraft", "", "overdraft limit")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	cmd.Type = strings.ToUpper(cmd.Type)
	cmd.Currency = strings.ToUpper(cmd.Currency)
	if err := commands.Validate(cmd); err != nil {
		return err
	}
	req, err := cmd.Request()
	if err != nil {
		return err
	}
	acc, err := c.provisioning.Open(ctx, req)
	if err != nil {
		return err
	}
	c.out.success("Opened account %s", acc.Number)
	c.out.account(acc)
	return nil
}

func (c *cli) accounts(ctx context.Context, args []string) error {
	fs := c.flags("accounts")
	user := fs.String("user", "", "owner id")
	if _, err := parse(fs, args); err != nil {
		return err
	}
	userID, err := uuid.Parse(*user)
	if err != nil {
		return fmt.Errorf("%w: accounts: invalid -user: %w", errUsage, err)
	}
	accounts, err := c.ledger.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		c.out.notice("No accounts for %s", userID)
		return nil
	}
	tw := tabwriter.NewWriter(c.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NUMBER\tTYPE\tSTATUS\tBALANCE")
	for _, acc := range accounts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", acc.Number, acc.Type, acc.Status, acc.Balance)
	}
	return tw.Flush()
}

type postFlags struct {
	currency  *string
	narration *string
	key       *string
}

func movementFlags(fs *flag.FlagSet) postFlags {
	return postFlags{
		currency:  fs.String("currency", string(money.DefaultCode), "currency code"),
		narration: fs.String("narration", "", "free text stored on the record"),
		key:       fs.String("key", "", "idempotency key"),
	}
}

func (f postFlags) options() []ledger.Option {
	if *f.key == "" {
		return nil
	}
	return []ledger.Option{ledger.WithIdempotencyKey(*f.key)}
}

// post runs deposit and withdraw, which share their input.
func (c *cli) post(ctx context.Context, name string, args []string) error {
	fs := c.flags(name)
	f := movementFlags(fs)
	rest, err := parse(fs, args, "<account>", "<amount>")
	if err != nil {
		return err
	}
	currency := strings.ToUpper(*f.currency)

	var (
		amount money.Money
		res    *ledger.Result
	)
	if name == "deposit" {
		cmd := commands.Deposit{AccountNumber: rest[0], Amount: rest[1], Currency: currency,
			Narration: *f.narration, IdempotencyKey: *f.key}
		if err := commands.Validate(cmd); err != nil {
			return err
		}
		if amount, err = cmd.Money(); err != nil {
			return err
		}
		res, err = c.ledger.Deposit(ctx, cmd.AccountNumber, amount, cmd.Narration, f.options()...)
	} else {
		cmd := commands.Withdraw{AccountNumber: rest[0], Amount: rest[1], Currency: currency,
			Narration: *f.narration, IdempotencyKey: *f.key}
		if err := commands.Validate(cmd); err != nil {
			return err
		}
		if amount, err = cmd.Money(); err != nil {
			return err
		}
		res, err = c.ledger.Withdraw(ctx, cmd.AccountNumber, amount, cmd.Narration, f.options()...)
	}
	if err != nil {
		return err
	}

	verb := map[string]string{"deposit": "Deposited", "withdraw": "Withdrew"}[name]
	c.out.success("%s %s, balance %s", verb, amount, res.Balance)
	c.out.field("transaction", res.Transaction.ID)
	if res.Replayed {
		c.out.notice("  replayed an earlier request with the same key")
	}
	return nil
}

func (c *cli) transfer(ctx context.Context, args []string) error {
	fs := c.flags("transfer")
	f := movementFlags(fs)
	rest, err := parse(fs, args, "<from>", "<to>", "<amount>")
	if err != nil {
		return err
	}
	cmd := commands.Transfer{From: rest[0], To: rest[1], Amount: rest[2],
		Currency: strings.ToUpper(*f.currency), Narration: *f.narration, IdempotencyKey: *f.key}
	if err := commands.Validate(cmd); err != nil {
		return err
	}
	amount, err := cmd.Money()
	if err != nil {
		return err
	}
	res, err := c.ledger.Transfer(ctx, cmd.From, cmd.To, amount, cmd.Narration, f.options()...)
	if err != nil {
		return err
	}
	c.out.success("Transferred %s from %s to %s", amount, cmd.From, cmd.To)
	c.out.field("correlation", res.CorrelationID())
	c.out.field(cmd.From, res.FromBalance)
	c.out.field(cmd.To, res.ToBalance)
	if res.Replayed {
		c.out.notice("  replayed an earlier request with the same key")
	}
	return nil
}

func (c *cli) balance(ctx context.Context, args []string) error {
	fs := c.flags("balance")
	rest, err := parse(fs, args, "<account>")
	if err != nil {
		return err
	}
	bal, err := c.ledger.GetBalance(ctx, rest[0])
	if err != nil {
		return err
	}
	c.out.plain("%s", bal)
	return nil
}

func (c *cli) show(ctx context.Context, args []string) error {
	fs := c.flags("show")
	rest, err := parse(fs, args, "<account>")
	if err != nil {
		return err
	}
	acc, err := c.ledger.GetAccount(ctx, rest[0])
	if err != nil {
		return err
	}
	c.out.account(acc)
	return nil
}

func (c *cli) block(ctx context.Context, args []string) error {
	fs := c.flags("block")
	rest, err := parse(fs, args, "<account>", "<reason>")
	if err != nil {
		return err
	}
	cmd := commands.Block{AccountNumber: rest[0], Reason: strings.Join(rest[1:], " ")}
	if err := commands.Validate(cmd); err != nil {
		return err
	}
	acc, err := c.lifecycle.Block(ctx, cmd.AccountNumber, cmd.Reason)
	if err != nil {
		return err
	}
	c.out.success("Account %s is %s", acc.Number, statusText(acc))
	return nil
}

func (c *cli) unblock(ctx context.Context, args []string) error {
	fs := c.flags("unblock")
	rest, err := parse(fs, args, "<account>")
	if err != nil {
		return err
	}
	cmd := commands.Unblock{AccountNumber: rest[0]}
	if err := commands.Validate(cmd); err != nil {
		return err
	}
	acc, err := c.lifecycle.Unblock(ctx, cmd.AccountNumber)
	if err != nil {
		return err
	}
	c.out.success("Account %s is %s", acc.Number, statusText(acc))
	return nil
}

func (c *cli) close(ctx context.Context, args []string) error {
	fs := c.flags("close")
	rest, err := parse(fs, args, "<account>", "<reason>")
	if err != nil {
		return err
	}
	cmd := commands.Close{AccountNumber: rest[0], Reason: strings.Join(rest[1:], " ")}
	if err := commands.Validate(cmd); err != nil {
		return err
	}
	acc, err := c.lifecycle.Close(ctx, cmd.AccountNumber, cmd.Reason)
	if err != nil {
		return err
	}
	c.out.success("Account %s is %s", acc.Number, statusText(acc))
	return nil
}

func (c *cli) history(ctx context.Context, args []string) error {
	fs := c.flags("history")
	rest, err := parse(fs, args, "<account>")
	if err != nil {
		return err
	}
	records, err := c.journal.History(ctx, rest[0])
	if err != nil {
		return err
	}
	if len(records) == 0 {
		c.out.notice("No transactions for %s", rest[0])
		return nil
	}
	tw := tabwriter.NewWriter(c.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SEQ\tKIND\tAMOUNT\tBALANCE\tCOUNTERPARTY\tCORRELATION\tNARRATION")
	for _, rec := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Sequence, rec.Kind, rec.Amount, rec.BalanceAfter,
			dash(rec.CounterpartyNumber), rec.CorrelationID, dash(rec.Narration))
	}
	return tw.Flush()
}

func (c *cli) verify(ctx context.Context, args []string) error {
	fs := c.flags("verify")
	rest, err := parse(fs, args, "<account>")
	if err != nil {
		return err
	}
	v, err := c.journal.Verify(ctx, rest[0])
	if err != nil {
		return err
	}
	c.out.success("Ledger of %s is consistent", v.AccountNumber)
	c.out.field("opening", v.Opening)
	c.out.field("records", v.Records)
	c.out.field("balance", v.Stored)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

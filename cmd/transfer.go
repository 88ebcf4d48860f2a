package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"time-release-helper/internal/emitters"
	"time-release-helper/internal/events"
	"time-release-helper/internal/health"
	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/ledger"
	"time-release-helper/internal/logger"
	"time-release-helper/internal/models"
	"time-release-helper/internal/rpc"
	"time-release-helper/internal/ss58"
	"time-release-helper/internal/submission"
	"time-release-helper/internal/units"
)

type transferFlags struct {
	label       string
	sender      string
	recipient   string
	amount      string
	amountUnits string
	decimals    uint8
	date        string
	paste       string
	useMultisig bool
	multisig    multisigFlags
	live        bool
	dryRun      bool
	export      string
	scope       string
}

func newTransferCmd(a *app) *cobra.Command {
	var f transferFlags

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Submit a time-locked transfer, directly or through a multisig",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfer(cmd.Context(), a, &f, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&f.label, "label", "", "Transaction label carried on the log and export")
	cmd.Flags().StringVar(&f.sender, "sender", "", "Signing account")
	cmd.Flags().StringVar(&f.recipient, "recipient", "", "Recipient account")
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount in planck")
	cmd.Flags().StringVar(&f.amountUnits, "amount-units", "", "Amount in UNIT, e.g. 1.5")
	cmd.Flags().Uint8Var(&f.decimals, "decimals", units.DefaultDecimals, "Token decimals used by --amount-units")
	cmd.Flags().StringVar(&f.date, "date", "", "Unlock date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.paste, "paste", "", "Tab separated row: label, recipient, amount, date")
	cmd.Flags().BoolVar(&f.useMultisig, "multisig", false, "Send through the multisig formed by --signatory and --threshold")
	f.multisig.register(cmd)
	cmd.Flags().BoolVar(&f.live, "live", false, "Refresh the chain reference from the node before estimating")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Build and print the call without signing or submitting")
	cmd.Flags().StringVar(&f.export, "export", "", "Write the session ledger as TSV to this file ('-' for stdout)")
	cmd.Flags().StringVar(&f.scope, "scope", "all", "Export scope: all or last")
	_ = cmd.MarkFlagRequired("sender")
	cmd.MarkFlagsMutuallyExclusive("amount", "amount-units")
	return cmd
}

// applyPaste fills empty fields from a pasted spreadsheet row
func (f *transferFlags) applyPaste() error {
	if f.paste == "" {
		return nil
	}
	row, err := ledger.ParsePastedRow(f.paste)
	if err != nil {
		return fmt.Errorf("invalid pasted row: %w", err)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&f.label, row.Label)
	fill(&f.recipient, row.Recipient)
	fill(&f.amount, row.Amount)
	fill(&f.date, row.Date.Format(time.DateOnly))
	return nil
}

func runTransfer(ctx context.Context, a *app, f *transferFlags, out io.Writer) error {
	log := logger.GetLogger()

	if err := f.applyPaste(); err != nil {
		return err
	}
	scope, err := ledger.ParseScope(f.scope)
	if err != nil {
		return err
	}
	if f.recipient == "" || (f.amount == "" && f.amountUnits == "") || f.date == "" {
		return fmt.Errorf("recipient, amount and date are required (directly or via --paste)")
	}

	n, err := a.network()
	if err != nil {
		return err
	}
	amount, err := f.planck()
	if err != nil {
		return err
	}
	recipient, err := ss58.Reencode(f.recipient, n.Prefix)
	if err != nil {
		return &models.InvalidAddressError{Which: f.recipient, Reason: err.Error()}
	}
	if recipient != f.recipient {
		log.Info().Str("from", f.recipient).Str("to", recipient).Msg("Recipient re-encoded for the network prefix")
	}

	reg, err := a.registry(ctx, n, f.live)
	if err != nil {
		return err
	}
	block, err := a.resolveDate(reg, n, f.date)
	if err != nil {
		return err
	}

	d, _ := time.Parse(time.DateOnly, f.date)
	req := submission.Request{
		Label:     f.label,
		Sender:    models.Signatory(f.sender),
		Recipient: models.Signatory(recipient),
		Amount:    amount,
		Unlock:    models.UnlockTarget{Year: d.Year(), Month: d.Month(), Day: d.Day(), ResolvedBlock: &block},
		Mode:      models.Direct,
	}
	if f.useMultisig {
		cfg, err := f.multisig.resolve(n.Prefix, f.sender)
		if err != nil {
			return err
		}
		req.Mode = models.Multisig
		req.Multisig = cfg
	}

	l := ledger.New(logger.Component("ledger"))
	emitter, closeEmitter := a.emitterChain(out)
	defer closeEmitter()

	// keep a file export current while the transfer is watched
	if f.export != "" && f.export != "-" {
		l.OnChange(func(models.SubmissionRecord) {
			if err := writeExport(l, f.export, scope, out); err != nil {
				log.Warn().Err(err).Msg("Failed to refresh ledger export")
			}
		})
	}

	builder := n.Builder(a.cfg.Submission.MaxWeight)

	if f.dryRun {
		svc := submission.NewService(n.Name, builder, nil, l, emitter, 0, log)
		prepared, err := svc.Build(req)
		if err != nil {
			return err
		}
		fmt.Fprint(out, events.FormatEntry(models.SubmissionEvent{
			SessionID: l.SessionID(),
			Network:   n.Name,
			Message:   "Dry run, not submitted",
			Details:   prepared.Details,
			Record:    prepared.Record,
		}))
		if f.useMultisig {
			fmt.Fprintf(out, "Wrapped call: %s\n", hexutil.Encode(prepared.Call))
		}
		return nil
	}

	cc, client, err := a.connect(ctx, n)
	if err != nil {
		return err
	}
	defer client.Close()

	balance, err := cc.FreeBalance(ctx, req.Sender)
	if err != nil {
		log.Warn().Err(err).Msg("Could not read sender balance")
	} else {
		log.Info().Str("sender", f.sender).Str("balance", cc.FormatBalance(balance)+" "+cc.Unit).Msg("Sender balance")
	}

	if a.cfg.MetricsAddr != "" {
		opsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		health.RegisterChain(opsCtx, n.Name.String(), client, 30*time.Second)
		health.SetReady(true)
		go func() {
			if err := health.Serve(opsCtx, a.cfg.MetricsAddr, health.NewRouter(l, emitter.SessionLog)); err != nil {
				log.Error().Err(err).Msg("Ops server failed")
			}
		}()
	}

	signerClient := a.rpcClient(a.cfg.Signer.Endpoint)
	defer signerClient.Close()
	signer := rpc.NewRemoteSigner(signerClient, a.cfg.Signer.Method)
	watcher := rpc.NewWatcher(cc.Endpoint, signer, logger.Component("watcher"))

	svc := submission.NewService(n.Name, builder, watcher, l, emitter, a.cfg.Submission.Timeout, log)
	h, err := svc.Submit(ctx, req)
	if err != nil {
		return err
	}

	// the handle keeps running after a cancelled ctx only long enough to stop watching
	rec, waitErr := h.Wait(context.Background())

	if f.export != "" {
		if err := writeExport(l, f.export, scope, out); err != nil {
			return err
		}
	}

	if rec.Status == models.StatusError {
		return fmt.Errorf("transfer %s failed: %s", rec.Key, rec.ErrorMessage)
	}
	if waitErr != nil {
		return waitErr
	}
	fmt.Fprintf(out, "Finalized %s in block %s\n", rec.Key, rec.FinalizedBlockRef)
	return nil
}

// planck resolves the amount from --amount or --amount-units
func (f *transferFlags) planck() (*big.Int, error) {
	if f.amountUnits != "" {
		return units.ParseUnits(f.amountUnits, f.decimals)
	}
	return units.ParsePlanck(f.amount)
}

// emitterChain builds the session log emitter, forwarding to every configured sink
func (a *app) emitterChain(out io.Writer) (*events.LogEmitter, func()) {
	var sinks events.MultiEmitter
	closeFn := func() {}
	if a.cfg.Kafka.Enabled() {
		k := emitters.NewKafkaEmitter(a.cfg.Kafka.BrokerAddress, a.cfg.Kafka.Topic, logger.Component("kafka"))
		sinks = append(sinks, k)
		closeFn = func() {
			if err := k.Close(); err != nil {
				logger.GetLogger().Error().Err(err).Msg("Failed to close Kafka emitter")
			}
		}
	}
	var next interfaces.EventEmitter
	if len(sinks) > 0 {
		next = sinks
	}
	return events.NewLogEmitter(out, logger.Component("events"), next), closeFn
}

func writeExport(l *ledger.Ledger, path string, scope ledger.Scope, out io.Writer) error {
	if path == "-" {
		return l.WriteTSV(out, scope)
	}
	path = strings.TrimSpace(path)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()
	if err := l.WriteTSV(file, scope); err != nil {
		return err
	}
	logger.GetLogger().Debug().Str("path", path).Int("records", l.Len()).Msg("Ledger exported")
	return nil
}

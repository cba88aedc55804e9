// Package analysis runs the whole statement pipeline over a workspace: list,
// classify, parse, dedupe, apply rules, reconcile.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrJamesThe3rd/heshbon/internal/classifier"
	"github.com/MrJamesThe3rd/heshbon/internal/importer"
	"github.com/MrJamesThe3rd/heshbon/internal/reconcile"
	"github.com/MrJamesThe3rd/heshbon/internal/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/tabular"
	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
	"github.com/MrJamesThe3rd/heshbon/internal/workspace"
)

var ErrNoStatementFiles = errors.New("no CSV/XLSX files found")

// Skip reasons.
const (
	ReasonUnreadable = "unreadable"
	ReasonCancelled  = "cancelled"
	ReasonUnknown    = "unknown sheet type"
	ReasonNoHeader   = "no header"
)

// Skip is a file or sheet the pipeline left out.
type Skip struct {
	File   string `json:"file"`
	Sheet  string `json:"sheet,omitempty"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

type Result struct {
	Transactions []transaction.Transaction `json:"transactions"`
	Cycles       []transaction.CycleSummary `json:"cycles"`
	Skipped      []Skip                     `json:"skipped,omitempty"`
	Pending      []classifier.Pending       `json:"pending,omitempty"`
	Totals       transaction.Summary        `json:"totals"`
}

// Unmatched returns the cycles no bank debit was found for.
func (r *Result) Unmatched() []transaction.CycleSummary {
	return reconcile.Result{Cycles: r.Cycles}.Unmatched()
}

type pendingReporter interface {
	Pending() []classifier.Pending
}

type Service struct {
	importer *importer.Service
	opts     reconcile.Options
	logger   *slog.Logger
}

func NewService(opts reconcile.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		importer: importer.NewService(),
		opts:     opts,
		logger:   logger,
	}
}

// Analyze processes every statement file in ws. Rules and sheet type overrides
// come from repo; sheets the classifier cannot decide go to resolver. A file or
// sheet that fails is skipped and reported, never fatal. New sheet type answers
// are saved back to repo; a failed save is logged and the run continues.
func (s *Service) Analyze(ctx context.Context, ws workspace.Workspace, repo rules.Repository, resolver classifier.Resolver) (*Result, error) {
	rs, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	names, err := statementFiles(ctx, ws)
	if err != nil {
		return nil, err
	}

	cls := classifier.New(rs.SheetTypes, resolver)
	res := &Result{}

	var txs []transaction.Transaction

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		parsed, skipped := s.processFile(ctx, ws, cls, name)
		txs = append(txs, parsed...)
		res.Skipped = append(res.Skipped, skipped...)
	}

	if cls.Changed() {
		rs.SheetTypes = cls.Overrides()
		if err := repo.Save(ctx, rs); err != nil {
			s.logger.Warn("failed to save sheet type overrides", "error", err)
		}
	}

	if pr, ok := resolver.(pendingReporter); ok {
		res.Pending = pr.Pending()
	}

	txs = transaction.Dedupe(txs)
	txs = rules.Apply(txs, rs)

	rec := reconcile.Reconcile(txs, s.opts)
	res.Transactions = rec.Transactions
	res.Cycles = rec.Cycles
	res.Totals = transaction.Totals(rec.Transactions)

	for _, c := range rec.Unmatched() {
		s.logger.Debug("billing cycle not found in bank data", "cycle", c.Key, "net", c.NetCharge)
	}

	return res, nil
}

func statementFiles(ctx context.Context, ws workspace.Workspace) ([]string, error) {
	all, err := ws.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var names []string

	for _, name := range all {
		// Office lock files and hidden files share the extension but hold no data.
		if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
			continue
		}

		if tabular.FormatOf(name) != "" {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return nil, ErrNoStatementFiles
	}

	return names, nil
}

func (s *Service) processFile(ctx context.Context, ws workspace.Workspace, cls *classifier.Classifier, name string) ([]transaction.Transaction, []Skip) {
	data, err := ws.ReadBytes(ctx, name)
	if err != nil {
		s.logger.Warn("failed to read file", "file", name, "error", err)
		return nil, []Skip{{File: name, Reason: ReasonUnreadable, Error: err.Error()}}
	}

	sheets, err := tabular.Read(name, data)
	if err != nil {
		s.logger.Warn("failed to parse file", "file", name, "error", err)
		return nil, []Skip{{File: name, Reason: ReasonUnreadable, Error: err.Error()}}
	}

	var (
		txs     []transaction.Transaction
		skipped []Skip
	)

	for _, sheet := range sheets {
		key := classifier.Key{FileName: name, SheetName: sheet.Name}

		sheetType, err := cls.Classify(ctx, key, sheet.Rows)
		if err != nil {
			skip := Skip{File: name, Sheet: sheet.Name, Reason: ReasonUnknown}

			if errors.Is(err, classifier.ErrUserCancelled) {
				skip.Reason = ReasonCancelled
			} else {
				skip.Error = err.Error()
			}

			skipped = append(skipped, skip)

			continue
		}

		parsed, err := s.importer.Import(name, sheetType, sheet)
		if err != nil {
			s.logger.Warn("failed to parse sheet", "file", name, "sheet", sheet.Name, "type", sheetType, "error", err)
			skipped = append(skipped, Skip{File: name, Sheet: sheet.Name, Reason: ReasonNoHeader, Error: err.Error()})

			continue
		}

		txs = append(txs, parsed...)
	}

	return txs, skipped
}

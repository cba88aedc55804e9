// Package reconcile matches credit card billing cycles against the bank debits
// that pay them, and annotates both sides so totals never count a purchase
// twice.
//
// Matching runs in three passes over unclaimed bank debits:
//
//   - full: one debit equals one cycle's net charge (a bipartite assignment)
//   - multi: a few card charge debits together equal one cycle's net charge
//   - grouped: one debit equals the sum of several cycles' net charges
//
// A bank row settles at most one cycle or group. Cycles left over are reported
// with status none. Reconciliation never fails.
package reconcile

import (
	"cmp"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/heshbon/internal/transaction"
)

// Options bound the matching heuristics.
type Options struct {
	// DateWindowDays is how far a bank debit may be from a charge date.
	DateWindowDays int
	// AmountTolerance is the accepted difference in cents.
	AmountTolerance int64
	// MaxComboSize caps how many cycles one bank debit may settle.
	MaxComboSize int
	// MaxSplitParts caps how many bank debits may settle one cycle.
	MaxSplitParts int
}

func DefaultOptions() Options {
	return Options{
		DateWindowDays:  5,
		AmountTolerance: 1,
		MaxComboSize:    4,
		MaxSplitParts:   3,
	}
}

// maxPool caps the candidates considered by the subset searches.
const maxPool = 12

// Result is the annotated transaction list and one summary per billing cycle.
type Result struct {
	Transactions []transaction.Transaction
	Cycles       []transaction.CycleSummary
}

// Unmatched returns the cycles no bank debit was found for.
func (r Result) Unmatched() []transaction.CycleSummary {
	var out []transaction.CycleSummary

	for _, c := range r.Cycles {
		if c.BankMatchStatus == transaction.MatchNone {
			out = append(out, c)
		}
	}

	return out
}

type debit struct {
	idx     int
	date    time.Time
	claimed bool
}

type engine struct {
	opts   Options
	txs    []transaction.Transaction
	cycles []*cycle
	debits []*debit
}

// Reconcile matches cycles to bank debits. The input is not modified.
func Reconcile(txs []transaction.Transaction, opts Options) Result {
	e := &engine{
		opts:   normalize(opts),
		txs:    transaction.CloneAll(txs),
		cycles: buildCycles(txs),
	}

	for i, t := range e.txs {
		if t.Source != transaction.SourceBank || t.Direction != transaction.DirectionExpense || t.Neutral || t.Amount <= 0 {
			continue
		}

		if d, ok := transaction.ParseDate(t.Date); ok {
			e.debits = append(e.debits, &debit{idx: i, date: d})
		}
	}

	e.matchFull()
	e.matchSplit()
	e.matchGrouped()

	res := Result{Transactions: e.txs, Cycles: make([]transaction.CycleSummary, len(e.cycles))}
	for i, c := range e.cycles {
		res.Cycles[i] = c.summary
	}

	return res
}

func normalize(o Options) Options {
	d := DefaultOptions()

	if o.DateWindowDays <= 0 {
		o.DateWindowDays = d.DateWindowDays
	}

	if o.AmountTolerance < 0 {
		o.AmountTolerance = 0
	}

	if o.MaxComboSize < 2 {
		o.MaxComboSize = d.MaxComboSize
	}

	if o.MaxSplitParts < 2 {
		o.MaxSplitParts = d.MaxSplitParts
	}

	return o
}

func (e *engine) near(a, b time.Time) bool {
	return transaction.DaysApart(a, b) <= e.opts.DateWindowDays
}

func (e *engine) flagged(d *debit) bool {
	return e.txs[d.idx].Kind == transaction.KindCreditCharge
}

// cardConflict reports whether a debit names a different card than the cycle.
func (e *engine) cardConflict(d *debit, c *cycle) bool {
	card := e.txs[d.idx].CardLast4
	return card != "" && c.summary.CardLast4 != "" && card != c.summary.CardLast4
}

// preference orders debits for a cycle: closest date, then statement order.
func (e *engine) preference(c *cycle) func(a, b *debit) int {
	return func(a, b *debit) int {
		if r := cmp.Compare(transaction.DaysApart(a.date, c.date), transaction.DaysApart(b.date, c.date)); r != 0 {
			return r
		}

		return cmp.Compare(a.idx, b.idx)
	}
}

// preferFlagged keeps only the keyword-flagged card charges when there is at
// least one, so an unrelated debit of the same amount is never annotated as a
// card bill while the real one is available.
func (e *engine) preferFlagged(ds []*debit) []*debit {
	flagged := slices.DeleteFunc(slices.Clone(ds), func(d *debit) bool { return !e.flagged(d) })
	if len(flagged) > 0 {
		return flagged
	}

	return ds
}

// matchFull assigns single debits to single cycles. Keyword-flagged card
// charges shadow other candidates of the same cycle. Each cycle first takes
// its most preferred free debit; cycles left without one then look for an
// augmenting path, moving an earlier claim to another valid debit. The result
// is a maximum bipartite matching.
func (e *engine) matchFull() {
	candidates := make([][]*debit, len(e.cycles))

	for ci, c := range e.cycles {
		if !c.matchable() {
			continue
		}

		for _, d := range e.debits {
			if abs(e.txs[d.idx].Amount-c.summary.NetCharge) <= e.opts.AmountTolerance &&
				e.near(d.date, c.date) && !e.cardConflict(d, c) {
				candidates[ci] = append(candidates[ci], d)
			}
		}

		candidates[ci] = e.preferFlagged(candidates[ci])
		slices.SortFunc(candidates[ci], e.preference(c))
	}

	owner := map[*debit]int{}
	assigned := make([]bool, len(e.cycles))

	for ci := range e.cycles {
		for _, d := range candidates[ci] {
			if _, taken := owner[d]; !taken {
				owner[d] = ci
				assigned[ci] = true

				break
			}
		}
	}

	var augment func(ci int, visited map[*debit]bool) bool

	augment = func(ci int, visited map[*debit]bool) bool {
		for _, d := range candidates[ci] {
			if visited[d] {
				continue
			}

			visited[d] = true

			prev, taken := owner[d]
			if !taken || augment(prev, visited) {
				owner[d] = ci
				return true
			}
		}

		return false
	}

	for ci := range e.cycles {
		if !assigned[ci] && len(candidates[ci]) > 0 {
			augment(ci, map[*debit]bool{})
		}
	}

	for d, ci := range owner {
		d.claimed = true
		e.settle(e.cycles[ci], transaction.MatchFull, []*debit{d})
	}
}

// matchSplit settles a cycle with two or more keyword-flagged card charge
// debits near its charge date.
func (e *engine) matchSplit() {
	for _, c := range e.cycles {
		if !c.matchable() || c.summary.BankMatchStatus != transaction.MatchNone {
			continue
		}

		var pool []*debit

		for _, d := range e.debits {
			if d.claimed || !e.flagged(d) || e.cardConflict(d, c) || !e.near(d.date, c.date) {
				continue
			}

			if e.txs[d.idx].Amount < c.summary.NetCharge {
				pool = append(pool, d)
			}
		}

		slices.SortFunc(pool, e.preference(c))
		pool = pool[:min(len(pool), maxPool)]

		values := make([]int64, len(pool))
		for i, d := range pool {
			values[i] = e.txs[d.idx].Amount
		}

		found := findSubset(values, c.summary.NetCharge, e.opts.AmountTolerance, 2, e.opts.MaxSplitParts)
		if found == nil {
			continue
		}

		parts := make([]*debit, len(found))
		for i, p := range found {
			parts[i] = pool[p]
			parts[i].claimed = true
		}

		slices.SortFunc(parts, func(a, b *debit) int { return cmp.Compare(a.idx, b.idx) })
		e.settle(c, transaction.MatchMulti, parts)
	}
}

// matchGrouped settles several cycles with one debit. Keyword-flagged debits
// are tried first.
func (e *engine) matchGrouped() {
	order := slices.Clone(e.debits)
	slices.SortStableFunc(order, func(a, b *debit) int {
		if fa, fb := e.flagged(a), e.flagged(b); fa != fb {
			if fa {
				return -1
			}

			return 1
		}

		return 0
	})

	for _, d := range order {
		if d.claimed {
			continue
		}

		var pool []*cycle

		for _, c := range e.cycles {
			if c.matchable() && c.summary.BankMatchStatus == transaction.MatchNone &&
				!e.cardConflict(d, c) && e.near(d.date, c.date) {
				pool = append(pool, c)
			}
		}

		if len(pool) < 2 {
			continue
		}

		if len(pool) > maxPool {
			slices.SortStableFunc(pool, func(a, b *cycle) int {
				return cmp.Compare(transaction.DaysApart(a.date, d.date), transaction.DaysApart(b.date, d.date))
			})
			pool = pool[:maxPool]
			slices.SortStableFunc(pool, func(a, b *cycle) int { return cmp.Compare(e.cycleIndex(a), e.cycleIndex(b)) })
		}

		values := make([]int64, len(pool))
		for i, c := range pool {
			values[i] = c.summary.NetCharge
		}

		found := findSubset(values, e.txs[d.idx].Amount, e.opts.AmountTolerance, 2, e.opts.MaxComboSize)
		if found == nil {
			continue
		}

		d.claimed = true

		group := make([]*cycle, len(found))
		for i, p := range found {
			group[i] = pool[p]
		}

		e.settleGroup(d, group)
	}
}

func (e *engine) cycleIndex(c *cycle) int {
	return slices.Index(e.cycles, c)
}

// settle links one cycle to the debits that pay it.
func (e *engine) settle(c *cycle, status transaction.MatchStatus, debits []*debit) {
	c.summary.BankMatchStatus = status

	bankIDs := make([]string, len(debits))

	for i, d := range debits {
		t := &e.txs[d.idx]
		t.Kind = transaction.KindCreditCharge
		t.MatchedCardLast4 = c.summary.CardLast4
		t.RelatedTransactionIDs = slices.Clone(c.summary.TransactionIDs)

		bankIDs[i] = t.ID
	}

	c.summary.BankTransactionIDs = bankIDs

	for _, m := range c.members {
		e.txs[m].RelatedTransactionIDs = slices.Clone(bankIDs)
	}
}

// settleGroup links one debit to every cycle it pays.
func (e *engine) settleGroup(d *debit, group []*cycle) {
	t := &e.txs[d.idx]
	t.Kind = transaction.KindCreditChargeCombined
	t.MatchedComboSize = len(group)
	t.MatchedCycleKeys = make([]string, len(group))
	t.RelatedTransactionIDs = nil
	t.MatchedCardLast4All = nil

	for i, c := range group {
		c.summary.BankMatchStatus = transaction.MatchGrouped
		c.summary.BankTransactionIDs = []string{t.ID}

		t.MatchedCycleKeys[i] = c.summary.Key
		t.RelatedTransactionIDs = append(t.RelatedTransactionIDs, c.summary.TransactionIDs...)

		if card := c.summary.CardLast4; card != "" && !slices.Contains(t.MatchedCardLast4All, card) {
			t.MatchedCardLast4All = append(t.MatchedCardLast4All, card)
		}

		for _, m := range c.members {
			e.txs[m].RelatedTransactionIDs = []string{t.ID}
		}
	}
}

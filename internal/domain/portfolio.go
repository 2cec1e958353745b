package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Holdings maps a symbol to the net number of shares held.
type Holdings map[string]int64

// ComputeHoldings sums signed share quantities per symbol. Symbols whose net
// is zero or negative are left out.
func ComputeHoldings(entries []*Transaction) Holdings {
	net := make(map[string]int64)
	for _, e := range entries {
		net[e.Symbol] += e.Shares
	}

	holdings := make(Holdings, len(net))
	for symbol, shares := range net {
		if shares > 0 {
			holdings[symbol] = shares
		}
	}

	return holdings
}

// Symbols returns the held symbols in lexical order.
func (h Holdings) Symbols() []string {
	symbols := make([]string, 0, len(h))
	for s := range h {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	return symbols
}

// Position is one valued row of a portfolio snapshot.
type Position struct {
	Symbol string
	Name   string
	Shares int64
	Price  decimal.Decimal
	Total  decimal.Decimal
}

// NewPosition values shares of the held symbol at the quoted price. The row
// keeps the ledger symbol even if the provider reports it differently.
func NewPosition(symbol string, q *Quote, shares int64) Position {
	return Position{
		Symbol: symbol,
		Name:   q.Name,
		Shares: shares,
		Price:  q.Price,
		Total:  q.Cost(shares),
	}
}

// Snapshot is a computed view of a user's positions and cash.
type Snapshot struct {
	UserID     string
	Positions  []Position
	Cash       decimal.Decimal
	GrandTotal decimal.Decimal
}

// NewSnapshot builds a snapshot; the grand total is cash plus the sum of
// every position's total.
func NewSnapshot(userID string, cash decimal.Decimal, positions []Position) *Snapshot {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	total := cash
	for _, p := range positions {
		total = total.Add(p.Total)
	}

	return &Snapshot{
		UserID:     userID,
		Positions:  positions,
		Cash:       cash,
		GrandTotal: total,
	}
}

// ReplayCash recomputes a cash balance from an opening balance and the
// ledger.
func ReplayCash(initial decimal.Decimal, entries []*Transaction) decimal.Decimal {
	cash := initial
	for _, e := range entries {
		cash = cash.Add(e.Amount())
	}

	return cash
}

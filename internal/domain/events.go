package domain

import "time"

// Event types
const (
	EventTypeTradeExecuted = "trade.executed"
)

// TradeExecutedEvent is published after a trade commits.
type TradeExecutedEvent struct {
	TransactionID string    `json:"transaction_id"`
	UserID        string    `json:"user_id"`
	Side          Side      `json:"side"`
	Symbol        string    `json:"symbol"`
	Shares        int64     `json:"shares"`
	Price         string    `json:"price"`
	TransactedAt  time.Time `json:"transacted_at"`
}

// NewTradeExecutedEvent builds the event payload for a committed entry.
func NewTradeExecutedEvent(t *Transaction) TradeExecutedEvent {
	return TradeExecutedEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Side:          t.Side(),
		Symbol:        t.Symbol,
		Shares:        t.Shares,
		Price:         t.Price.String(),
		TransactedAt:  t.TransactedAt,
	}
}

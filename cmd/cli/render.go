package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"

	"github.com/iho/gofinance/internal/adapter/http/dto"
)

// render writes markdown to w, styled for the terminal unless plain is set.
func render(w io.Writer, markdown string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, markdown)
		return err
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}

	_, err = io.WriteString(w, out)
	return err
}

func portfolioMarkdown(s dto.SnapshotResponse) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Symbol", "Name", "Shares", "Price", "Total"},
		Rows:   [][]string{},
	}
	for _, p := range s.Positions {
		table.Rows = append(table.Rows, []string{
			p.Symbol,
			p.Name,
			fmt.Sprint(p.Shares),
			dto.USD(p.Price),
			dto.USD(p.Total),
		})
	}
	table.Rows = append(table.Rows,
		[]string{"CASH", "", "", "", dto.USD(s.Cash)},
		[]string{md.Bold("TOTAL"), "", "", "", md.Bold(dto.USD(s.GrandTotal))},
	)
	doc.Table(table)

	return doc.String()
}

func historyMarkdown(entries []dto.TransactionResponse) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("History")

	if len(entries) == 0 {
		doc.PlainText("No transactions yet.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Transacted", "Side", "Symbol", "Shares", "Price"},
		Rows:   [][]string{},
	}
	for _, e := range entries {
		table.Rows = append(table.Rows, []string{
			e.TransactedAt.Format("2006-01-02 15:04:05"),
			string(e.Side),
			e.Symbol,
			fmt.Sprint(e.Shares),
			dto.USD(e.Price),
		})
	}
	doc.Table(table)

	return doc.String()
}

func quoteMarkdown(q dto.QuoteResponse) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.PlainText(fmt.Sprintf("A share of %s (%s) costs %s.", md.Bold(q.Name), q.Symbol, md.Bold(dto.USD(q.Price))))

	return doc.String()
}

func tradeMarkdown(t dto.TransactionResponse) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	shares := t.Shares
	if shares < 0 {
		shares = -shares
	}
	verb := "Bought"
	if t.Side == "sell" {
		verb = "Sold"
	}
	doc.PlainText(fmt.Sprintf("%s %d %s at %s (transaction `%s`).", verb, shares, t.Symbol, dto.USD(t.Price), t.ID))

	return doc.String()
}

func reconcileMarkdown(results []dto.ReconciliationResponse) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Reconciliation")

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"User", "Recorded", "Replayed", "Difference", "Entries", "Status"},
		Rows:   [][]string{},
	}
	for _, r := range results {
		status := "ok"
		if !r.IsReconciled {
			status = md.Bold("MISMATCH")
		}
		table.Rows = append(table.Rows, []string{
			r.UserID,
			dto.USD(r.RecordedCash),
			dto.USD(r.CalculatedCash),
			dto.USD(r.Difference),
			fmt.Sprint(r.Entries),
			status,
		})
	}
	doc.Table(table)

	return doc.String()
}

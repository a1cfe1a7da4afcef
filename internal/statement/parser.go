// Package statement reconstructs transactions from the text of an M-Pesa
// account statement and merges fee line-items into their parent transactions.
//
// The input is raw text as produced by a PDF text extractor. Table structure
// is not preserved by extraction, so the parser normalizes all whitespace and
// scans for entries anchored by a receipt id followed by a timestamp. The
// format targeted is:
//
//	RECEIPT(10 alnum) DATE(YYYY-MM-DD HH:MM:SS) DESCRIPTION ... AMOUNT BALANCE
//
// Segments that do not carry at least an amount and a balance are skipped as
// noise rather than reported as errors.
package statement

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"pesalens/internal/core"
)

// ErrNoTransactions is returned when non-empty input yields zero
// transactions. It distinguishes "not a recognizable statement" from a valid
// statement that happens to contain no entries.
var ErrNoTransactions = errors.New("no transactions found in statement text")

var (
	anchorRe = regexp.MustCompile(`[A-Z0-9]{10} \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`)
	numberRe = regexp.MustCompile(`-?[0-9,]+\.[0-9]{2}`)
	statusRe = regexp.MustCompile(`(?i)completed`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

const timeLayout = "2006-01-02 15:04:05"

// Parse scans statement text into raw transactions in statement order.
// Unparseable segments are silently skipped.
func Parse(text string) []core.RawTransaction {
	clean := spaceRe.ReplaceAllString(text, " ")

	anchors := anchorRe.FindAllStringIndex(clean, -1)
	txns := make([]core.RawTransaction, 0, len(anchors))

	for i, loc := range anchors {
		anchor := clean[loc[0]:loc[1]]
		receipt := anchor[:10]
		ts, err := time.Parse(timeLayout, anchor[11:])
		if err != nil {
			continue
		}

		end := len(clean)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		tail := clean[loc[1]:end]

		tx, ok := parseSegment(receipt, ts, tail)
		if !ok {
			continue
		}
		txns = append(txns, tx)
	}

	return txns
}

// parseSegment extracts amount, balance and description from the text
// following one receipt+timestamp anchor.
func parseSegment(receipt string, ts time.Time, tail string) (core.RawTransaction, bool) {
	tokens := numberRe.FindAllString(tail, -1)
	if len(tokens) < 2 {
		return core.RawTransaction{}, false
	}

	balance, ok := core.ParseStatementAmount(tokens[len(tokens)-1])
	if !ok {
		return core.RawTransaction{}, false
	}
	amount, ok := core.ParseStatementAmount(tokens[len(tokens)-2])
	if !ok {
		return core.RawTransaction{}, false
	}

	// Description is everything before the status marker; if that leaves
	// nothing, fall back to the text before the amount token.
	desc, _, _ := strings.Cut(tail, "Completed")
	desc = strings.TrimSpace(desc)
	if desc == "" {
		desc, _, _ = strings.Cut(tail, tokens[len(tokens)-2])
		desc = strings.TrimSpace(desc)
	}
	desc = strings.TrimSpace(statusRe.ReplaceAllString(desc, ""))

	tx := core.RawTransaction{
		Receipt:     receipt,
		Time:        ts,
		Description: desc,
		Balance:     balance,
	}
	if amount.Cents < 0 {
		tx.Withdrawn = core.Money{Cents: -amount.Cents}
	} else {
		tx.PaidIn = amount
	}
	return tx, true
}

// ParseStatement runs the full ingestion pipeline: parse raw entries, then
// consolidate fee line-items into their parent transactions. Non-empty input
// that produces zero transactions returns ErrNoTransactions so callers can
// tell an unrecognizable document apart from an empty one.
func ParseStatement(text string) ([]core.Transaction, error) {
	raw := Parse(text)
	if len(raw) == 0 {
		if strings.TrimSpace(text) != "" {
			return nil, ErrNoTransactions
		}
		return []core.Transaction{}, nil
	}
	return Consolidate(raw), nil
}

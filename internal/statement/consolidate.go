package statement

import (
	"strings"

	"pesalens/internal/core"
)

// feeKeywords mark statement entries that are fee line-items rather than
// transactions in their own right. Matching is a case-insensitive substring
// test on the description.
var feeKeywords = []string{
	"transaction charge",
	"withdrawal fee",
	"excise duty",
	"ledger fee",
}

// IsFee reports whether a description identifies a fee line-item.
func IsFee(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range feeKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// Consolidate merges fee entries into the immediately preceding substantive
// transaction. A fee's withdrawn amount accumulates on the parent's Fees and
// TotalCost; the fee entry itself is not emitted. A fee appearing before any
// parent exists is emitted as a normal transaction.
func Consolidate(raw []core.RawTransaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(raw))

	for _, tx := range raw {
		if IsFee(tx.Description) && len(out) > 0 {
			parent := &out[len(out)-1]
			parent.Fees = parent.Fees.Add(tx.Withdrawn)
			parent.TotalCost = parent.TotalCost.Add(tx.Withdrawn)
			continue
		}
		out = append(out, core.Transaction{
			RawTransaction: tx,
			TotalCost:      tx.Amount(),
		})
	}

	return out
}

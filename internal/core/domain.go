package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Retail      BusinessType = "retail"
	Distributor BusinessType = "distributor"
	Services    BusinessType = "services"
	Online      BusinessType = "online"
)

const (
	CategoryRevenue      Category = "Revenue"
	CategoryPersonal     Category = "Personal"
	CategoryUtilities    Category = "Utilities"
	CategoryStock        Category = "Stock"
	CategoryData         Category = "Data"
	CategoryRent         Category = "Rent"
	CategoryStaff        Category = "Staff"
	CategoryOtherExpense Category = "OtherExpense"
	CategoryUnknown      Category = "Unknown"
)

const (
	PeriodAll    Period = "all"
	PeriodWeek   Period = "7"
	PeriodMonth  Period = "30"
	PeriodQuarter Period = "90"
)

type (
	// BusinessType selects the benchmark thresholds used for health scoring.
	BusinessType string

	// Category is the expense/revenue taxonomy assigned to a transaction.
	Category string

	// Period is a date-range filter applied before aggregation.
	Period string

	// RawTransaction is a single statement entry as reconstructed by the
	// parser. Exactly one of PaidIn/Withdrawn is nonzero.
	RawTransaction struct {
		Receipt     string
		Time        time.Time
		Description string
		PaidIn      Money
		Withdrawn   Money
		Balance     Money
	}

	// Transaction is a consolidated transaction: the raw entry plus any fee
	// line-items merged into it.
	Transaction struct {
		RawTransaction
		Fees      Money
		TotalCost Money
	}
)

var (
	ErrEmptyReceipt     = errors.New("empty receipt id")
	ErrInvalidReceipt   = errors.New("receipt id must be 10 alphanumeric characters")
	ErrEmptyDescription = errors.New("empty description")
	ErrBothDirections   = errors.New("transaction cannot be both inflow and outflow")
)

// BusinessTypes returns all valid business types.
func BusinessTypes() []BusinessType {
	return []BusinessType{Retail, Distributor, Services, Online}
}

func (bt BusinessType) String() string {
	return string(bt)
}

// IsValid returns true if the business type is one of the known types.
func (bt BusinessType) IsValid() bool {
	switch bt {
	case Retail, Distributor, Services, Online:
		return true
	default:
		return false
	}
}

func (p Period) IsValid() bool {
	switch p {
	case PeriodAll, PeriodWeek, PeriodMonth, PeriodQuarter:
		return true
	default:
		return false
	}
}

// Cutoff returns the earliest timestamp included by the period relative to
// now. The second return is false for PeriodAll, which includes everything.
func (p Period) Cutoff(now time.Time) (time.Time, bool) {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), true
	case PeriodMonth:
		return now.AddDate(0, 0, -30), true
	case PeriodQuarter:
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}

// Amount returns the transaction's own amount regardless of direction.
func (t RawTransaction) Amount() Money {
	if t.Withdrawn.Cents > 0 {
		return t.Withdrawn
	}
	return t.PaidIn
}

// Inflow reports whether the transaction is money coming in.
func (t RawTransaction) Inflow() bool {
	return t.PaidIn.Cents > 0
}

func (t RawTransaction) Validate() error {
	if strings.TrimSpace(t.Receipt) == "" {
		return ErrEmptyReceipt
	}
	if len(t.Receipt) != 10 || !isAlnumUpper(t.Receipt) {
		return ErrInvalidReceipt
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if t.PaidIn.Cents > 0 && t.Withdrawn.Cents > 0 {
		return ErrBothDirections
	}
	return nil
}

// DateKey returns the calendar-date portion of a timestamp, used for
// bucketing daily cash flow.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func isAlnumUpper(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

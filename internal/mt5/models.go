package mt5

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealType is the Type column of an MT5 deal row.
type DealType int

const (
	TypeUnknown DealType = iota
	TypeBuy
	TypeSell
	TypeBalance
)

func ParseDealType(s string) DealType {
	switch normalize(s) {
	case "buy":
		return TypeBuy
	case "sell":
		return TypeSell
	case "balance":
		return TypeBalance
	default:
		return TypeUnknown
	}
}

func (t DealType) String() string {
	switch t {
	case TypeBuy:
		return "buy"
	case TypeSell:
		return "sell"
	case TypeBalance:
		return "balance"
	default:
		return ""
	}
}

// Direction is the Direction column of an MT5 deal row: "in" opens exposure,
// "out" closes it, "in/out" is a single-fill round trip.
type Direction int

const (
	DirNone Direction = iota
	DirIn
	DirOut
	DirInOut
)

func ParseDirection(s string) Direction {
	switch normalize(s) {
	case "in":
		return DirIn
	case "out":
		return DirOut
	case "in/out":
		return DirInOut
	default:
		return DirNone
	}
}

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "in/out"
	default:
		return ""
	}
}

// Deal is one row of an MT5 strategy tester deals table.
type Deal struct {
	Time       time.Time
	Ticket     string
	Symbol     string
	Type       DealType
	Direction  Direction
	Volume     decimal.Decimal
	Price      decimal.Decimal
	Order      string
	Commission decimal.Decimal
	Swap       decimal.Decimal
	Profit     decimal.Decimal
	Balance    decimal.Decimal
	Comment    string
	Report     string
}

// NetPnL is the balance impact of the deal when it closes exposure.
func (d Deal) NetPnL() decimal.Decimal {
	return d.Profit.Add(d.Commission).Add(d.Swap)
}

func (d Deal) IsEntry() bool {
	return d.Direction == DirIn
}

func (d Deal) IsExit() bool {
	return d.Direction == DirOut || d.Direction == DirInOut
}

// IsTrade reports whether the deal is an actual fill rather than a
// bookkeeping balance adjustment.
func (d Deal) IsTrade() bool {
	return d.Direction != DirNone
}

// TradeRow is a deal annotated by the sequence classifier. Sequence is 0
// until the deal joins a sequence; EntryIndex is the 1-based ordinal among
// the entries of that sequence and stays 0 for exits and balance rows.
type TradeRow struct {
	Deal
	Sequence   int
	EntryIndex int
}

// Statement is one parsed strategy tester report.
type Statement struct {
	Path   string
	Name   string
	Symbol string
	Deals  []Deal
}

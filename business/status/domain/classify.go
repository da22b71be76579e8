package domain

import "github.com/shopspring/decimal"

// Classifier maps a value to a color. Classifiers are pure and total.
type Classifier func(Value) Color

var (
	mempoolLimit    = decimal.NewFromInt(4000)
	unverifiedLimit = decimal.NewFromInt(5)
	depositLimit    = decimal.NewFromInt(32)
)

// ClassifyAlwaysGreen is used by informational indicators.
func ClassifyAlwaysGreen(Value) Color {
	return ColorGreen
}

// ClassifyMempool is red once the pool holds more than 4000 transactions.
func ClassifyMempool(v Value) Color {
	d, ok := v.Decimal()
	if !ok {
		return ColorRed
	}
	if d.GreaterThan(mempoolLimit) {
		return ColorRed
	}
	return ColorGreen
}

// ClassifyAvailableSlots is red when no block can be proposed.
func ClassifyAvailableSlots(v Value) Color {
	d, ok := v.Decimal()
	if !ok || d.IsZero() {
		return ColorRed
	}
	return ColorGreen
}

// ClassifyUnverifiedBlocks is red when nothing awaits verification and
// yellow below 5 pending blocks.
func ClassifyUnverifiedBlocks(v Value) Color {
	d, ok := v.Decimal()
	if !ok || d.IsZero() {
		return ColorRed
	}
	if d.LessThan(unverifiedLimit) {
		return ColorYellow
	}
	return ColorGreen
}

// ClassifyEthDeposits is green with an empty queue, yellow below 32 pending
// deposits and red beyond.
func ClassifyEthDeposits(v Value) Color {
	d, ok := v.Decimal()
	if !ok {
		return ColorRed
	}
	if d.IsZero() {
		return ColorGreen
	}
	if d.LessThan(depositLimit) {
		return ColorYellow
	}
	return ColorRed
}

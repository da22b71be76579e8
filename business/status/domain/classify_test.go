package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name     string
		classify Classifier
		value    Value
		want     Color
	}{
		{"mempool_at_limit", ClassifyMempool, Int64(4000), ColorGreen},
		{"mempool_over_limit", ClassifyMempool, Int64(4001), ColorRed},
		{"mempool_empty", ClassifyMempool, Int64(0), ColorGreen},
		{"mempool_numeric_text", ClassifyMempool, Text("4001"), ColorRed},
		{"mempool_not_numeric", ClassifyMempool, Text("n/a"), ColorRed},

		{"unverified_zero", ClassifyUnverifiedBlocks, Int64(0), ColorRed},
		{"unverified_four", ClassifyUnverifiedBlocks, Int64(4), ColorYellow},
		{"unverified_five", ClassifyUnverifiedBlocks, Int64(5), ColorGreen},
		{"unverified_unknown", ClassifyUnverifiedBlocks, Unknown(), ColorRed},

		{"deposits_zero", ClassifyEthDeposits, Int64(0), ColorGreen},
		{"deposits_31", ClassifyEthDeposits, Int64(31), ColorYellow},
		{"deposits_32", ClassifyEthDeposits, Int64(32), ColorRed},
		{"deposits_not_numeric", ClassifyEthDeposits, Text("0xabc"), ColorRed},

		{"slots_zero", ClassifyAvailableSlots, Int64(0), ColorRed},
		{"slots_some", ClassifyAvailableSlots, Int64(12), ColorGreen},

		{"always_green_text", ClassifyAlwaysGreen, Text("0xabc"), ColorGreen},
		{"always_green_unknown", ClassifyAlwaysGreen, Unknown(), ColorGreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.classify(tt.value); got != tt.want {
				t.Errorf("classify(%s) = %s, want %s", tt.value, got, tt.want)
			}
		})
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"unknown", Unknown(), "…"},
		{"integer", Uint64(42), "42"},
		{"with_unit", NumberWithUnit(decimal.RequireFromString("1.25"), "TKO"), "1.25 TKO"},
		{"text", Text("0xdeadbeef"), "0xdeadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	if !Int64(5).Equal(Number(decimal.RequireFromString("5.0"))) {
		t.Error("5 and 5.0 should be equal")
	}
	if Int64(5).Equal(Text("5")) {
		t.Error("different kinds should not be equal")
	}
	if !Unknown().Equal(Value{}) {
		t.Error("zero value should be unknown")
	}
}

func TestLink_Resolve(t *testing.T) {
	tests := []struct {
		name  string
		link  Link
		value Value
		want  string
	}{
		{"block", BlockLink("https://explorer.test/"), Uint64(1234), "https://explorer.test/block/1234"},
		{"unknown_value", BlockLink("https://explorer.test"), Unknown(), ""},
		{"static", Link("https://indexer.test/uniqueProvers"), Unknown(), "https://indexer.test/uniqueProvers"},
		{"empty", Link(""), Uint64(1), ""},
		{"no_explorer", BlockLink(""), Uint64(1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.Resolve(tt.value); got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

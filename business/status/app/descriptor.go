package app

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	chainApp "github.com/fd1az/bridge-status/business/chain/app"
	chainDomain "github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/business/status/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
)

// Strategy is how the engine keeps an indicator fresh: Poll, Once or
// Subscribe.
type Strategy interface {
	strategy() string
}

// Poll fetches immediately and then every Interval.
type Poll struct {
	Interval time.Duration
	Fetch    FetchFunc
}

// Once fetches exactly once per activation.
type Once struct {
	Fetch FetchFunc
}

// Subscribe optionally seeds the value with one fetch and then listens for
// events.
type Subscribe struct {
	Seed      FetchFunc
	Subscribe SubscribeFunc
}

func (Poll) strategy() string      { return "poll" }
func (Once) strategy() string      { return "once" }
func (Subscribe) strategy() string { return "subscribe" }

// Descriptor declares one dashboard indicator.
type Descriptor struct {
	ID       string
	Header   string
	Tooltip  string
	Side     chainDomain.Side
	Client   chainApp.Backend
	Contract common.Address
	Strategy Strategy
	Classify domain.Classifier
	Link     domain.Link
	Initial  domain.Value
}

// StrategyName returns "poll", "once" or "subscribe".
func (d Descriptor) StrategyName() string {
	if d.Strategy == nil {
		return ""
	}
	return d.Strategy.strategy()
}

// Interval returns the poll interval, or zero for other strategies.
func (d Descriptor) Interval() time.Duration {
	if p, ok := d.Strategy.(Poll); ok {
		return p.Interval
	}
	return 0
}

// Validate checks that the descriptor can be driven by the engine.
func (d Descriptor) Validate() error {
	invalid := func(reason string) error {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext(d.ID+": "+reason))
	}

	if d.ID == "" {
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("descriptor without id"))
	}
	if d.Classify == nil {
		return invalid("no classifier")
	}

	switch s := d.Strategy.(type) {
	case Poll:
		if s.Interval <= 0 {
			return invalid("poll interval must be positive")
		}
		if s.Fetch == nil {
			return invalid("poll without fetch")
		}
	case Once:
		if s.Fetch == nil {
			return invalid("once without fetch")
		}
	case Subscribe:
		if s.Subscribe == nil {
			return invalid("subscribe without subscribe func")
		}
	default:
		return invalid("no strategy")
	}
	return nil
}

// Package notify содержит получателей событий движка аукциона.
package notify

import (
	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
)

// Publisher принимает события движка.
type Publisher interface {
	Publish(ev model.Event)
}

// Multi рассылает каждое событие всем получателям по порядку.
type Multi []Publisher

// Publish передаёт событие каждому получателю.
func (m Multi) Publish(ev model.Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ev)
		}
	}
}

// LogSink пишет события в журнал.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink создаёт получателя, журналирующего события.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("events")}
}

// Publish записывает событие в журнал с полями, зависящими от его типа.
func (s *LogSink) Publish(ev model.Event) {
	switch e := ev.(type) {
	case model.BidAccepted:
		s.logger.Info("bid placed",
			zap.String("bidder", e.Bidder.Label()),
			zap.Int64("amount", e.Amount),
			zap.String("lot", e.Lot.Name),
		)
	case model.BidRejected:
		s.logger.Warn("bid failed",
			zap.String("bidder", e.Bidder.Label()),
			zap.Int64("amount", e.Amount),
			zap.String("reason", e.Reason),
		)
	case model.LotSold:
		s.logger.Info("lot sold",
			zap.String("lot", e.Lot.Name),
			zap.String("bidder", e.Bidder.Label()),
			zap.Int64("amount", e.Amount),
		)
	case model.LotUnsold:
		s.logger.Info("lot unsold", zap.String("lot", e.Lot.Name))
	case model.AuctionCompleted:
		s.logger.Info("auction completed",
			zap.Int("sold", e.SoldCount),
			zap.Int("unsold", e.UnsoldCount),
		)
	default:
		s.logger.Debug("event", zap.String("type", string(ev.Type())))
	}
}

package model

// EventType определяет тип события движка аукциона.
type EventType string

const (
	EventBidAccepted      EventType = "bid_accepted"
	EventBidRejected      EventType = "bid_rejected"
	EventLotSold          EventType = "lot_sold"
	EventLotUnsold        EventType = "lot_unsold"
	EventAuctionCompleted EventType = "auction_completed"
)

// Event — событие, публикуемое движком для получателей уведомлений.
type Event interface {
	Type() EventType
}

// BidAccepted публикуется при принятии ставки.
type BidAccepted struct {
	Bidder BidderIdentity `json:"bidder"`
	Amount int64          `json:"amount"`
	Lot    Lot            `json:"lot"`
}

// BidRejected публикуется при отклонении ставки.
type BidRejected struct {
	Bidder BidderIdentity `json:"bidder"`
	Amount int64          `json:"amount"`
	Reason string         `json:"reason"`
}

// LotSold публикуется, когда лот продан по истечении времени.
type LotSold struct {
	Lot    Lot            `json:"lot"`
	Amount int64          `json:"amount"`
	Bidder BidderIdentity `json:"bidder"`
}

// LotUnsold публикуется, когда время вышло без ставок.
type LotUnsold struct {
	Lot Lot `json:"lot"`
}

// AuctionCompleted публикуется при завершении аукциона.
type AuctionCompleted struct {
	SoldCount   int `json:"soldCount"`
	UnsoldCount int `json:"unsoldCount"`
}

func (BidAccepted) Type() EventType      { return EventBidAccepted }
func (BidRejected) Type() EventType      { return EventBidRejected }
func (LotSold) Type() EventType          { return EventLotSold }
func (LotUnsold) Type() EventType        { return EventLotUnsold }
func (AuctionCompleted) Type() EventType { return EventAuctionCompleted }

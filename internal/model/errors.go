package model

import "errors"

var (
	// ErrInvalidTransition возвращается, если операция недопустима в текущем состоянии аукциона.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrInsufficientBudget возвращается, если ставка превышает остаток бюджета участника.
	ErrInsufficientBudget = errors.New("insufficient budget")
	// ErrAuctionNotActive возвращается при ставке вне активных торгов.
	ErrAuctionNotActive = errors.New("auction not active")
	// ErrEmptyCatalog возвращается при запуске аукциона с пустым каталогом.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrValidation возвращается при некорректных данных лота.
	ErrValidation = errors.New("validation error")
	// ErrNotAuthorized возвращается, если участнику не разрешено делать ставки.
	ErrNotAuthorized = errors.New("not authorized to bid")
	// ErrBidTooLow возвращается, если ставка не превышает текущую.
	ErrBidTooLow = errors.New("bid too low")
	// ErrUnknownBidder возвращается, если участник не зарегистрирован.
	ErrUnknownBidder = errors.New("unknown bidder")
	// ErrBidderExists возвращается при повторной регистрации участника.
	ErrBidderExists = errors.New("bidder already registered")
)

// RejectReason возвращает код причины отказа для события BidRejected.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrInsufficientBudget):
		return "insufficient_budget"
	case errors.Is(err, ErrAuctionNotActive):
		return "auction_not_active"
	case errors.Is(err, ErrBidTooLow):
		return "bid_too_low"
	default:
		return "rejected"
	}
}

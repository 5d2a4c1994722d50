// Package model содержит доменные сущности аукциона лотов.
package model

import "time"

// Stats описывает статистику лота, показываемую участникам торгов.
type Stats struct {
	Matches      int     `json:"matches"`
	Runs         int     `json:"runs,omitempty"`
	Wickets      int     `json:"wickets,omitempty"`
	StrikeRate   float64 `json:"strikeRate,omitempty"`
	Economy      float64 `json:"economy,omitempty"`
	HighestScore int     `json:"highestScore,omitempty"`
	BestBowling  string  `json:"bestBowling,omitempty"`
}

// LotSpec содержит данные для регистрации нового лота в каталоге.
type LotSpec struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Country    string  `json:"country"`
	BasePrice  int64   `json:"basePrice"`
	BattingAvg float64 `json:"battingAvg,omitempty"`
	BowlingAvg float64 `json:"bowlingAvg,omitempty"`
	Stats      Stats   `json:"stats"`
	Image      string  `json:"image,omitempty"`
}

// Lot представляет выставляемый на торги лот. После создания не изменяется.
type Lot struct {
	ID string `json:"id"`
	LotSpec
}

// BidderIdentity описывает участника торгов, от имени которого делается ставка.
type BidderIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Team string `json:"team,omitempty"`
}

// Label возвращает подпись для ставки: название команды, если оно есть, иначе имя.
func (b BidderIdentity) Label() string {
	if b.Team != "" {
		return b.Team
	}
	return b.Name
}

// Bidder передаётся движку вместе со ставкой: личность участника и признак права делать ставки.
type Bidder struct {
	Identity BidderIdentity
	CanBid   bool
}

// Role описывает роль участника приложения.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTeamOwner Role = "team-owner"
	RoleViewer    Role = "viewer"
)

// Participant представляет зарегистрированного участника приложения.
type Participant struct {
	BidderIdentity
	Role Role `json:"role"`
}

// CanBid сообщает, разрешено ли участнику делать ставки.
func (p Participant) CanBid() bool {
	return p.Role == RoleTeamOwner
}

// Status описывает состояние аукциона.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// SoldEntry фиксирует продажу лота.
type SoldEntry struct {
	Lot    Lot            `json:"lot"`
	Amount int64          `json:"amount"`
	Bidder BidderIdentity `json:"bidder"`
}

// Snapshot содержит копию состояния аукциона для чтения.
type Snapshot struct {
	Status        Status
	CurrentLot    *Lot
	LotResolved   bool
	CurrentBid    int64
	CurrentBidder *BidderIdentity
	TimeRemaining int
	Sold          []SoldEntry
	Unsold        []Lot
	Skipped       []Lot
}

// Outcome описывает результат торгов по лоту.
type Outcome string

const (
	OutcomeSold   Outcome = "sold"
	OutcomeUnsold Outcome = "unsold"
)

// LotResult — запись журнала результатов торгов.
type LotResult struct {
	AuctionID  string
	Lot        Lot
	Outcome    Outcome
	Amount     int64
	Bidder     *BidderIdentity
	ResolvedAt time.Time
}

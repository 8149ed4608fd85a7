package models

import "time"

// BoxCount is the number of mystery boxes a player can choose from.
const BoxCount = 4

// GameResult is a single persisted participation.
// PrizeName and PrizeDescription are only set when the player won and a prize
// was actually allocated.
type GameResult struct {
	UserID           string    `json:"userId"`
	FullName         string    `json:"fullName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	SelectedBox      int       `json:"selectedBox"`
	HasWon           bool      `json:"hasWon"`
	PrizeName        string    `json:"prizeName,omitempty"`
	PrizeDescription string    `json:"prizeDescription,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	IPAddress        string    `json:"ipAddress"`
	UserAgent        string    `json:"userAgent"`
}

// GameSubmission is what the client sends once a box has been opened.
type GameSubmission struct {
	UserID           string `json:"userId"`
	FullName         string `json:"fullName"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	SelectedBox      int    `json:"selectedBox"`
	HasWon           bool   `json:"hasWon"`
	PrizeName        string `json:"prizeName,omitempty"`
	PrizeDescription string `json:"prizeDescription,omitempty"`
}

// ClientInfo is captured from the inbound request, best effort.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// GameStats aggregates all stored results.
type GameStats struct {
	TotalPlayers    int         `json:"totalPlayers"`
	Winners         int         `json:"winners"`
	WinRate         float64     `json:"winRate"` // percentage, 0-100
	MostSelectedBox int         `json:"mostSelectedBox"`
	BoxStats        map[int]int `json:"boxStats"`
}

// PrizeStock maps a prize category key to its remaining count.
type PrizeStock map[string]int

// Total returns the sum of all remaining counts.
func (s PrizeStock) Total() int {
	total := 0
	for _, n := range s {
		total += n
	}
	return total
}

// Clone returns an independent copy.
func (s PrizeStock) Clone() PrizeStock {
	out := make(PrizeStock, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Prize describes one prize category of the game.
// Keywords are matched case-insensitively against a submitted prize name to
// find the category it belongs to.
type Prize struct {
	Key          string   `json:"key"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Value        int      `json:"value"`
	Keywords     []string `json:"-"`
	InitialStock int      `json:"initialStock"`
}

// PrizeAvailability is a catalog entry along with its remaining stock.
type PrizeAvailability struct {
	Prize
	Remaining int `json:"remaining"`
}

// DefaultPrizes is the catalog used when none is configured.
func DefaultPrizes() []Prize {
	return []Prize{
		{Key: "vip", Name: "Pass VIP pour la soirée", Description: "Accès exclusif à la soirée événement.", Value: 200, Keywords: []string{"vip"}, InitialStock: 10},
		{Key: "canal", Name: "Box connectée Canal +", Description: "Profitez de vos contenus préférés en streaming.", Value: 150, Keywords: []string{"canal"}, InitialStock: 10},
		{Key: "goodies", Name: "Goodies", Description: "Cadeaux et accessoires exclusifs.", Value: 30, Keywords: []string{"goodie"}, InitialStock: 30},
	}
}

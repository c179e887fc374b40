package models

import "strconv"

// Inbound message types
const (
	MessageTypeJoin               = "join"
	MessageTypeCreateRoom         = "createRoom"
	MessageTypeJoinRoom           = "joinRoom"
	MessageTypeSelectCard         = "selectCard"
	MessageTypeRevealCards        = "revealCards"
	MessageTypeResetGame          = "resetGame"
	MessageTypeLeaveRoom          = "leaveRoom"
	MessageTypeTransferHost       = "transferHost"
	MessageTypeKickUser           = "kickUser"
	MessageTypeUpdateRoomSettings = "updateRoomSettings"
)

// Outbound event types
const (
	EventTypeJoined              = "joined"
	EventTypeRoomCreated         = "roomCreated"
	EventTypeRoomJoined          = "roomJoined"
	EventTypeUserJoined          = "userJoined"
	EventTypeCardSelected        = "cardSelected"
	EventTypeCardsRevealed       = "cardsRevealed"
	EventTypeGameReset           = "gameReset"
	EventTypeRoomLeft            = "roomLeft"
	EventTypeUserLeft            = "userLeft"
	EventTypeHostTransferred     = "hostTransferred"
	EventTypeUserKicked          = "userKicked"
	EventTypeKicked              = "kicked"
	EventTypeRoomSettingsUpdated = "roomSettingsUpdated"
	EventTypeError               = "error"
)

// Card represents a planning poker card value
type Card string

// Available planning poker cards
const (
	Zero     Card = "0"
	One      Card = "1"
	Two      Card = "2"
	Three    Card = "3"
	Five     Card = "5"
	Eight    Card = "8"
	Thirteen Card = "13"
	Twenty   Card = "20"
	Forty    Card = "40"
	Hundred  Card = "100"
	Infinity Card = "∞"
	Question Card = "?"
	Coffee   Card = "coffee"
)

// Catalog is the fixed, ordered set of valid cards.
var Catalog = []Card{
	Zero, One, Two, Three, Five, Eight, Thirteen, Twenty, Forty, Hundred,
	Infinity, Question, Coffee,
}

// IsValid reports whether the card belongs to the catalog.
func (c Card) IsValid() bool {
	for _, v := range Catalog {
		if c == v {
			return true
		}
	}
	return false
}

// IsNumeric reports whether the card counts toward the numeric average.
// Only finite non-zero integer cards do; Zero is a valid vote but is
// excluded from averaging.
func (c Card) IsNumeric() bool {
	n, err := strconv.Atoi(string(c))
	return err == nil && n != 0
}

// Value returns the card's integer value. The second return is false for
// non-numeric cards.
func (c Card) Value() (int, bool) {
	n, err := strconv.Atoi(string(c))
	return n, err == nil
}

// Phase is the room's voting phase.
type Phase string

const (
	PhaseVoting   Phase = "voting"
	PhaseRevealed Phase = "revealed"
)

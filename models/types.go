package models

import (
	"encoding/json"
	"time"
)

// Connection is the transport handle bound to a participant. The hub
// implements it; everything below the handlers only ever sends through it.
type Connection interface {
	ID() string
	Send(event Event)
}

// Participant represents a user in a planning poker session
type Participant struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	JoinedAt time.Time  `json:"joinedAt"`
	Conn     Connection `json:"-"`
}

// Settings holds the per-room policy flags.
type Settings struct {
	OnlyHostCanReveal           bool `json:"onlyHostCanReveal"`
	AllowRevealWithMissingVotes bool `json:"allowRevealWithMissingVotes"`
}

// DefaultSettings returns the settings a new room starts with.
func DefaultSettings() Settings {
	return Settings{OnlyHostCanReveal: true}
}

// SettingsPatch is a partial settings update; nil fields keep their
// current value.
type SettingsPatch struct {
	OnlyHostCanReveal           *bool `json:"onlyHostCanReveal"`
	AllowRevealWithMissingVotes *bool `json:"allowRevealWithMissingVotes"`
}

// VoteEntry is one participant's revealed vote.
type VoteEntry struct {
	Name string `json:"name"`
	Card Card   `json:"card"`
}

// Results is the aggregate outcome of a revealed round.
type Results struct {
	Votes        []VoteEntry `json:"votes"`
	MostSelected Card        `json:"mostSelected"`
	Average      float64     `json:"average"`
	VoteCount    int         `json:"voteCount"`
}

// ParticipantView is the client-facing projection of a participant.
// Card is populated only once the room is revealed; before that, other
// participants only learn whether a selection was made.
type ParticipantView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Card     Card   `json:"card,omitempty"`
}

// RoomView is the client-facing projection of a room.
type RoomView struct {
	Code         string            `json:"code"`
	Phase        Phase             `json:"phase"`
	HostID       string            `json:"hostId"`
	CreatorID    string            `json:"creatorId"`
	Settings     Settings          `json:"settings"`
	CreatedAt    time.Time         `json:"createdAt"`
	RevealedAt   *time.Time        `json:"revealedAt,omitempty"`
	Participants []ParticipantView `json:"participants"`
	RoundsPlayed int               `json:"roundsPlayed"`
	LastRound    *Results          `json:"lastRound,omitempty"`
}

// Message is the tagged inbound envelope read off the socket.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event represents an outbound event to be sent to clients
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ErrorPayload is the payload of an error event, reported only to the
// originating connection.
type ErrorPayload struct {
	Event string `json:"event"`
	Error string `json:"error"`
}

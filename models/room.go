package models

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Room represents one planning poker session. All state behind the mutex;
// clients only ever see it through Snapshot and ComputeResults.
type Room struct {
	Code      string
	CreatedAt time.Time

	mutex      sync.RWMutex
	creatorID  string
	hostID     string
	phase      Phase
	settings   Settings
	members    map[string]*Participant
	order      []string
	selections map[string]Card
	revealedAt time.Time
	history    []Results
}

// NewRoom creates a new planning poker room with the given participant as
// creator, host and first member.
func NewRoom(code string, host *Participant) *Room {
	r := &Room{
		Code:       code,
		CreatedAt:  time.Now(),
		creatorID:  host.ID,
		hostID:     host.ID,
		phase:      PhaseVoting,
		settings:   DefaultSettings(),
		members:    make(map[string]*Participant),
		selections: make(map[string]Card),
	}
	r.members[host.ID] = host
	r.order = append(r.order, host.ID)
	return r
}

// AddParticipant inserts a participant into the room. Adding an existing
// member again is a no-op.
func (r *Room) AddParticipant(p *Participant) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.members[p.ID]; exists {
		return
	}
	r.members[p.ID] = p
	r.order = append(r.order, p.ID)
}

// RemoveParticipant removes a participant and their selection, in any
// phase. The host id is deliberately left as-is even when the host
// leaves: host reassignment only ever happens through TransferHost.
func (r *Room) RemoveParticipant(id string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	delete(r.selections, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// HasParticipant reports whether id is a current member.
func (r *Room) HasParticipant(id string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	_, exists := r.members[id]
	return exists
}

// Member returns the participant with the given id, if present.
func (r *Room) Member(id string) (*Participant, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	p, exists := r.members[id]
	return p, exists
}

// Members returns the current membership in join order.
func (r *Room) Members() []*Participant {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.members[id])
	}
	return out
}

// Connections returns the current members' connections in join order.
// Connection rebinds happen under the room mutex, so this snapshot is
// the race-free way to fan out an event.
func (r *Room) Connections() []Connection {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]Connection, 0, len(r.order))
	for _, id := range r.order {
		if c := r.members[id].Conn; c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Connection returns the member's current connection, if any.
func (r *Room) Connection(id string) (Connection, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, exists := r.members[id]
	if !exists || p.Conn == nil {
		return nil, false
	}
	return p.Conn, true
}

// BoundTo reports whether the member is currently bound to the given
// connection. A stale connection's teardown uses this to avoid evicting
// a participant that has since reconnected.
func (r *Room) BoundTo(id, connID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, exists := r.members[id]
	return exists && p.Conn != nil && p.Conn.ID() == connID
}

// MemberCount returns the number of current members.
func (r *Room) MemberCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.members)
}

// Rebind looks for a current member with exactly the given display name
// and, if found, attaches the new connection to it. This is the only
// reconnection mechanism: identity is the display name within one room,
// so two live participants sharing a name are indistinguishable here.
func (r *Room) Rebind(name string, conn Connection) (*Participant, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, id := range r.order {
		if p := r.members[id]; p.Name == name {
			p.Conn = conn
			return p, true
		}
	}
	return nil, false
}

// Host returns the current host id. It may name a former member: the
// host is never auto-reassigned on removal.
func (r *Room) Host() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.hostID
}

// Creator returns the creator id.
func (r *Room) Creator() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.creatorID
}

// Phase returns the current voting phase.
func (r *Room) Phase() Phase {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.phase
}

// Settings returns the current room settings.
func (r *Room) Settings() Settings {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.settings
}

// SelectCard records a participant's card while voting is open.
// Re-selecting overwrites the previous choice. Once revealed, selections
// are frozen and the call is a no-op until Reset.
func (r *Room) SelectCard(id string, card Card) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !card.IsValid() {
		return ErrInvalidCard
	}
	if _, exists := r.members[id]; !exists {
		return ErrPlayerNotFound
	}
	if r.phase != PhaseVoting {
		return nil
	}
	r.selections[id] = card
	return nil
}

// CanReveal reports whether the given participant may reveal the cards
// under the current settings and vote completeness. Pure query.
func (r *Room) CanReveal(requesterID string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.settings.OnlyHostCanReveal && requesterID != r.hostID {
		return false
	}
	if r.settings.AllowRevealWithMissingVotes {
		return true
	}
	return len(r.selections) == len(r.members)
}

// Reveal transitions the room to the revealed phase and stamps the
// reveal time. Permission is the caller's problem: check CanReveal first.
func (r *Room) Reveal() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.phase == PhaseRevealed {
		return
	}
	r.phase = PhaseRevealed
	r.revealedAt = time.Now()
}

// Reset starts a fresh voting round, clearing all selections and the
// reveal time. Resetting from a revealed round archives its results.
// Calling Reset while already voting is safe.
func (r *Room) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.phase == PhaseRevealed {
		if results := r.computeResults(); results != nil {
			r.history = append(r.history, *results)
		}
	}
	r.phase = PhaseVoting
	r.selections = make(map[string]Card)
	r.revealedAt = time.Time{}
}

// TransferHost hands the host role to another current member. It fails
// without mutating anything when the target is not a member.
func (r *Room) TransferHost(newHostID string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.members[newHostID]; !exists {
		return false
	}
	r.hostID = newHostID
	return true
}

// UpdateSettings merges the patch into the room settings; nil fields
// keep their current value.
func (r *Room) UpdateSettings(patch SettingsPatch) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if patch.OnlyHostCanReveal != nil {
		r.settings.OnlyHostCanReveal = *patch.OnlyHostCanReveal
	}
	if patch.AllowRevealWithMissingVotes != nil {
		r.settings.AllowRevealWithMissingVotes = *patch.AllowRevealWithMissingVotes
	}
}

// ComputeResults aggregates the revealed round. It returns nil while
// voting is still open.
func (r *Room) ComputeResults() *Results {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.computeResults()
}

// computeResults must be called with the mutex held.
func (r *Room) computeResults() *Results {
	if r.phase != PhaseRevealed {
		return nil
	}

	results := &Results{
		Votes:     make([]VoteEntry, 0, len(r.selections)),
		VoteCount: len(r.selections),
	}

	counts := make(map[Card]int)
	sum, numeric := 0, 0
	for id, card := range r.selections {
		results.Votes = append(results.Votes, VoteEntry{Name: r.members[id].Name, Card: card})
		counts[card]++
		if card.IsNumeric() {
			n, _ := card.Value()
			sum += n
			numeric++
		}
	}
	sort.Slice(results.Votes, func(i, j int) bool {
		return results.Votes[i].Name < results.Votes[j].Name
	})

	// Mode with a deterministic tie-break: earliest card in the catalog.
	best := -1
	for _, card := range Catalog {
		if n := counts[card]; n > best {
			best = n
			results.MostSelected = card
		}
	}
	if len(counts) == 0 {
		results.MostSelected = ""
	}

	if numeric > 0 {
		results.Average = math.Round(float64(sum)/float64(numeric)*100) / 100
	}
	return results
}

// Snapshot returns the redacted client-facing projection. Before the
// reveal, other participants only see that a member has selected, never
// which card.
func (r *Room) Snapshot() RoomView {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	view := RoomView{
		Code:         r.Code,
		Phase:        r.phase,
		HostID:       r.hostID,
		CreatorID:    r.creatorID,
		Settings:     r.settings,
		CreatedAt:    r.CreatedAt,
		Participants: make([]ParticipantView, 0, len(r.order)),
		RoundsPlayed: len(r.history),
	}
	if !r.revealedAt.IsZero() {
		t := r.revealedAt
		view.RevealedAt = &t
	}
	if n := len(r.history); n > 0 {
		last := r.history[n-1]
		view.LastRound = &last
	}
	for _, id := range r.order {
		p := r.members[id]
		card, selected := r.selections[id]
		pv := ParticipantView{ID: p.ID, Name: p.Name, Selected: selected}
		if r.phase == PhaseRevealed {
			pv.Card = card
		}
		view.Participants = append(view.Participants, pv)
	}
	return view
}

package handlers

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/Merka34/pocket-scrum-bk/db"
	"github.com/Merka34/pocket-scrum-bk/models"
)

// session ties a connection to its logical participant and the rooms it
// has joined, so the disconnect path knows what to clean up.
type session struct {
	participant *models.Participant
	rooms       map[string]bool
}

// SessionHandler orchestrates the registry, the rooms and the
// connection-identity table in response to inbound events.
type SessionHandler struct {
	store    *db.Registry
	mutex    sync.RWMutex
	sessions map[string]*session
}

// NewSessionHandler creates a new SessionHandler backed by the given
// registry.
func NewSessionHandler(store *db.Registry) *SessionHandler {
	return &SessionHandler{
		store:    store,
		sessions: make(map[string]*session),
	}
}

// Dispatch decodes the envelope and routes it to the matching event
// handler. Failures are reported to the originating connection only;
// room state is never left half-mutated.
func (h *SessionHandler) Dispatch(conn models.Connection, msg models.Message) {
	var err error

	switch msg.Type {
	case models.MessageTypeJoin:
		var p struct {
			Name string `json:"name"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.Join(conn, p.Name)
		}
	case models.MessageTypeCreateRoom:
		err = h.CreateRoom(conn)
	case models.MessageTypeJoinRoom:
		var p struct {
			Code string `json:"code"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.JoinRoom(conn, p.Code)
		}
	case models.MessageTypeSelectCard:
		var p struct {
			Code string      `json:"code"`
			Card models.Card `json:"card"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.SelectCard(conn, p.Code, p.Card)
		}
	case models.MessageTypeRevealCards:
		var p struct {
			Code string `json:"code"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.RevealCards(conn, p.Code)
		}
	case models.MessageTypeResetGame:
		var p struct {
			Code string `json:"code"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.ResetGame(conn, p.Code)
		}
	case models.MessageTypeLeaveRoom:
		var p struct {
			Code string `json:"code"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.LeaveRoom(conn, p.Code)
		}
	case models.MessageTypeTransferHost:
		var p struct {
			Code      string `json:"code"`
			NewHostID string `json:"newHostId"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.TransferHost(conn, p.Code, p.NewHostID)
		}
	case models.MessageTypeKickUser:
		var p struct {
			Code   string `json:"code"`
			UserID string `json:"userId"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.KickUser(conn, p.Code, p.UserID)
		}
	case models.MessageTypeUpdateRoomSettings:
		var p struct {
			Code     string               `json:"code"`
			Settings models.SettingsPatch `json:"settings"`
		}
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.UpdateRoomSettings(conn, p.Code, p.Settings)
		}
	default:
		conn.Send(models.Event{
			Type:    models.EventTypeError,
			Payload: models.ErrorPayload{Event: msg.Type, Error: "unknown event type"},
		})
		return
	}

	if err != nil {
		conn.Send(models.Event{
			Type:    models.EventTypeError,
			Payload: models.ErrorPayload{Event: msg.Type, Error: err.Error()},
		})
	}
}

// Join registers the connection under a display name and issues its
// logical participant.
func (h *SessionHandler) Join(conn models.Connection, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.ErrInvalidName
	}

	participant := &models.Participant{
		ID:       conn.ID(),
		Name:     name,
		JoinedAt: time.Now(),
		Conn:     conn,
	}

	h.mutex.Lock()
	prev := h.sessions[conn.ID()]
	h.sessions[conn.ID()] = &session{
		participant: participant,
		rooms:       make(map[string]bool),
	}
	h.mutex.Unlock()

	// Joining again on a live connection abandons the previous identity;
	// its rooms get the same teardown a disconnect would run.
	if prev != nil {
		h.teardown(prev, conn.ID())
	}

	conn.Send(models.Event{
		Type:    models.EventTypeJoined,
		Payload: map[string]interface{}{"participant": participant},
	})
	return nil
}

// CreateRoom creates a fresh room with the requester as host.
func (h *SessionHandler) CreateRoom(conn models.Connection) error {
	sess, err := h.resolve(conn)
	if err != nil {
		return err
	}

	room, err := h.store.Create(sess.participant)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	sess.rooms[room.Code] = true
	h.mutex.Unlock()

	conn.Send(models.Event{
		Type: models.EventTypeRoomCreated,
		Payload: map[string]interface{}{
			"participant": sess.participant,
			"room":        room.Snapshot(),
		},
	})
	return nil
}

// JoinRoom adds the requester to an existing room. A member with the
// same display name is treated as this participant reconnecting: the
// existing identity is re-bound to the new connection instead of
// creating a duplicate.
func (h *SessionHandler) JoinRoom(conn models.Connection, code string) error {
	sess, err := h.resolve(conn)
	if err != nil {
		return err
	}
	room, exists := h.store.Get(code)
	if !exists {
		return models.ErrRoomNotFound
	}

	if !room.HasParticipant(sess.participant.ID) {
		if existing, ok := room.Rebind(sess.participant.Name, conn); ok {
			h.mutex.Lock()
			sess.participant = existing
			h.mutex.Unlock()
		} else {
			room.AddParticipant(sess.participant)
		}
	}

	h.mutex.Lock()
	sess.rooms[room.Code] = true
	h.mutex.Unlock()

	snapshot := room.Snapshot()
	conn.Send(models.Event{
		Type:    models.EventTypeRoomJoined,
		Payload: map[string]interface{}{"room": snapshot, "participant": sess.participant},
	})
	broadcastToRoom(room, conn.ID(), models.Event{
		Type: models.EventTypeUserJoined,
		Payload: map[string]interface{}{
			"participant": sess.participant,
			"room":        snapshot,
		},
	})
	return nil
}

// SelectCard records the requester's card for the current round.
func (h *SessionHandler) SelectCard(conn models.Connection, code string, card models.Card) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	if err := room.SelectCard(sess.participant.ID, card); err != nil {
		return err
	}

	broadcastToRoom(room, "", models.Event{
		Type: models.EventTypeCardSelected,
		Payload: map[string]interface{}{
			"userId": sess.participant.ID,
			"room":   room.Snapshot(),
		},
	})
	return nil
}

// RevealCards flips the room to the revealed phase and publishes the
// aggregate results.
func (h *SessionHandler) RevealCards(conn models.Connection, code string) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	if !room.CanReveal(sess.participant.ID) {
		return models.ErrNotPermitted
	}
	room.Reveal()

	broadcastToRoom(room, "", models.Event{
		Type: models.EventTypeCardsRevealed,
		Payload: map[string]interface{}{
			"room":    room.Snapshot(),
			"results": room.ComputeResults(),
		},
	})
	return nil
}

// ResetGame starts a new voting round.
func (h *SessionHandler) ResetGame(conn models.Connection, code string) error {
	_, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	room.Reset()

	broadcastToRoom(room, "", models.Event{
		Type:    models.EventTypeGameReset,
		Payload: map[string]interface{}{"room": room.Snapshot()},
	})
	return nil
}

// LeaveRoom removes the requester from the room, deleting the room when
// it empties out.
func (h *SessionHandler) LeaveRoom(conn models.Connection, code string) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	room.RemoveParticipant(sess.participant.ID)

	h.mutex.Lock()
	delete(sess.rooms, room.Code)
	h.mutex.Unlock()

	conn.Send(models.Event{
		Type:    models.EventTypeRoomLeft,
		Payload: map[string]interface{}{"code": room.Code},
	})

	if room.MemberCount() == 0 {
		h.store.Delete(room.Code)
		return nil
	}
	broadcastToRoom(room, "", models.Event{
		Type: models.EventTypeUserLeft,
		Payload: map[string]interface{}{
			"userId": sess.participant.ID,
			"name":   sess.participant.Name,
			"room":   room.Snapshot(),
		},
	})
	return nil
}

// TransferHost hands the host role to another member. Host only.
func (h *SessionHandler) TransferHost(conn models.Connection, code, newHostID string) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	if sess.participant.ID != room.Host() {
		return models.ErrNotHost
	}
	if !room.TransferHost(newHostID) {
		return models.ErrTargetNotMember
	}

	broadcastToRoom(room, "", models.Event{
		Type: models.EventTypeHostTransferred,
		Payload: map[string]interface{}{
			"hostId": newHostID,
			"room":   room.Snapshot(),
		},
	})
	return nil
}

// KickUser removes another member from the room. Host only; kicking
// yourself is rejected (use leaveRoom).
func (h *SessionHandler) KickUser(conn models.Connection, code, userID string) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	if sess.participant.ID != room.Host() {
		return models.ErrNotHost
	}
	if userID == sess.participant.ID {
		return models.ErrSelfKick
	}
	target, exists := room.Member(userID)
	if !exists {
		return models.ErrPlayerNotFound
	}
	targetConn, _ := room.Connection(userID)

	room.RemoveParticipant(userID)

	if targetConn != nil {
		h.mutex.Lock()
		if targetSess, ok := h.sessions[targetConn.ID()]; ok {
			delete(targetSess.rooms, room.Code)
		}
		h.mutex.Unlock()

		targetConn.Send(models.Event{
			Type:    models.EventTypeKicked,
			Payload: map[string]interface{}{"code": room.Code},
		})
	}
	broadcastToRoom(room, "", models.Event{
		Type: models.EventTypeUserKicked,
		Payload: map[string]interface{}{
			"userId": userID,
			"name":   target.Name,
			"room":   room.Snapshot(),
		},
	})
	return nil
}

// UpdateRoomSettings merges a partial settings update. Host only.
func (h *SessionHandler) UpdateRoomSettings(conn models.Connection, code string, patch models.SettingsPatch) error {
	sess, room, err := h.resolveMember(conn, code)
	if err != nil {
		return err
	}

	if sess.participant.ID != room.Host() {
		return models.ErrNotHost
	}
	room.UpdateSettings(patch)

	broadcastToRoom(room, "", models.Event{
		Type:    models.EventTypeRoomSettingsUpdated,
		Payload: map[string]interface{}{"room": room.Snapshot()},
	})
	return nil
}

// Disconnect tears down the connection's session, removing its
// participant from every room it had joined. It never fails.
func (h *SessionHandler) Disconnect(conn models.Connection) {
	h.mutex.Lock()
	sess, exists := h.sessions[conn.ID()]
	delete(h.sessions, conn.ID())
	h.mutex.Unlock()

	if !exists {
		return
	}
	h.teardown(sess, conn.ID())
}

// teardown removes the session's participant from every room it had
// joined, notifying the remaining members and deleting rooms left
// empty. A reconnect may have re-bound the participant to a newer
// connection; a stale connection's teardown must not evict it.
func (h *SessionHandler) teardown(sess *session, connID string) {
	for code := range sess.rooms {
		room, ok := h.store.Get(code)
		if !ok {
			continue
		}
		if !room.BoundTo(sess.participant.ID, connID) {
			continue
		}
		room.RemoveParticipant(sess.participant.ID)
		if room.MemberCount() == 0 {
			h.store.Delete(code)
			continue
		}
		broadcastToRoom(room, "", models.Event{
			Type: models.EventTypeUserLeft,
			Payload: map[string]interface{}{
				"userId": sess.participant.ID,
				"name":   sess.participant.Name,
				"room":   room.Snapshot(),
			},
		})
	}
}

// resolve maps the connection to its session.
func (h *SessionHandler) resolve(conn models.Connection) (*session, error) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	sess, exists := h.sessions[conn.ID()]
	if !exists {
		return nil, models.ErrUnknownConnection
	}
	return sess, nil
}

// resolveMember resolves the session and the room, requiring the
// participant to be a current member. A kicked or departed participant
// gets the same answer as for a room that never existed.
func (h *SessionHandler) resolveMember(conn models.Connection, code string) (*session, *models.Room, error) {
	sess, err := h.resolve(conn)
	if err != nil {
		return nil, nil, err
	}
	room, exists := h.store.Get(code)
	if !exists {
		return nil, nil, models.ErrRoomNotFound
	}
	if !room.HasParticipant(sess.participant.ID) {
		return nil, nil, models.ErrRoomNotFound
	}
	return sess, room, nil
}

// broadcastToRoom sends an event to every member's connection,
// optionally skipping one connection id.
func broadcastToRoom(room *models.Room, excludeConnID string, event models.Event) {
	for _, c := range room.Connections() {
		if excludeConnID != "" && c.ID() == excludeConnID {
			continue
		}
		c.Send(event)
	}
}

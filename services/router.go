package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pushpaktiwarii/phoolverse/types"
)

type CommandType int

const (
	CmdJoin CommandType = iota
	CmdUpdateVideo
	CmdUpdateGame
	CmdSendMessage
	CmdSendReaction
	CmdLeave
	CmdDisconnect
)

// Command is one inbound client event, decoded and validated by the
// transport layer. Only the fields relevant to Type are set.
type Command struct {
	Type     CommandType
	Client   *types.Client
	RoomID   string
	Username string
	Video    types.VideoPatch
	Game     types.GamePatch
	Sender   string
	Text     string
	Reaction json.RawMessage
}

// binding ties a live connection to the room and display name it last
// joined as. It is what lets a payload-less disconnect find its room.
type binding struct {
	roomID   string
	username string
}

// Router is the single entry point for inbound events. One Run goroutine
// owns the store, the bindings and the subscription sets exclusively and
// processes commands run-to-completion, so none of them need locks.
type Router struct {
	store    *RoomStore
	commands chan Command
	bindings map[string]binding
	subs     map[string]map[*types.Client]bool
	log      *slog.Logger
}

func NewRouter(store *RoomStore, log *slog.Logger, buffer int) *Router {
	if buffer <= 0 {
		buffer = 64
	}
	return &Router{
		store:    store,
		commands: make(chan Command, buffer),
		bindings: make(map[string]binding),
		subs:     make(map[string]map[*types.Client]bool),
		log:      log,
	}
}

// Submit queues a command for the router goroutine.
func (r *Router) Submit(cmd Command) {
	r.commands <- cmd
}

// Run processes commands until the context is cancelled.
func (r *Router) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-r.commands:
			r.dispatch(cmd)
		}
	}
}

func (r *Router) dispatch(cmd Command) {
	switch cmd.Type {
	case CmdJoin:
		r.handleJoin(cmd)
	case CmdUpdateVideo:
		r.handleUpdateVideo(cmd)
	case CmdUpdateGame:
		r.handleUpdateGame(cmd)
	case CmdSendMessage:
		r.handleSendMessage(cmd)
	case CmdSendReaction:
		r.handleSendReaction(cmd)
	case CmdLeave:
		r.handleLeave(cmd)
	case CmdDisconnect:
		r.handleDisconnect(cmd)
	}
}

func (r *Router) handleJoin(cmd Command) {
	c := cmd.Client

	// A re-join overwrites the binding; the subscription moves with it.
	if prev, ok := r.bindings[c.ID]; ok && prev.roomID != cmd.RoomID {
		r.unsubscribe(prev.roomID, c)
	}

	room := r.store.AddMember(cmd.RoomID, cmd.Username)
	r.bindings[c.ID] = binding{roomID: cmd.RoomID, username: cmd.Username}
	if r.subs[cmd.RoomID] == nil {
		r.subs[cmd.RoomID] = make(map[*types.Client]bool)
	}
	r.subs[cmd.RoomID][c] = true

	snapshot, _ := r.store.Snapshot(cmd.RoomID)
	r.send(c, types.EventSyncState, snapshot)
	r.broadcast(cmd.RoomID, types.EventUserJoined, types.MembershipChange{
		Username: cmd.Username,
		Users:    room.Users,
	}, c)

	r.log.Info("user joined", "room", cmd.RoomID, "username", cmd.Username)
}

func (r *Router) handleUpdateVideo(cmd Command) {
	state, ok := r.store.PatchVideo(cmd.RoomID, cmd.Video)
	if !ok {
		r.log.Debug("video update for unknown room", "room", cmd.RoomID)
		return
	}
	// The sender's local player already reflects the change; echoing it
	// back would only cause redundant re-renders.
	r.broadcast(cmd.RoomID, types.EventVideoUpdate, state, cmd.Client)
}

func (r *Router) handleUpdateGame(cmd Command) {
	state, ok := r.store.PatchGame(cmd.RoomID, cmd.Game)
	if !ok {
		r.log.Debug("game update for unknown room", "room", cmd.RoomID)
		return
	}
	// Unlike video, the mover's own board must come back through the same
	// path the opponent's does, or the two views drift apart.
	r.broadcast(cmd.RoomID, types.EventGameUpdate, state, nil)
}

func (r *Router) handleSendMessage(cmd Command) {
	msg, ok := r.store.AppendMessage(cmd.RoomID, cmd.Sender, cmd.Text)
	if !ok {
		r.log.Debug("message for unknown room", "room", cmd.RoomID)
		return
	}
	// Includes the sender: their own message confirms delivery through the
	// same channel as everyone else's.
	r.broadcast(cmd.RoomID, types.EventNewMessage, msg, nil)
}

func (r *Router) handleSendReaction(cmd Command) {
	// Reactions are never stored. Unknown rooms relay to an empty set.
	r.broadcast(cmd.RoomID, types.EventNewReaction, cmd.Reaction, nil)
}

func (r *Router) handleLeave(cmd Command) {
	c := cmd.Client
	if b, ok := r.bindings[c.ID]; ok && b.roomID == cmd.RoomID {
		delete(r.bindings, c.ID)
	}
	r.unsubscribe(cmd.RoomID, c)

	room, ok := r.store.RemoveMember(cmd.RoomID, cmd.Username)
	if !ok {
		return
	}
	r.broadcast(cmd.RoomID, types.EventUserLeft, types.MembershipChange{
		Username: cmd.Username,
		Users:    room.Users,
	}, c)
	r.log.Info("user left", "room", cmd.RoomID, "username", cmd.Username)
}

// handleDisconnect is the abrupt-disconnect twin of handleLeave. The event
// carries no payload, so the binding is the only way back to the room.
func (r *Router) handleDisconnect(cmd Command) {
	c := cmd.Client
	if b, ok := r.bindings[c.ID]; ok {
		delete(r.bindings, c.ID)
		r.unsubscribe(b.roomID, c)
		if room, ok := r.store.RemoveMember(b.roomID, b.username); ok {
			r.broadcast(b.roomID, types.EventUserLeft, types.MembershipChange{
				Username: b.username,
				Users:    room.Users,
			}, c)
		}
		r.log.Info("user disconnected", "room", b.roomID, "username", b.username)
	}
	close(c.Send)
}

func (r *Router) unsubscribe(roomID string, c *types.Client) {
	if clients, ok := r.subs[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(r.subs, roomID)
		}
	}
}

func (r *Router) send(c *types.Client, event string, data any) {
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		r.log.Error("marshal frame", "event", event, "err", err)
		return
	}
	r.push(c, event, frame)
}

func (r *Router) broadcast(roomID, event string, data any, except *types.Client) {
	clients := r.subs[roomID]
	if len(clients) == 0 {
		return
	}
	frame, err := marshalEnvelope(event, data)
	if err != nil {
		r.log.Error("marshal frame", "event", event, "err", err)
		return
	}
	for c := range clients {
		if c == except {
			continue
		}
		r.push(c, event, frame)
	}
}

func (r *Router) push(c *types.Client, event string, frame []byte) {
	select {
	case c.Send <- frame:
	default:
		r.log.Warn("send buffer full, dropping frame", "client", c.ID, "event", event)
	}
}

func marshalEnvelope(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(types.Envelope{Event: event, Data: payload})
}

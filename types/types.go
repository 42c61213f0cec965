package types

import (
	"encoding/json"
)

// Inbound event names (client -> server).
const (
	EventJoinRoom     = "join_room"
	EventUpdateVideo  = "update_video"
	EventUpdateGame   = "update_game"
	EventSendMessage  = "send_message"
	EventSendReaction = "send_reaction"
	EventLeaveRoom    = "leave_room"
)

// Outbound event names (server -> client).
const (
	EventSyncState   = "sync_state"
	EventUserJoined  = "user_joined"
	EventUserLeft    = "user_left"
	EventVideoUpdate = "video_update"
	EventGameUpdate  = "game_update"
	EventNewMessage  = "new_message"
	EventNewReaction = "new_reaction"
)

// Envelope frames every WebSocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is one live WebSocket connection. The transport layer owns the
// socket itself; the router only ever talks to the Send channel.
type Client struct {
	ID   string      `json:"id"`
	Send chan []byte `json:"-"`
}

// ChatMessage is a stored room chat entry. Timestamp is Unix milliseconds,
// stamped at server receive time.
type ChatMessage struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// VideoState is the shared "now playing" cursor of a room. Controller is
// advisory: it names whichever member the clients currently treat as
// source-of-truth, and is never validated against membership.
type VideoState struct {
	URL        *string `json:"url"`
	IsPlaying  bool    `json:"isPlaying"`
	Position   float64 `json:"position"`
	Controller *string `json:"controller"`
}

// GameState is the optional embedded tic-tac-toe board. The server relays
// patches blindly; turn and winner enforcement is a client-side contract.
type GameState struct {
	Kind        *string           `json:"kind"`
	Players     map[string]string `json:"players"`
	Board       []*string         `json:"board"`
	Turn        *string           `json:"turn"`
	Winner      *string           `json:"winner"`
	WinningLine []int             `json:"winningLine"`
}

// Room is the unit of shared session state.
type Room struct {
	ID       string
	Users    []string
	Video    VideoState
	Game     GameState
	Messages []ChatMessage

	// Version counts playback/game patches. Server-internal, never sent
	// on the wire.
	Version int64
}

// SyncState is the full snapshot sent to a joining client.
type SyncState struct {
	VideoState VideoState    `json:"videoState"`
	Users      []string      `json:"users"`
	Messages   []ChatMessage `json:"messages"`
	GameState  GameState     `json:"gameState"`
}

// MembershipChange notifies remaining members after a join or leave.
type MembershipChange struct {
	Username string   `json:"username"`
	Users    []string `json:"users"`
}

// Inbound payloads.

type JoinRoomPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type UpdateVideoPayload struct {
	RoomID     string     `json:"roomId" validate:"required"`
	VideoState VideoPatch `json:"videoState"`
}

type UpdateGamePayload struct {
	RoomID    string    `json:"roomId" validate:"required"`
	GameState GamePatch `json:"gameState"`
}

type SendMessagePayload struct {
	RoomID  string        `json:"roomId" validate:"required"`
	Message ChatMessageIn `json:"message" validate:"required"`
}

type ChatMessageIn struct {
	Sender string `json:"sender" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

type SendReactionPayload struct {
	RoomID   string          `json:"roomId" validate:"required"`
	Reaction json.RawMessage `json:"reaction" validate:"required"`
}

type LeaveRoomPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	Username string `json:"username" validate:"required"`
}

// VideoPatch is a partial update of VideoState. Each Has flag records
// whether the key appeared in the JSON object at all, so "omitted" (keep
// the old value) and "explicit null" (clear) stay distinguishable.
type VideoPatch struct {
	URL        *string
	IsPlaying  *bool
	Position   *float64
	Controller *string

	HasURL        bool
	HasController bool
}

func (p *VideoPatch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["url"]; ok {
		p.HasURL = true
		if err := json.Unmarshal(v, &p.URL); err != nil {
			return err
		}
	}
	if v, ok := raw["isPlaying"]; ok {
		if err := json.Unmarshal(v, &p.IsPlaying); err != nil {
			return err
		}
	}
	if v, ok := raw["position"]; ok {
		if err := json.Unmarshal(v, &p.Position); err != nil {
			return err
		}
	}
	if v, ok := raw["controller"]; ok {
		p.HasController = true
		if err := json.Unmarshal(v, &p.Controller); err != nil {
			return err
		}
	}
	return nil
}

// Apply shallow-merges the patch into the state, field by field.
func (s *VideoState) Apply(p VideoPatch) {
	if p.HasURL {
		s.URL = p.URL
	}
	if p.IsPlaying != nil {
		s.IsPlaying = *p.IsPlaying
	}
	if p.Position != nil {
		s.Position = *p.Position
	}
	if p.HasController {
		s.Controller = p.Controller
	}
}

// GamePatch is a partial update of GameState. Merging is top-level only: a
// present players or board value replaces the previous one wholesale.
type GamePatch struct {
	Kind        *string
	Players     map[string]string
	Board       []*string
	Turn        *string
	Winner      *string
	WinningLine []int

	HasKind        bool
	HasPlayers     bool
	HasBoard       bool
	HasTurn        bool
	HasWinner      bool
	HasWinningLine bool
}

func (p *GamePatch) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if v, ok := raw["kind"]; ok {
		p.HasKind = true
		if err := json.Unmarshal(v, &p.Kind); err != nil {
			return err
		}
	}
	if v, ok := raw["players"]; ok {
		p.HasPlayers = true
		if err := json.Unmarshal(v, &p.Players); err != nil {
			return err
		}
	}
	if v, ok := raw["board"]; ok {
		p.HasBoard = true
		if err := json.Unmarshal(v, &p.Board); err != nil {
			return err
		}
	}
	if v, ok := raw["turn"]; ok {
		p.HasTurn = true
		if err := json.Unmarshal(v, &p.Turn); err != nil {
			return err
		}
	}
	if v, ok := raw["winner"]; ok {
		p.HasWinner = true
		if err := json.Unmarshal(v, &p.Winner); err != nil {
			return err
		}
	}
	if v, ok := raw["winningLine"]; ok {
		p.HasWinningLine = true
		if err := json.Unmarshal(v, &p.WinningLine); err != nil {
			return err
		}
	}
	return nil
}

func (s *GameState) Apply(p GamePatch) {
	if p.HasKind {
		s.Kind = p.Kind
	}
	if p.HasPlayers {
		s.Players = p.Players
	}
	if p.HasBoard {
		s.Board = p.Board
	}
	if p.HasTurn {
		s.Turn = p.Turn
	}
	if p.HasWinner {
		s.Winner = p.Winner
	}
	if p.HasWinningLine {
		s.WinningLine = p.WinningLine
	}
}

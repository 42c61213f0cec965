package services

import (
	"github.com/samber/lo"

	"github.com/pushpaktiwarii/phoolverse/types"
	"github.com/pushpaktiwarii/phoolverse/utils"
)

// DefaultHistoryLimit is how many chat messages a room retains.
const DefaultHistoryLimit = 50

// RoomStore owns the authoritative in-memory copy of every room. It is not
// safe for concurrent use on its own: the Router goroutine is its single
// owner and serializes all access (see Router.Run).
//
// Rooms are created lazily on first join and never deleted. An emptied room
// is retained; with the process restart cadence this server runs at, the
// accumulated memory is an accepted cost.
type RoomStore struct {
	rooms        map[string]*types.Room
	historyLimit int
}

func NewRoomStore(historyLimit int) *RoomStore {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &RoomStore{
		rooms:        make(map[string]*types.Room),
		historyLimit: historyLimit,
	}
}

// GetOrCreate returns the room for roomID, constructing an idle one if it
// has never been seen. Never fails.
func (s *RoomStore) GetOrCreate(roomID string) *types.Room {
	room, ok := s.rooms[roomID]
	if !ok {
		room = &types.Room{
			ID:       roomID,
			Users:    []string{},
			Messages: []types.ChatMessage{},
		}
		s.rooms[roomID] = room
	}
	return room
}

// Get returns the room for roomID if it exists.
func (s *RoomStore) Get(roomID string) (*types.Room, bool) {
	room, ok := s.rooms[roomID]
	return room, ok
}

// AddMember inserts username into the room's member set, creating the room
// if needed. Joining twice with the same name is idempotent: the set holds
// each name at most once, in first-join order.
func (s *RoomStore) AddMember(roomID, username string) *types.Room {
	room := s.GetOrCreate(roomID)
	if !lo.Contains(room.Users, username) {
		room.Users = append(room.Users, username)
	}
	return room
}

// RemoveMember removes username from the room's member set. Unknown rooms
// and absent names are silent no-ops. An emptied room is retained.
func (s *RoomStore) RemoveMember(roomID, username string) (*types.Room, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, false
	}
	room.Users = lo.Without(room.Users, username)
	return room, true
}

// PatchVideo shallow-merges the patch into the room's playback state and
// returns the merged state for broadcast. Unknown rooms are no-ops. No
// field validation happens here: the last write wins, racing controllers
// and all, which is the accepted consistency model.
func (s *RoomStore) PatchVideo(roomID string, patch types.VideoPatch) (types.VideoState, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return types.VideoState{}, false
	}
	room.Video.Apply(patch)
	room.Version++
	return room.Video, true
}

// PatchGame shallow-merges the patch into the room's game state. Same
// no-validation policy as PatchVideo: the board, turn and winner are a
// client-side contract the server relays blindly.
func (s *RoomStore) PatchGame(roomID string, patch types.GamePatch) (types.GameState, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return types.GameState{}, false
	}
	room.Game.Apply(patch)
	room.Version++
	return room.Game, true
}

// AppendMessage stamps the message with the server receive time and appends
// it to the room's chat log, evicting the oldest entry once the log is past
// the history limit.
func (s *RoomStore) AppendMessage(roomID, sender, text string) (types.ChatMessage, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return types.ChatMessage{}, false
	}
	msg := types.ChatMessage{
		Sender:    sender,
		Text:      text,
		Timestamp: utils.NowMillis(),
	}
	room.Messages = append(room.Messages, msg)
	if len(room.Messages) > s.historyLimit {
		room.Messages = room.Messages[len(room.Messages)-s.historyLimit:]
	}
	return msg, true
}

// Snapshot builds the sync_state payload for a joining client.
func (s *RoomStore) Snapshot(roomID string) (types.SyncState, bool) {
	room, ok := s.rooms[roomID]
	if !ok {
		return types.SyncState{}, false
	}
	return types.SyncState{
		VideoState: room.Video,
		Users:      room.Users,
		Messages:   room.Messages,
		GameState:  room.Game,
	}, true
}

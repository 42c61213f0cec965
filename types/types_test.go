package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestVideoPatch_OmittedFieldsKeepOldValues(t *testing.T) {
	state := VideoState{
		URL:        strptr("https://example.com/v.mp4"),
		IsPlaying:  true,
		Position:   42.5,
		Controller: strptr("alice"),
	}

	var patch VideoPatch
	require.NoError(t, json.Unmarshal([]byte(`{"position": 50}`), &patch))
	state.Apply(patch)

	require.Equal(t, 50.0, state.Position)
	require.Equal(t, "https://example.com/v.mp4", *state.URL)
	require.True(t, state.IsPlaying)
	require.Equal(t, "alice", *state.Controller)
}

func TestVideoPatch_ExplicitNullClearsField(t *testing.T) {
	state := VideoState{
		URL:        strptr("https://example.com/v.mp4"),
		IsPlaying:  true,
		Controller: strptr("alice"),
	}

	var patch VideoPatch
	require.NoError(t, json.Unmarshal([]byte(`{"url": null, "controller": null}`), &patch))
	state.Apply(patch)

	require.Nil(t, state.URL)
	require.Nil(t, state.Controller)
	require.True(t, state.IsPlaying)
}

func TestVideoPatch_FullUpdate(t *testing.T) {
	var state VideoState

	var patch VideoPatch
	raw := `{"url":"https://example.com/v.mp4","isPlaying":true,"position":12.25,"controller":"alice"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &patch))
	state.Apply(patch)

	require.Equal(t, "https://example.com/v.mp4", *state.URL)
	require.True(t, state.IsPlaying)
	require.Equal(t, 12.25, state.Position)
	require.Equal(t, "alice", *state.Controller)
}

func TestGamePatch_MovePatchesBoardAndTurn(t *testing.T) {
	state := GameState{
		Kind:    strptr("tictactoe"),
		Players: map[string]string{"X": "alice", "O": "bob"},
		Board:   make([]*string, 9),
		Turn:    strptr("alice"),
	}

	var patch GamePatch
	raw := `{"board":["X",null,null,null,null,null,null,null,null],"turn":"bob"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &patch))
	state.Apply(patch)

	require.Equal(t, "X", *state.Board[0])
	require.Nil(t, state.Board[1])
	require.Equal(t, "bob", *state.Turn)
	require.Equal(t, "tictactoe", *state.Kind)
	require.Equal(t, map[string]string{"X": "alice", "O": "bob"}, state.Players)
}

func TestGamePatch_PlayersReplacedWholesale(t *testing.T) {
	state := GameState{Players: map[string]string{"X": "alice", "O": "bob"}}

	var patch GamePatch
	require.NoError(t, json.Unmarshal([]byte(`{"players":{"X":"carol"}}`), &patch))
	state.Apply(patch)

	// Top-level shallow merge: the new players value replaces the old one,
	// it is not merged into it.
	require.Equal(t, map[string]string{"X": "carol"}, state.Players)
}

func TestGamePatch_QuitNullsEverything(t *testing.T) {
	state := GameState{
		Kind:        strptr("tictactoe"),
		Players:     map[string]string{"X": "alice", "O": "bob"},
		Board:       make([]*string, 9),
		Turn:        strptr("alice"),
		Winner:      strptr("alice"),
		WinningLine: []int{0, 1, 2},
	}

	var patch GamePatch
	raw := `{"kind":null,"players":null,"board":null,"turn":null,"winner":null,"winningLine":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &patch))
	state.Apply(patch)

	require.Nil(t, state.Kind)
	require.Nil(t, state.Players)
	require.Nil(t, state.Board)
	require.Nil(t, state.Turn)
	require.Nil(t, state.Winner)
	require.Nil(t, state.WinningLine)
}

func TestGamePatch_WinnerAndLine(t *testing.T) {
	state := GameState{Turn: strptr("alice")}

	var patch GamePatch
	raw := `{"winner":"alice","winningLine":[0,4,8],"turn":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &patch))
	state.Apply(patch)

	require.Equal(t, "alice", *state.Winner)
	require.Equal(t, []int{0, 4, 8}, state.WinningLine)
	require.Nil(t, state.Turn)
}

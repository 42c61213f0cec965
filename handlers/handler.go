package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pushpaktiwarii/phoolverse/services"
	"github.com/pushpaktiwarii/phoolverse/types"
)

const defaultSendBuffer = 256

var validate = validator.New()

var errMissingData = errors.New("event has no data")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // CORS is enforced by the gin middleware
}

type Application struct {
	Router     *services.Router
	Log        *slog.Logger
	SendBuffer int
}

// ServeWS upgrades the request and starts the connection's pumps. All room
// semantics happen in the router; this layer only decodes, validates and
// forwards.
func (app *Application) ServeWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		app.Log.Warn("websocket upgrade failed", "err", err)
		return
	}

	buffer := app.SendBuffer
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	client := &types.Client{
		ID:   uuid.NewString(),
		Send: make(chan []byte, buffer),
	}
	app.Log.Info("connection opened", "client", client.ID, "remote", conn.RemoteAddr().String())

	go app.writePump(client, conn)
	go app.readPump(client, conn)
}

// writePump drains the client's outbound channel onto the socket. It exits
// when the router closes Send after processing the disconnect.
func (app *Application) writePump(client *types.Client, conn *websocket.Conn) {
	defer conn.Close()
	for frame := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			app.Log.Debug("write failed", "client", client.ID, "err", err)
			break
		}
	}
}

// readPump decodes inbound envelopes until the socket dies, then routes the
// implicit disconnect through the same cleanup path as a graceful leave.
func (app *Application) readPump(client *types.Client, conn *websocket.Conn) {
	defer func() {
		app.Router.Submit(services.Command{Type: services.CmdDisconnect, Client: client})
		conn.Close()
		app.Log.Info("connection closed", "client", client.ID)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env types.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			app.Log.Warn("undecodable frame", "client", client.ID, "err", err)
			continue
		}
		// A bad event is rejected on its own; the connection stays up and
		// later events keep flowing.
		if err := app.handleEvent(client, env); err != nil {
			app.Log.Warn("rejected event", "client", client.ID, "event", env.Event, "err", err)
		}
	}
}

func (app *Application) handleEvent(client *types.Client, env types.Envelope) error {
	switch env.Event {
	case types.EventJoinRoom:
		var p types.JoinRoomPayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:     services.CmdJoin,
			Client:   client,
			RoomID:   p.RoomID,
			Username: p.Username,
		})
	case types.EventUpdateVideo:
		var p types.UpdateVideoPayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:   services.CmdUpdateVideo,
			Client: client,
			RoomID: p.RoomID,
			Video:  p.VideoState,
		})
	case types.EventUpdateGame:
		var p types.UpdateGamePayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:   services.CmdUpdateGame,
			Client: client,
			RoomID: p.RoomID,
			Game:   p.GameState,
		})
	case types.EventSendMessage:
		var p types.SendMessagePayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:   services.CmdSendMessage,
			Client: client,
			RoomID: p.RoomID,
			Sender: p.Message.Sender,
			Text:   p.Message.Text,
		})
	case types.EventSendReaction:
		var p types.SendReactionPayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:     services.CmdSendReaction,
			Client:   client,
			RoomID:   p.RoomID,
			Reaction: p.Reaction,
		})
	case types.EventLeaveRoom:
		var p types.LeaveRoomPayload
		if err := decodeEvent(env.Data, &p); err != nil {
			return err
		}
		app.Router.Submit(services.Command{
			Type:     services.CmdLeave,
			Client:   client,
			RoomID:   p.RoomID,
			Username: p.Username,
		})
	default:
		return errors.New("unknown event " + env.Event)
	}
	return nil
}

// decodeEvent unmarshals an event payload and checks its required fields.
func decodeEvent(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errMissingData
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

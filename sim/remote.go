package sim

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/diaosuyidsy/cerealbar/game"
	"github.com/diaosuyidsy/cerealbar/replay"
)

// RemoteConfig holds connection settings for a remote game engine.
type RemoteConfig struct {
	EngineURL      string // WebSocket URL template, game ID interpolated
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// DefaultRemoteConfig returns sensible defaults.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		EngineURL:      "wss://engine.cerealbar.dev/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Client downloads recorded games from an engine's event stream.
type Client struct {
	config RemoteConfig
}

// NewClient creates a download client.
func NewClient(config RemoteConfig) *Client {
	return &Client{config: config}
}

// gameEvent is the envelope each stream message arrives in.
type gameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// gameInfo from the "game_info" event, sent once at stream start.
type gameInfo struct {
	GameID       string          `json:"game_id"`
	Hexes        []game.Hex      `json:"hexes"`
	InitialState game.StateDelta `json:"initial_state"`
}

// DownloadGame connects to the game's event stream and reads it to the end.
func (c *Client) DownloadGame(gameID string) (*replay.Game, error) {
	url := fmt.Sprintf(c.config.EngineURL, gameID)

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.ConnectTimeout,
	}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}
	defer conn.Close()

	var info gameInfo
	var infoSeen bool
	var actions []replay.GameplayAction

stream:
	for {
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			// A timeout after some data still yields a usable prefix of
			// the log, matching what a flaky engine connection leaves us.
			if infoSeen && len(actions) > 0 {
				break
			}
			return nil, fmt.Errorf("read event stream: %w", err)
		}

		var event gameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			return nil, fmt.Errorf("parse event envelope: %w", err)
		}

		switch event.Type {
		case "game_info":
			if err := json.Unmarshal(event.Data, &info); err != nil {
				return nil, fmt.Errorf("parse game_info: %w", err)
			}
			infoSeen = true

		case "event":
			action, err := replay.DecodeEventJSON(event.Data)
			if err != nil {
				return nil, fmt.Errorf("game %s event %d: %w", gameID, len(actions), err)
			}
			actions = append(actions, action)

		case "game_end":
			break stream
		}
	}

	if !infoSeen {
		return nil, fmt.Errorf("game %s: stream ended without game_info", gameID)
	}
	if info.GameID == "" {
		info.GameID = gameID
	}
	return replay.NewGame(info.GameID, info.Hexes, info.InitialState, actions), nil
}

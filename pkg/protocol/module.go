package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rinkworks/puckpulse/pkg/scoreboard"
	"github.com/rinkworks/puckpulse/pkg/teams"
)

// Outbound message types.
const (
	TypeState = "state"
	TypeTeams = "teams"
	TypeImage = "image"
)

// StateMessage carries a full scoreboard snapshot to clients.
type StateMessage struct {
	Type string `json:"type"`
	scoreboard.State
}

func NewStateMessage(state scoreboard.State) StateMessage {
	return StateMessage{Type: TypeState, State: state}
}

// TeamsMessage carries the full roster snapshot. Image bytes are never
// inlined; clients issue getImage for those.
type TeamsMessage struct {
	Type  string           `json:"type"`
	Teams []teams.TeamInfo `json:"teams"`
}

func NewTeamsMessage(roster []teams.TeamInfo) TeamsMessage {
	return TeamsMessage{Type: TypeTeams, Teams: roster}
}

// ImageMessage answers a getImage request. Data is base64, or null when the
// player has no stored image.
type ImageMessage struct {
	Type   string  `json:"type"`
	Team   string  `json:"team"`
	Number int     `json:"number"`
	Data   *string `json:"data"`
}

// Envelope is the inbound frame: a command name plus command-specific fields
// decoded separately.
type Envelope struct {
	Command string `json:"command"`
}

// Inbound command payloads. Pointer fields are required; the decoder rejects
// messages that omit them. Value fields carry their documented defaults.

type ValueCommand struct {
	Value *int `json:"value"`
}

type DeltaCommand struct {
	Delta *int `json:"delta"`
}

// DeltaOrOne is the documented default for the add commands.
func (c DeltaCommand) DeltaOrOne() int {
	if c.Delta == nil {
		return 1
	}
	return *c.Delta
}

type NameValueCommand struct {
	Value *string `json:"value"`
}

type SetPenaltyCommand struct {
	Index  *int `json:"index"`
	Value  *int `json:"value"`
	Player *int `json:"player"`
}

type AddPenaltyCommand struct {
	Value  *int `json:"value"`
	Player int  `json:"player"`
}

type SetTimeCommand struct {
	Minutes *int `json:"minutes"`
	Seconds *int `json:"seconds"`
}

type SetClockModeCommand struct {
	Value *string `json:"value"`
}

type PlayerCommand struct {
	Team   *string `json:"team"`
	Name   *string `json:"name"`
	Number *int    `json:"number"`
}

type RemovePlayerCommand struct {
	Team   *string `json:"team"`
	Number *int    `json:"number"`
}

type DeleteTeamCommand struct {
	Name *string `json:"name"`
}

type UploadImageCommand struct {
	Team   *string `json:"team"`
	Number *int    `json:"number"`
	Data   *string `json:"data"`
	Ext    string  `json:"ext"`
}

// Extension falls back to ".jpg", matching what most control surfaces send.
func (c UploadImageCommand) Extension() string {
	if c.Ext == "" {
		return ".jpg"
	}
	return c.Ext
}

type GetImageCommand struct {
	Team   *string `json:"team"`
	Number *int    `json:"number"`
}

type TriggerGoalCommand struct {
	IsHome       *bool `json:"isHome"`
	PlayerNumber int   `json:"playerNumber"`
}

// DecodeEnvelope pulls the command name out of an inbound frame.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Command == "" {
		return nil, fmt.Errorf("message missing command")
	}
	return &envelope, nil
}

// Decode reads the command-specific fields of an inbound frame.
func Decode[T any](data []byte) (*T, error) {
	var command T
	if err := json.Unmarshal(data, &command); err != nil {
		return nil, err
	}
	return &command, nil
}

// Required unwraps a mandatory field, erroring with the field's wire name
// when the client omitted it.
func Required[T any](field *T, name string) (T, error) {
	if field == nil {
		var zero T
		return zero, fmt.Errorf("missing required field %q", name)
	}
	return *field, nil
}

package scoreboard

import (
	"encoding/json"
	"time"
)

// ClockMode governs what the main clock displays and whether it can count
// down. Stopped and Intermission are static displays, Running and Game are
// operator-driven countdowns, and TimeOfDay mirrors the wall clock.
type ClockMode int

const (
	ModeStopped ClockMode = iota
	ModeRunning
	ModeGame
	ModeIntermission
	ModeTimeOfDay
)

var modeNames = map[ClockMode]string{
	ModeStopped:      "Stopped",
	ModeRunning:      "Running",
	ModeGame:         "Game",
	ModeIntermission: "Intermission",
	ModeTimeOfDay:    "TimeOfDay",
}

func (m ClockMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "Stopped"
}

// ParseClockMode maps a wire name back to a mode. The second return value is
// false for names we do not recognize.
func ParseClockMode(name string) (ClockMode, bool) {
	for mode, modeName := range modeNames {
		if modeName == name {
			return mode, true
		}
	}
	return ModeStopped, false
}

// CountsDown reports whether the displayed time is a countdown the tick loop
// should advance.
func (m ClockMode) CountsDown() bool {
	return m == ModeRunning || m == ModeGame
}

func (m ClockMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *ClockMode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if mode, ok := ParseClockMode(name); ok {
		*m = mode
	}
	return nil
}

// NumPenaltySlots is the hockey minor-penalty convention: at most two
// concurrently serving penalties per team.
const NumPenaltySlots = 2

// Penalty is one serving penalty. A slot with no seconds remaining is empty
// and available; its player number is stale and ignored.
type Penalty struct {
	SecondsRemaining int `json:"secondsRemaining"`
	PlayerNumber     int `json:"playerNumber"`
}

func (p Penalty) Empty() bool {
	return p.SecondsRemaining <= 0
}

// GoalEvent is the transient celebration overlay. It exists only while a
// celebration is on screen; the engine clears it after the configured
// display duration.
type GoalEvent struct {
	PlayerName   string    `json:"playerName"`
	PlayerNumber int       `json:"playerNumber"`
	TriggeredAt  time.Time `json:"triggeredAt"`

	// Raw encoded image bytes for the renderer. Never serialized; clients
	// fetch images through the roster interface instead.
	Image []byte `json:"-"`
}

// State is the canonical scoreboard state. Exactly one live instance exists,
// owned by the Engine; everything else works from value copies.
type State struct {
	HomeScore int `json:"homeScore"`
	AwayScore int `json:"awayScore"`

	TimeMinutes int `json:"timeMinutes"`
	TimeSeconds int `json:"timeSeconds"`

	HomeShots int `json:"homeShots"`
	AwayShots int `json:"awayShots"`

	CurrentPeriod int `json:"currentPeriod"`

	HomeTeamName string `json:"homeTeamName"`
	AwayTeamName string `json:"awayTeamName"`

	IsClockRunning bool      `json:"isClockRunning"`
	ClockMode      ClockMode `json:"clockMode"`

	HomePenalties [NumPenaltySlots]Penalty `json:"homePenalties"`
	AwayPenalties [NumPenaltySlots]Penalty `json:"awayPenalties"`

	// Nil while no celebration is active, so consumers switch over exactly
	// two layouts instead of testing a flag plus a bag of fields.
	Goal *GoalEvent `json:"goalEvent,omitempty"`
}

// Celebrating reports whether the goal overlay should replace the normal
// scoreboard layout.
func (s State) Celebrating() bool {
	return s.Goal != nil
}

package scoreboard

import (
	"math"
	"time"

	"github.com/rinkworks/puckpulse/pkg/pubsub"

	"github.com/jonboulle/clockwork"
	"github.com/sasha-s/go-deadlock"
)

const (
	DefaultPeriodLength        = 20 * time.Minute
	DefaultCelebrationDuration = 20 * time.Second
)

// Engine owns the canonical State and serializes every mutation and snapshot
// behind one mutex. The tick loop and the protocol connection handlers both
// call into the same instance; neither can observe a torn intermediate state.
//
// Display fields hold whole seconds while the countdown accumulators keep the
// fractional remainder between ticks.
type Engine struct {
	mutex deadlock.Mutex
	clock clockwork.Clock

	state State

	clockRemaining float64
	homeRemaining  [NumPenaltySlots]float64
	awayRemaining  [NumPenaltySlots]float64

	periodLength time.Duration
	celebration  time.Duration

	changes *pubsub.Topic[State]
}

func NewEngine(clock clockwork.Clock, periodLength, celebration time.Duration) *Engine {
	if periodLength <= 0 {
		periodLength = DefaultPeriodLength
	}
	if celebration <= 0 {
		celebration = DefaultCelebrationDuration
	}

	e := &Engine{
		clock:        clock,
		periodLength: periodLength,
		celebration:  celebration,
		changes:      pubsub.NewTopic[State](),
	}

	e.state.CurrentPeriod = 1
	e.state.ClockMode = ModeGame
	e.clockRemaining = periodLength.Seconds()
	e.syncClockDisplay()

	return e
}

// Changes is the engine's notification feed. Every mutation that changes
// observable state publishes exactly one snapshot.
func (e *Engine) Changes() *pubsub.Topic[State] {
	return e.changes
}

// Snapshot returns a consistent point-in-time copy of the canonical state.
func (e *Engine) Snapshot() State {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.copyState()
}

func (e *Engine) copyState() State {
	snapshot := e.state
	if e.state.Goal != nil {
		goal := *e.state.Goal
		snapshot.Goal = &goal
	}
	return snapshot
}

// mutate runs fn under the state mutex and publishes one snapshot when fn
// reports that observable state changed.
func (e *Engine) mutate(fn func() bool) {
	e.mutex.Lock()
	changed := fn()
	snapshot := e.copyState()
	e.mutex.Unlock()

	if changed {
		e.changes.Publish(snapshot)
	}
}

func clampScore(value int) int {
	if value < 0 {
		return 0
	}
	return value
}

func (e *Engine) SetHomeScore(value int) {
	e.mutate(func() bool {
		e.state.HomeScore = clampScore(value)
		return true
	})
}

func (e *Engine) SetAwayScore(value int) {
	e.mutate(func() bool {
		e.state.AwayScore = clampScore(value)
		return true
	})
}

func (e *Engine) AddHomeScore(delta int) {
	e.mutate(func() bool {
		e.state.HomeScore = clampScore(e.state.HomeScore + delta)
		return true
	})
}

func (e *Engine) AddAwayScore(delta int) {
	e.mutate(func() bool {
		e.state.AwayScore = clampScore(e.state.AwayScore + delta)
		return true
	})
}

func (e *Engine) SetHomeShots(value int) {
	e.mutate(func() bool {
		e.state.HomeShots = clampScore(value)
		return true
	})
}

func (e *Engine) SetAwayShots(value int) {
	e.mutate(func() bool {
		e.state.AwayShots = clampScore(value)
		return true
	})
}

func (e *Engine) AddHomeShots(delta int) {
	e.mutate(func() bool {
		e.state.HomeShots = clampScore(e.state.HomeShots + delta)
		return true
	})
}

func (e *Engine) AddAwayShots(delta int) {
	e.mutate(func() bool {
		e.state.AwayShots = clampScore(e.state.AwayShots + delta)
		return true
	})
}

// SetTime overrides the countdown. Ignored while the clock mirrors the time
// of day, since there is nothing to override.
func (e *Engine) SetTime(minutes, seconds int) {
	e.mutate(func() bool {
		if e.state.ClockMode == ModeTimeOfDay {
			return false
		}
		if minutes < 0 {
			minutes = 0
		}
		if seconds < 0 {
			seconds = 0
		}
		if seconds > 59 {
			seconds = 59
		}
		e.clockRemaining = float64(minutes*60 + seconds)
		e.syncClockDisplay()
		return true
	})
}

func (e *Engine) SetHomePenalty(slot, seconds, playerNumber int) {
	e.setPenalty(&e.state.HomePenalties, &e.homeRemaining, slot, seconds, playerNumber)
}

func (e *Engine) SetAwayPenalty(slot, seconds, playerNumber int) {
	e.setPenalty(&e.state.AwayPenalties, &e.awayRemaining, slot, seconds, playerNumber)
}

func (e *Engine) setPenalty(
	penalties *[NumPenaltySlots]Penalty,
	remaining *[NumPenaltySlots]float64,
	slot, seconds, playerNumber int,
) {
	e.mutate(func() bool {
		if slot < 0 || slot >= NumPenaltySlots {
			return false
		}
		if seconds < 0 {
			seconds = 0
		}
		penalties[slot] = Penalty{
			SecondsRemaining: seconds,
			PlayerNumber:     playerNumber,
		}
		remaining[slot] = float64(seconds)
		return true
	})
}

// AddHomePenalty fills the first empty slot. When both slots are serving,
// the new penalty is dropped; a serving penalty is never displaced.
func (e *Engine) AddHomePenalty(seconds, playerNumber int) {
	e.addPenalty(&e.state.HomePenalties, &e.homeRemaining, seconds, playerNumber)
}

func (e *Engine) AddAwayPenalty(seconds, playerNumber int) {
	e.addPenalty(&e.state.AwayPenalties, &e.awayRemaining, seconds, playerNumber)
}

func (e *Engine) addPenalty(
	penalties *[NumPenaltySlots]Penalty,
	remaining *[NumPenaltySlots]float64,
	seconds, playerNumber int,
) {
	e.mutate(func() bool {
		if seconds < 0 {
			seconds = 0
		}
		for slot := 0; slot < NumPenaltySlots; slot++ {
			if !penalties[slot].Empty() {
				continue
			}
			penalties[slot] = Penalty{
				SecondsRemaining: seconds,
				PlayerNumber:     playerNumber,
			}
			remaining[slot] = float64(seconds)
			return true
		}
		return false
	})
}

func (e *Engine) SetCurrentPeriod(period int) {
	e.mutate(func() bool {
		if period < 1 {
			period = 1
		}
		e.state.CurrentPeriod = period
		return true
	})
}

// NextPeriod advances the period counter and reloads the clock to the
// configured period length. Scores, shots and penalties persist; starting
// the new period's clock is a separate operator action.
func (e *Engine) NextPeriod() {
	e.mutate(func() bool {
		e.state.CurrentPeriod++
		e.state.IsClockRunning = false
		e.clockRemaining = e.periodLength.Seconds()
		if e.state.ClockMode != ModeTimeOfDay {
			e.syncClockDisplay()
		}
		return true
	})
}

// ResetGame returns everything to the opening state of period one. Team
// names and the clock mode are operator configuration and survive the reset.
func (e *Engine) ResetGame() {
	e.mutate(func() bool {
		e.state.HomeScore = 0
		e.state.AwayScore = 0
		e.state.HomeShots = 0
		e.state.AwayShots = 0
		e.state.CurrentPeriod = 1
		e.state.IsClockRunning = false
		e.state.HomePenalties = [NumPenaltySlots]Penalty{}
		e.state.AwayPenalties = [NumPenaltySlots]Penalty{}
		e.homeRemaining = [NumPenaltySlots]float64{}
		e.awayRemaining = [NumPenaltySlots]float64{}
		e.state.Goal = nil
		e.clockRemaining = e.periodLength.Seconds()
		if e.state.ClockMode != ModeTimeOfDay {
			e.syncClockDisplay()
		}
		return true
	})
}

func (e *Engine) SetHomeTeamName(name string) {
	e.mutate(func() bool {
		e.state.HomeTeamName = name
		return true
	})
}

func (e *Engine) SetAwayTeamName(name string) {
	e.mutate(func() bool {
		e.state.AwayTeamName = name
		return true
	})
}

func (e *Engine) SetClockMode(mode ClockMode) {
	e.mutate(func() bool {
		if _, ok := modeNames[mode]; !ok {
			return false
		}
		e.state.ClockMode = mode
		if mode == ModeTimeOfDay {
			e.state.IsClockRunning = false
			e.syncTimeOfDay()
		} else {
			e.syncClockDisplay()
		}
		return true
	})
}

// ToggleClock flips the countdown on or off. A no-op in modes that do not
// count down.
func (e *Engine) ToggleClock() {
	e.mutate(func() bool {
		if !e.state.ClockMode.CountsDown() {
			return false
		}
		e.state.IsClockRunning = !e.state.IsClockRunning
		return true
	})
}

// TriggerGoalCelebration activates the celebration overlay. Scoring is the
// caller's responsibility; a goal can be scored without a recognized scorer.
func (e *Engine) TriggerGoalCelebration(playerName string, playerNumber int, image []byte) {
	e.mutate(func() bool {
		e.state.Goal = &GoalEvent{
			PlayerName:   playerName,
			PlayerNumber: playerNumber,
			TriggeredAt:  e.clock.Now(),
			Image:        image,
		}
		return true
	})
}

// Advance is the tick function. dt is the elapsed wall time in seconds since
// the previous tick. All tick-driven effects that change observable state
// batch into a single change notification.
func (e *Engine) Advance(dt float64) {
	e.mutate(func() bool {
		changed := false
		wasRunning := e.state.IsClockRunning

		if wasRunning && e.state.ClockMode.CountsDown() {
			before := e.state
			e.clockRemaining -= dt
			if e.clockRemaining <= 0 {
				// Period over. The period counter only advances on an
				// explicit operator action.
				e.clockRemaining = 0
				e.state.IsClockRunning = false
			}
			e.syncClockDisplay()
			if e.state.TimeMinutes != before.TimeMinutes ||
				e.state.TimeSeconds != before.TimeSeconds ||
				e.state.IsClockRunning != before.IsClockRunning {
				changed = true
			}
		}

		if e.state.ClockMode == ModeTimeOfDay {
			before := e.state
			e.syncTimeOfDay()
			if e.state.TimeMinutes != before.TimeMinutes ||
				e.state.TimeSeconds != before.TimeSeconds {
				changed = true
			}
		}

		if wasRunning {
			changed = e.advancePenalties(&e.state.HomePenalties, &e.homeRemaining, dt) || changed
			changed = e.advancePenalties(&e.state.AwayPenalties, &e.awayRemaining, dt) || changed
		}

		if e.state.Goal != nil &&
			e.clock.Now().Sub(e.state.Goal.TriggeredAt) >= e.celebration {
			e.state.Goal = nil
			changed = true
		}

		return changed
	})
}

func (e *Engine) advancePenalties(
	penalties *[NumPenaltySlots]Penalty,
	remaining *[NumPenaltySlots]float64,
	dt float64,
) bool {
	changed := false
	for slot := 0; slot < NumPenaltySlots; slot++ {
		if penalties[slot].Empty() {
			continue
		}
		remaining[slot] -= dt
		if remaining[slot] < 0 {
			remaining[slot] = 0
		}
		seconds := int(math.Ceil(remaining[slot]))
		if seconds != penalties[slot].SecondsRemaining {
			penalties[slot].SecondsRemaining = seconds
			changed = true
		}
	}
	return changed
}

// Restore replaces the canonical state, used when resuming a game from the
// archive at startup. Transient celebration state never survives a restart.
func (e *Engine) Restore(state State) {
	e.mutate(func() bool {
		state.Goal = nil
		state.IsClockRunning = false
		e.state = state
		e.clockRemaining = float64(state.TimeMinutes*60 + state.TimeSeconds)
		for slot := 0; slot < NumPenaltySlots; slot++ {
			e.homeRemaining[slot] = float64(state.HomePenalties[slot].SecondsRemaining)
			e.awayRemaining[slot] = float64(state.AwayPenalties[slot].SecondsRemaining)
		}
		return true
	})
}

func (e *Engine) syncClockDisplay() {
	total := int(e.clockRemaining)
	e.state.TimeMinutes = total / 60
	e.state.TimeSeconds = total % 60
}

func (e *Engine) syncTimeOfDay() {
	now := e.clock.Now()
	e.state.TimeMinutes = now.Hour()
	e.state.TimeSeconds = now.Minute()
}

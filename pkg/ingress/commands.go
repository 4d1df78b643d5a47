package ingress

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rinkworks/puckpulse/pkg/protocol"
	"github.com/rinkworks/puckpulse/pkg/scoreboard"

	"github.com/rs/zerolog/log"
)

var commandNames = map[string]struct{}{
	"setHomeScore":      {},
	"setAwayScore":      {},
	"addHomeScore":      {},
	"addAwayScore":      {},
	"addHomeShots":      {},
	"addAwayShots":      {},
	"setHomeTeamName":   {},
	"setAwayTeamName":   {},
	"setHomePenalty":    {},
	"setAwayPenalty":    {},
	"addHomePenalty":    {},
	"addAwayPenalty":    {},
	"toggleClock":       {},
	"resetGame":         {},
	"nextPeriod":        {},
	"setTime":           {},
	"setClockMode":      {},
	"addOrUpdatePlayer": {},
	"removePlayer":      {},
	"deleteTeam":        {},
	"getTeams":          {},
	"uploadPlayerImage": {},
	"getImage":          {},
	"triggerGoal":       {},
}

// dispatch validates one inbound frame and applies it. An error return means
// the message was malformed and dropped; the connection stays open either
// way. Scoreboard mutations broadcast through the engine's change feed;
// roster mutations broadcast the new roster from here.
func (server *Server) dispatch(ctx context.Context, client *Client, msg []byte) error {
	envelope, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return err
	}

	// Only recognized names become label values; anything else would let a
	// client mint unbounded metric series.
	if _, ok := commandNames[envelope.Command]; ok {
		commandsReceived.WithLabelValues(envelope.Command).Inc()
	} else {
		commandsReceived.WithLabelValues("unknown").Inc()
	}

	switch envelope.Command {
	case "setHomeScore":
		return withRequired(msg, func(command protocol.ValueCommand) error {
			value, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			server.engine.SetHomeScore(value)
			return nil
		})
	case "setAwayScore":
		return withRequired(msg, func(command protocol.ValueCommand) error {
			value, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			server.engine.SetAwayScore(value)
			return nil
		})
	case "addHomeScore":
		return withRequired(msg, func(command protocol.DeltaCommand) error {
			server.engine.AddHomeScore(command.DeltaOrOne())
			return nil
		})
	case "addAwayScore":
		return withRequired(msg, func(command protocol.DeltaCommand) error {
			server.engine.AddAwayScore(command.DeltaOrOne())
			return nil
		})
	case "addHomeShots":
		return withRequired(msg, func(command protocol.DeltaCommand) error {
			server.engine.AddHomeShots(command.DeltaOrOne())
			return nil
		})
	case "addAwayShots":
		return withRequired(msg, func(command protocol.DeltaCommand) error {
			server.engine.AddAwayShots(command.DeltaOrOne())
			return nil
		})
	case "setHomeTeamName":
		return withRequired(msg, func(command protocol.NameValueCommand) error {
			name, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			server.engine.SetHomeTeamName(name)
			return nil
		})
	case "setAwayTeamName":
		return withRequired(msg, func(command protocol.NameValueCommand) error {
			name, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			server.engine.SetAwayTeamName(name)
			return nil
		})
	case "setHomePenalty", "setAwayPenalty":
		return withRequired(msg, func(command protocol.SetPenaltyCommand) error {
			index, err := protocol.Required(command.Index, "index")
			if err != nil {
				return err
			}
			if index < 0 || index >= scoreboard.NumPenaltySlots {
				return fmt.Errorf("penalty slot %d out of range", index)
			}
			value, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			player, err := protocol.Required(command.Player, "player")
			if err != nil {
				return err
			}
			if envelope.Command == "setHomePenalty" {
				server.engine.SetHomePenalty(index, value, player)
			} else {
				server.engine.SetAwayPenalty(index, value, player)
			}
			return nil
		})
	case "addHomePenalty", "addAwayPenalty":
		return withRequired(msg, func(command protocol.AddPenaltyCommand) error {
			value, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			if envelope.Command == "addHomePenalty" {
				server.engine.AddHomePenalty(value, command.Player)
			} else {
				server.engine.AddAwayPenalty(value, command.Player)
			}
			return nil
		})
	case "toggleClock":
		server.engine.ToggleClock()
		return nil
	case "resetGame":
		server.engine.ResetGame()
		return nil
	case "nextPeriod":
		server.engine.NextPeriod()
		return nil
	case "setTime":
		return withRequired(msg, func(command protocol.SetTimeCommand) error {
			minutes, err := protocol.Required(command.Minutes, "minutes")
			if err != nil {
				return err
			}
			seconds, err := protocol.Required(command.Seconds, "seconds")
			if err != nil {
				return err
			}
			server.engine.SetTime(minutes, seconds)
			return nil
		})
	case "setClockMode":
		return withRequired(msg, func(command protocol.SetClockModeCommand) error {
			name, err := protocol.Required(command.Value, "value")
			if err != nil {
				return err
			}
			mode, ok := scoreboard.ParseClockMode(name)
			if !ok {
				return fmt.Errorf("unknown clock mode %q", name)
			}
			server.engine.SetClockMode(mode)
			return nil
		})
	case "addOrUpdatePlayer":
		return withRequired(msg, func(command protocol.PlayerCommand) error {
			team, err := protocol.Required(command.Team, "team")
			if err != nil {
				return err
			}
			name, err := protocol.Required(command.Name, "name")
			if err != nil {
				return err
			}
			number, err := protocol.Required(command.Number, "number")
			if err != nil {
				return err
			}

			if err := server.roster.AddOrUpdatePlayer(ctx, team, name, number); err != nil {
				log.Error().Err(err).Str("team", team).Msg("failed to save player")
				return nil
			}
			server.BroadcastTeams(ctx)
			return nil
		})
	case "removePlayer":
		return withRequired(msg, func(command protocol.RemovePlayerCommand) error {
			team, err := protocol.Required(command.Team, "team")
			if err != nil {
				return err
			}
			number, err := protocol.Required(command.Number, "number")
			if err != nil {
				return err
			}

			if err := server.roster.RemovePlayer(ctx, team, number); err != nil {
				log.Error().Err(err).Str("team", team).Msg("failed to remove player")
				return nil
			}
			server.BroadcastTeams(ctx)
			return nil
		})
	case "deleteTeam":
		return withRequired(msg, func(command protocol.DeleteTeamCommand) error {
			name, err := protocol.Required(command.Name, "name")
			if err != nil {
				return err
			}

			if err := server.roster.DeleteTeam(ctx, name); err != nil {
				log.Error().Err(err).Str("team", name).Msg("failed to delete team")
				return nil
			}
			server.BroadcastTeams(ctx)
			return nil
		})
	case "getTeams":
		// Reply-only; nothing changed, so nothing is broadcast.
		roster, err := server.buildTeamsMessage(ctx)
		if err != nil {
			log.Error().Err(err).Msg("could not build roster snapshot")
			return nil
		}
		client.Send(roster)
		return nil
	case "uploadPlayerImage":
		return withRequired(msg, func(command protocol.UploadImageCommand) error {
			team, err := protocol.Required(command.Team, "team")
			if err != nil {
				return err
			}
			number, err := protocol.Required(command.Number, "number")
			if err != nil {
				return err
			}
			encoded, err := protocol.Required(command.Data, "data")
			if err != nil {
				return err
			}

			data, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return fmt.Errorf("invalid image payload: %w", err)
			}
			if len(data) == 0 {
				return fmt.Errorf("empty image payload")
			}

			if err := server.roster.SavePlayerImage(ctx, team, number, data, command.Extension()); err != nil {
				log.Error().Err(err).Str("team", team).Int("number", number).
					Msg("failed to save player image")
				return nil
			}
			server.BroadcastTeams(ctx)
			return nil
		})
	case "getImage":
		return withRequired(msg, func(command protocol.GetImageCommand) error {
			team, err := protocol.Required(command.Team, "team")
			if err != nil {
				return err
			}
			number, err := protocol.Required(command.Number, "number")
			if err != nil {
				return err
			}

			response := protocol.ImageMessage{
				Type:   protocol.TypeImage,
				Team:   team,
				Number: number,
			}
			if data, err := server.roster.PlayerImage(ctx, team, number); err == nil {
				encoded := base64.StdEncoding.EncodeToString(data)
				response.Data = &encoded
			}

			reply, err := json.Marshal(response)
			if err != nil {
				return err
			}
			client.Send(reply)
			return nil
		})
	case "triggerGoal":
		return withRequired(msg, func(command protocol.TriggerGoalCommand) error {
			isHome, err := protocol.Required(command.IsHome, "isHome")
			if err != nil {
				return err
			}
			server.triggerGoal(ctx, isHome, command.PlayerNumber)
			return nil
		})
	default:
		return fmt.Errorf("unrecognized command %q", envelope.Command)
	}
}

// triggerGoal bumps the score and, when the scorer is on the roster, starts
// the celebration overlay with their name and image.
func (server *Server) triggerGoal(ctx context.Context, isHome bool, playerNumber int) {
	state := server.engine.Snapshot()

	teamName := state.AwayTeamName
	if isHome {
		server.engine.AddHomeScore(1)
		teamName = state.HomeTeamName
	} else {
		server.engine.AddAwayScore(1)
	}

	if playerNumber <= 0 {
		return
	}

	player, err := server.roster.FindPlayer(ctx, teamName, playerNumber)
	if err != nil {
		// A goal without a recognized scorer still counts; only the
		// celebration is skipped.
		log.Warn().Str("team", teamName).Int("number", playerNumber).
			Msg("scorer not on roster; skipping celebration")
		return
	}

	image, err := server.roster.PlayerImage(ctx, teamName, playerNumber)
	if err != nil {
		image = nil
	}

	server.engine.TriggerGoalCelebration(player.Name, playerNumber, image)
}

// withRequired decodes the command-specific fields and runs the handler.
func withRequired[T any](msg []byte, handler func(T) error) error {
	command, err := protocol.Decode[T](msg)
	if err != nil {
		return err
	}
	return handler(*command)
}

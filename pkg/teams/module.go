package teams

import (
	"context"
	"errors"
	"path/filepath"

	fp "github.com/repeale/fp-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerInfo is the roster-snapshot view of a player. Image bytes are never
// inlined here; clients fetch them explicitly.
type PlayerInfo struct {
	Name     string `json:"name"`
	Number   int    `json:"number"`
	HasImage bool   `json:"hasImage"`
}

type TeamInfo struct {
	Name    string       `json:"name"`
	Players []PlayerInfo `json:"players"`
}

// Manager owns the durable team/player roster: one database row per player
// plus an on-disk blob per uploaded player image.
type Manager struct {
	db     *gorm.DB
	images ImageStore
}

func NewManager(dataDir string) (*Manager, error) {
	db, err := InitDB(filepath.Join(dataDir, "teams.db"))
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:     db,
		images: ImageStore(filepath.Join(dataDir, "images")),
	}, nil
}

// AddOrUpdatePlayer upserts a player by jersey number, creating the team on
// first reference.
func (m *Manager) AddOrUpdatePlayer(ctx context.Context, teamName, playerName string, number int) error {
	team, err := m.ensureTeam(ctx, teamName)
	if err != nil {
		return err
	}

	var player Player
	err = m.db.WithContext(ctx).
		Where(&Player{TeamID: team.ID, Number: number}).
		First(&player).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return m.db.WithContext(ctx).Create(&Player{
			TeamID: team.ID,
			Number: number,
			Name:   playerName,
		}).Error
	}
	if err != nil {
		return err
	}

	player.Name = playerName
	return m.db.WithContext(ctx).Save(&player).Error
}

func (m *Manager) RemovePlayer(ctx context.Context, teamName string, number int) error {
	team, err := m.findTeam(ctx, teamName)
	if err != nil {
		return err
	}

	var player Player
	err = m.db.WithContext(ctx).
		Where(&Player{TeamID: team.ID, Number: number}).
		First(&player).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if player.ImageKey != "" {
		m.images.Remove(ctx, player.ImageKey)
	}

	return m.db.WithContext(ctx).Delete(&player).Error
}

func (m *Manager) DeleteTeam(ctx context.Context, teamName string) error {
	team, err := m.findTeam(ctx, teamName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var players []Player
	if err := m.db.WithContext(ctx).Where(&Player{TeamID: team.ID}).Find(&players).Error; err != nil {
		return err
	}
	for _, player := range players {
		if player.ImageKey != "" {
			m.images.Remove(ctx, player.ImageKey)
		}
	}

	if err := m.db.WithContext(ctx).Where(&Player{TeamID: team.ID}).Delete(&Player{}).Error; err != nil {
		return err
	}

	return m.db.WithContext(ctx).Delete(team).Error
}

// SavePlayerImage stores the uploaded blob and points the player row at it.
// The player must already exist on the roster.
func (m *Manager) SavePlayerImage(ctx context.Context, teamName string, number int, data []byte, extension string) error {
	team, err := m.findTeam(ctx, teamName)
	if err != nil {
		return err
	}

	var player Player
	err = m.db.WithContext(ctx).
		Where(&Player{TeamID: team.ID, Number: number}).
		First(&player).Error
	if err != nil {
		return err
	}

	key := imageKey(teamName, number, extension)

	// A different extension changes the key; drop the old blob so it does
	// not linger on disk unreferenced.
	if player.ImageKey != "" && player.ImageKey != key {
		m.images.Remove(ctx, player.ImageKey)
	}

	if err := m.images.Set(ctx, key, data); err != nil {
		return err
	}

	player.ImageKey = key
	return m.db.WithContext(ctx).Save(&player).Error
}

// PlayerImage returns the stored blob for a player, or Missing.
func (m *Manager) PlayerImage(ctx context.Context, teamName string, number int) ([]byte, error) {
	team, err := m.findTeam(ctx, teamName)
	if err != nil {
		return nil, Missing
	}

	var player Player
	err = m.db.WithContext(ctx).
		Where(&Player{TeamID: team.ID, Number: number}).
		First(&player).Error
	if err != nil || player.ImageKey == "" {
		return nil, Missing
	}

	return m.images.Get(ctx, player.ImageKey)
}

// FindPlayer resolves a roster entry by team name and jersey number.
func (m *Manager) FindPlayer(ctx context.Context, teamName string, number int) (*PlayerInfo, error) {
	team, err := m.findTeam(ctx, teamName)
	if err != nil {
		return nil, err
	}

	var player Player
	err = m.db.WithContext(ctx).
		Where(&Player{TeamID: team.ID, Number: number}).
		First(&player).Error
	if err != nil {
		return nil, err
	}

	return &PlayerInfo{
		Name:     player.Name,
		Number:   player.Number,
		HasImage: player.ImageKey != "",
	}, nil
}

// Teams builds the full roster snapshot, ordered by team name for a stable
// wire payload.
func (m *Manager) Teams(ctx context.Context) ([]TeamInfo, error) {
	var records []Team
	err := m.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB {
			return db.Order("number")
		}).
		Order("name").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	toInfo := fp.Map(func(player Player) PlayerInfo {
		return PlayerInfo{
			Name:     player.Name,
			Number:   player.Number,
			HasImage: player.ImageKey != "",
		}
	})

	snapshot := make([]TeamInfo, 0, len(records))
	for _, team := range records {
		snapshot = append(snapshot, TeamInfo{
			Name:    team.Name,
			Players: toInfo(team.Players),
		})
	}

	return snapshot, nil
}

func (m *Manager) ensureTeam(ctx context.Context, teamName string) (*Team, error) {
	team := Team{Name: teamName}
	err := m.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&team).Error
	if err != nil {
		return nil, err
	}

	return m.findTeam(ctx, teamName)
}

func (m *Manager) findTeam(ctx context.Context, teamName string) (*Team, error) {
	var team Team
	err := m.db.WithContext(ctx).
		Where(&Team{Name: teamName}).
		First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

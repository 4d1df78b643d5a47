package teams

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Team struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"unique;not null;size:64"`

	Players []Player `gorm:"constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID     uint `gorm:"primaryKey"`
	TeamID uint `gorm:"not null;index"`

	// Jersey number, unique within a team.
	Number int    `gorm:"not null"`
	Name   string `gorm:"size:64"`

	// Key of the player's image in the blob store, empty when none was
	// uploaded.
	ImageKey string `gorm:"size:128"`
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&Team{})
	db.AutoMigrate(&Player{})

	return db, nil
}

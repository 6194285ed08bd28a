package schema

import "time"

// OwnerLevel represents the owner_levels table - a derived summary of how many
// items an address holds and the tier that count maps to.
// A row exists iff the owner has at least one minted item.
type OwnerLevel struct {
	// Owner is the holder's address and the primary key
	Owner string `gorm:"column:owner;primaryKey;type:text"`
	// TotalMints is the number of minted items currently attributed to the owner
	TotalMints int `gorm:"column:total_mints;not null"`
	// Level is the tier derived from TotalMints
	Level int `gorm:"column:level;not null"`
	// Experience mirrors TotalMints
	Experience int `gorm:"column:experience;not null"`
	// NextLevelMints is how many more mints reach the next tier, 0 at the top tier
	NextLevelMints int `gorm:"column:next_level_mints;not null"`
	// Version increments on every recompute
	Version int64 `gorm:"column:version;not null;default:1"`
	// CreatedAt is the timestamp when the owner first appeared
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last recompute
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OwnerLevel model
func (OwnerLevel) TableName() string {
	return "owner_levels"
}

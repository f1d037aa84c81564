package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Company is the read-only identifier provider used to build dispatch
// payloads. ExternalIDs maps a source kind to the identifier that mining
// module knows the company by.
type Company struct {
	ID          uint           `gorm:"primaryKey"`
	Name        string         `gorm:"type:varchar(255);not null"`
	Symbol      string         `gorm:"type:varchar(50);not null"`
	ExternalIDs datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
}

func (Company) TableName() string {
	return "companies"
}

// IdentifierFor returns the company's identifier for the given source kind,
// falling back to the symbol when no mapping exists.
func (c *Company) IdentifierFor(kind string) string {
	if len(c.ExternalIDs) == 0 {
		return c.Symbol
	}
	var ids map[string]string
	if err := json.Unmarshal(c.ExternalIDs, &ids); err != nil {
		return c.Symbol
	}
	if id, ok := ids[kind]; ok && id != "" {
		return id
	}
	return c.Symbol
}

package db

import (
	"encoding/json"
	"time"
)

// Article maps the articles table. List-valued fields and the opaque score
// are stored as jsonb.
type Article struct {
	ArticleID        int64           `gorm:"column:article_id;primaryKey;autoIncrement"`
	URL              string          `gorm:"column:url;type:text;not null;unique"`
	Title            string          `gorm:"column:title;type:text;not null;default:''"`
	Content          string          `gorm:"column:content;type:text;not null;default:''"`
	Summary          string          `gorm:"column:summary;type:text;not null;default:''"`
	Authors          json.RawMessage `gorm:"column:authors;type:jsonb"`
	PublishedDate    string          `gorm:"column:published_date;type:text;not null;default:''"`
	ProcessingDate   string          `gorm:"column:processing_date;type:text;not null;default:''"`
	Keywords         json.RawMessage `gorm:"column:keywords;type:jsonb"`
	IntendedAudience json.RawMessage `gorm:"column:intended_audience;type:jsonb"`
	Score            json.RawMessage `gorm:"column:score;type:jsonb"`
	Language         string          `gorm:"column:language;type:text;not null;default:''"`
	ModelUsed        string          `gorm:"column:model_used;type:text;not null;default:''"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Article) TableName() string { return "articles" }

// User maps the users table.
type User struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Email     string    `gorm:"column:email;type:text;not null;unique"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (User) TableName() string { return "users" }

// UserArticle maps the per-user per-date article sets. The composite
// primary key gives the set its add-to-set semantics.
type UserArticle struct {
	UserID    int64     `gorm:"column:user_id;type:bigint;primaryKey"`
	DateKey   string    `gorm:"column:date_key;type:text;primaryKey"`
	ArticleID int64     `gorm:"column:article_id;type:bigint;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (UserArticle) TableName() string { return "user_articles" }

func autoMigrateModels() []any {
	return []any{
		&Article{},
		&User{},
		&UserArticle{},
	}
}

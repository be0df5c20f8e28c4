package db

import (
	"context"
	"fmt"
	"strings"
)

const postAutoMigrateSQL = `
CREATE INDEX IF NOT EXISTS idx_user_articles_user_date ON user_articles (user_id, date_key);
CREATE INDEX IF NOT EXISTS idx_articles_processing_date ON articles (processing_date);
`

func (p *Pool) autoMigrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	if err := p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}

	if err := executeMigrationSQL(ctx, p, "post-auto-migrate", postAutoMigrateSQL); err != nil {
		return err
	}

	return nil
}

func executeMigrationSQL(ctx context.Context, p *Pool, label, sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return nil
	}
	if err := p.gdb.WithContext(ctx).Exec(trimmed).Error; err != nil {
		return fmt.Errorf("execute %s SQL: %w", label, err)
	}
	return nil
}

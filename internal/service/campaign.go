package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type CampaignService struct {
	db    *sql.DB
	audit *AuditService
}

func NewCampaignService(db *sql.DB, audit *AuditService) *CampaignService {
	return &CampaignService{db: db, audit: audit}
}

func (s *CampaignService) Create(ctx context.Context, c model.Campaign, actor string) (*model.Campaign, error) {
	if c.Title == "" {
		return nil, apperr.Validation("title", "campaign title is required")
	}
	if !c.EndsAt.After(c.StartsAt) {
		return nil, apperr.Validation("ends_at", "campaign must end after it starts")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO campaigns (title, body, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Title, c.Body, c.StartsAt, c.EndsAt, c.Active)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert campaign: %w", err)
	}

	s.audit.Record(ctx, actor, "campaign-created", "campaign", c.ID, c.Title)
	return &c, nil
}

func (s *CampaignService) Update(ctx context.Context, c model.Campaign, actor string) (*model.Campaign, error) {
	if !c.EndsAt.After(c.StartsAt) {
		return nil, apperr.Validation("ends_at", "campaign must end after it starts")
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE campaigns SET title = $2, body = $3, starts_at = $4, ends_at = $5, active = $6
		WHERE id = $1
		RETURNING created_at
	`, c.ID, c.Title, c.Body, c.StartsAt, c.EndsAt, c.Active)
	if err := row.Scan(&c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("update campaign: %w", err)
	}

	s.audit.Record(ctx, actor, "campaign-updated", "campaign", c.ID, c.Title)
	return &c, nil
}

func (s *CampaignService) List(ctx context.Context) ([]model.Campaign, error) {
	return s.list(ctx, `SELECT id, title, body, starts_at, ends_at, active, created_at FROM campaigns ORDER BY starts_at DESC`)
}

// Active returns campaigns the storefront should show right now.
func (s *CampaignService) Active(ctx context.Context) ([]model.Campaign, error) {
	return s.list(ctx, `
		SELECT id, title, body, starts_at, ends_at, active, created_at
		FROM campaigns
		WHERE active = TRUE AND starts_at <= NOW() AND ends_at >= NOW()
		ORDER BY starts_at DESC
	`)
}

func (s *CampaignService) list(ctx context.Context, query string) ([]model.Campaign, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []model.Campaign
	for rows.Next() {
		var c model.Campaign
		if err := rows.Scan(&c.ID, &c.Title, &c.Body, &c.StartsAt, &c.EndsAt, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return campaigns, nil
}

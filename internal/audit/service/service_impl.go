package service

import (
	"context"
	"errors"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidLimit = errors.New("audit_invalid_limit")

const defaultRecentLimit = 50

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clk   clock.Clock
	repo  auditdomain.Repository
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clk:   p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, rec auditdomain.Record) error {
	return s.RecordTx(ctx, s.db, rec)
}

func (s *Service) RecordTx(ctx context.Context, db *gorm.DB, rec auditdomain.Record) error {
	entry := &auditdomain.AuditLog{
		ID:          s.genID.Generate(),
		Action:      rec.Action,
		Description: rec.Description,
		ActorID:     rec.Actor.ID,
		ActorName:   rec.Actor.Name,
		TargetType:  rec.TargetType,
		TargetID:    rec.TargetID,
		Metadata:    datatypes.JSONMap(rec.Metadata),
		CreatedAt:   s.clk.Now(ctx),
	}
	if err := s.repo.Insert(ctx, db, entry); err != nil {
		s.log.Error("append audit record",
			zap.String("action", rec.Action),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) Recent(ctx context.Context, limit int) ([]auditdomain.AuditLog, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = defaultRecentLimit
	}
	return s.repo.Recent(ctx, s.db, limit)
}

// Package server exposes the engine's administrative API. Authorization is
// the caller's concern; the server only carries actor identity through for
// audit attribution.
package server

import (
	"context"
	"errors"
	"net/http"

	auditdomain "github.com/commissionlabs/commissiond/internal/audit/domain"
	"github.com/commissionlabs/commissiond/internal/config"
	ledgerdomain "github.com/commissionlabs/commissiond/internal/ledger/domain"
	plandomain "github.com/commissionlabs/commissiond/internal/plan/domain"
	tierdomain "github.com/commissionlabs/commissiond/internal/tier/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	log       *zap.Logger
	db        *gorm.DB
	tierSvc   tierdomain.Service
	planSvc   plandomain.Service
	ledgerSvc ledgerdomain.Service
	auditSvc  auditdomain.Service
}

type Params struct {
	fx.In

	Log       *zap.Logger
	DB        *gorm.DB
	TierSvc   tierdomain.Service
	PlanSvc   plandomain.Service
	LedgerSvc ledgerdomain.Service
	AuditSvc  auditdomain.Service
}

func New(p Params) *Server {
	return &Server{
		log:       p.Log.Named("server"),
		db:        p.DB,
		tierSvc:   p.TierSvc,
		planSvc:   p.PlanSvc,
		ledgerSvc: p.LedgerSvc,
		auditSvc:  p.AuditSvc,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/readyz", s.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/plans", s.ListPlansForPeriod)
		v1.PUT("/representatives/:id/plan", s.SetIndividualPlan)

		v1.GET("/offices/:id/tiers", s.GetOfficeTiers)
		v1.PUT("/offices/:id/tiers", s.SetOfficeTiers)

		v1.POST("/ledger/generate", s.GenerateLedger)
		v1.GET("/ledger", s.GetLedgerForPeriod)
		v1.PATCH("/ledger/entries/:id", s.UpdateLedgerEntry)

		v1.GET("/audit", s.GetRecentAuditLog)
		v1.GET("/audit/export", s.ExportAuditLog)
	}
}

func NewEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.RegisterRoutes(r)
	return r
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(New),
	fx.Provide(NewEngine),
	fx.Invoke(RunHTTP),
)

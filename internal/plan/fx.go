package plan

import (
	"github.com/commissionlabs/commissiond/internal/plan/repository"
	"github.com/commissionlabs/commissiond/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

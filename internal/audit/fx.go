package audit

import (
	"github.com/commissionlabs/commissiond/internal/audit/repository"
	"github.com/commissionlabs/commissiond/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

package tier

import (
	"github.com/commissionlabs/commissiond/internal/tier/repository"
	"github.com/commissionlabs/commissiond/internal/tier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package orderstats

import (
	"github.com/commissionlabs/commissiond/internal/orderstats/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("orderstats",
	fx.Provide(repository.Provide),
)

package ledger

import (
	"github.com/commissionlabs/commissiond/internal/ledger/repository"
	"github.com/commissionlabs/commissiond/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package account

import (
	"github.com/guardline/guardline/internal/account/repository"
	"github.com/guardline/guardline/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

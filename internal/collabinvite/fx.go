package collabinvite

import (
	"github.com/guardline/guardline/internal/collabinvite/repository"
	"github.com/guardline/guardline/internal/collabinvite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("collabinvite.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

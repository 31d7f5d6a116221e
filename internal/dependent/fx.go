package dependent

import (
	"github.com/guardline/guardline/internal/dependent/repository"
	"github.com/guardline/guardline/internal/dependent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dependent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

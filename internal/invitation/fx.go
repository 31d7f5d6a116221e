package invitation

import (
	"github.com/guardline/guardline/internal/invitation/repository"
	"github.com/guardline/guardline/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

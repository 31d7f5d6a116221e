package relationship

import (
	"github.com/guardline/guardline/internal/relationship/repository"
	"github.com/guardline/guardline/internal/relationship/service"
	"go.uber.org/fx"
)

var Module = fx.Module("relationship.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

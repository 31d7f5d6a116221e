package emergencycontact

import (
	"github.com/guardline/guardline/internal/emergencycontact/domain"
	"github.com/guardline/guardline/internal/emergencycontact/repository"
	"github.com/guardline/guardline/internal/emergencycontact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("emergencycontact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) domain.Syncer { return s }),
)

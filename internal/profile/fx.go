package profile

import (
	"github.com/smallfirm/fakturo/internal/profile/repository"
	"github.com/smallfirm/fakturo/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package recurring

import (
	"github.com/smallfirm/fakturo/internal/recurring/repository"
	"github.com/smallfirm/fakturo/internal/recurring/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recurring.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

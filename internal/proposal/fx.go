package proposal

import (
	"github.com/solobill/solobill/internal/proposal/repository"
	"github.com/solobill/solobill/internal/proposal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("proposal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

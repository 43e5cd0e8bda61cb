package email

import (
	"github.com/solobill/solobill/internal/email/provider"
	"github.com/solobill/solobill/internal/email/repository"
	"github.com/solobill/solobill/internal/email/service"
	"go.uber.org/fx"
)

var Module = fx.Module("email.service",
	fx.Provide(provider.NewFactory),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

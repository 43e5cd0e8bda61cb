package payment

import (
	"github.com/solobill/solobill/internal/payment/repository"
	"github.com/solobill/solobill/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package draft

import (
	"github.com/solobill/solobill/internal/draft/completion"
	"github.com/solobill/solobill/internal/draft/service"
	"go.uber.org/fx"
)

var Module = fx.Module("draft.service",
	fx.Provide(completion.New),
	fx.Provide(service.New),
)

package feestructure

import (
	"github.com/opencampus/tuition/internal/feestructure/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feestructure.service",
	fx.Provide(service.NewService),
)

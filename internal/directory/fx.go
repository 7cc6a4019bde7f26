package directory

import (
	directorydomain "github.com/opencampus/tuition/internal/directory/domain"
	"github.com/opencampus/tuition/internal/directory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("directory.service",
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) directorydomain.StudentDirectory { return s }),
	fx.Provide(func(s *service.Service) directorydomain.ActivityEnrollmentDirectory { return s }),
)

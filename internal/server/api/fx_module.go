package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(NewAuthHandlers),
	fx.Provide(NewCategoryHandlers),
	fx.Provide(NewProductHandlers),
	fx.Provide(NewPostHandlers),
	fx.Provide(NewLeadHandlers),
	fx.Provide(NewPushHandlers),
	fx.Provide(NewUploadHandlers),
	fx.Provide(NewUserHandlers),
	fx.Provide(NewEventsHandlers),
	fx.Provide(NewSitemapHandlers),
	fx.Provide(NewSystemHandlers),
)

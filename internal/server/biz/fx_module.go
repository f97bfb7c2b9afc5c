package biz

import (
	"context"

	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/pkg/pushclient"
)

var Module = fx.Module("biz",
	fx.Provide(NewAuthService),
	fx.Provide(NewCategoryService),
	fx.Provide(NewProductService),
	fx.Provide(NewPostService),
	fx.Provide(NewLeadService),
	fx.Provide(NewPushService),
	fx.Provide(NewUploadService),
	fx.Provide(NewUserService),
	fx.Provide(NewImporterService),
	fx.Provide(NewSitemapService),
	fx.Provide(NewUploadFS),
	fx.Provide(func(client *pushclient.Client) Provider {
		return client
	}),
	fx.Invoke(func(lc fx.Lifecycle, svc *AuthService) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return svc.EnsureBootstrapAdmin(ctx)
			},
		})
	}),
)

package server

import (
	"github.com/gin-contrib/cors"
	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/server/api"
	"github.com/mercatohq/mercato/internal/server/biz"
	"github.com/mercatohq/mercato/internal/server/middleware"
)

type Handlers struct {
	fx.In

	Auth     *api.AuthHandlers
	Category *api.CategoryHandlers
	Product  *api.ProductHandlers
	Post     *api.PostHandlers
	Lead     *api.LeadHandlers
	Push     *api.PushHandlers
	Upload   *api.UploadHandlers
	User     *api.UserHandlers
	Events   *api.EventsHandlers
	Sitemap  *api.SitemapHandlers
	System   *api.SystemHandlers
}

type Services struct {
	fx.In

	AuthService *biz.AuthService
}

func SetupRoutes(server *Server, handlers Handlers, services Services) {
	server.Use(middleware.AccessLog())
	server.Use(middleware.WithRequestID())
	server.Use(middleware.WithVisitorID())
	server.Use(middleware.WithAuth(services.AuthService))

	if server.Config.CORS.Enabled {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = server.Config.CORS.AllowedOrigins
		corsConfig.AllowMethods = server.Config.CORS.AllowedMethods
		corsConfig.AllowHeaders = server.Config.CORS.AllowedHeaders
		corsConfig.ExposeHeaders = server.Config.CORS.ExposedHeaders
		corsConfig.AllowCredentials = server.Config.CORS.AllowCredentials
		corsConfig.MaxAge = server.Config.CORS.MaxAge

		corsHandler := cors.New(corsConfig)
		server.Use(corsHandler)
		server.OPTIONS("*any", corsHandler)
	}

	timeout := middleware.WithTimeout(server.Config.RequestTimeout)

	publicGroup := server.Group("", timeout)
	{
		publicGroup.GET("/health", handlers.System.Health)
		publicGroup.GET("/sitemap.xml", handlers.Sitemap.Sitemap)
		publicGroup.GET("/events", handlers.Events.Stream)

		publicGroup.POST("/auth/signin", handlers.Auth.SignIn)

		publicGroup.GET("/categories", handlers.Category.Tree)
		publicGroup.GET("/categories/:slug", handlers.Category.GetBySlug)

		publicGroup.GET("/products", handlers.Product.List)
		publicGroup.GET("/products/:slug", handlers.Product.GetBySlug)

		publicGroup.GET("/posts", handlers.Post.List)
		publicGroup.GET("/posts/:slug", handlers.Post.GetBySlug)
		publicGroup.POST("/posts/:slug/comments",
			middleware.RequireCapability(authz.CapabilityContentComment), handlers.Post.AddComment)
		publicGroup.POST("/posts/:slug/likes",
			middleware.RequireCapability(authz.CapabilityContentComment), handlers.Post.Like)

		publicGroup.POST("/leads",
			middleware.RequireCapability(authz.CapabilityLeadsWrite), handlers.Lead.CreateLead)
		publicGroup.POST("/visits",
			middleware.RequireCapability(authz.CapabilityLeadsWrite), handlers.Lead.RecordVisit)

		publicGroup.POST("/push/subscriptions",
			middleware.RequireCapability(authz.CapabilityPushSubscribe), handlers.Push.Subscribe)
	}

	adminGroup := server.Group("/admin", timeout)
	{
		catalogGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityCatalogWrite))
		{
			catalogGroup.POST("/categories", handlers.Category.Create)
			catalogGroup.PATCH("/categories/:id", handlers.Category.Update)
			catalogGroup.DELETE("/categories/:id", handlers.Category.Delete)

			catalogGroup.POST("/products", handlers.Product.Create)
			catalogGroup.PATCH("/products/:id", handlers.Product.Update)
			catalogGroup.DELETE("/products/:id", handlers.Product.Delete)
			catalogGroup.POST("/products/import", handlers.Product.Import)
		}

		contentGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityContentWrite))
		{
			contentGroup.POST("/posts", handlers.Post.Create)
			contentGroup.PATCH("/posts/:id", handlers.Post.Update)
			contentGroup.PUT("/posts/:id/published", handlers.Post.SetPublished)
			contentGroup.DELETE("/posts/:id", handlers.Post.Delete)
		}

		moderateGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityContentModerate))
		{
			moderateGroup.GET("/comments/pending", handlers.Post.PendingComments)
			moderateGroup.PUT("/comments/:id/approve", handlers.Post.ApproveComment)
			moderateGroup.DELETE("/comments/:id", handlers.Post.DeleteComment)
		}

		leadsGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityLeadsRead))
		{
			leadsGroup.GET("/leads", handlers.Lead.ListLeads)
			leadsGroup.GET("/visits", handlers.Lead.ListVisits)
		}

		mediaGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityMediaWrite))
		{
			mediaGroup.POST("/uploads", handlers.Upload.Upload)
			mediaGroup.GET("/uploads", handlers.Upload.List)
		}

		pushGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityPushSend))
		{
			pushGroup.GET("/push/subscriptions", handlers.Push.ListSubscriptions)
			pushGroup.POST("/push/send", handlers.Push.Send)
		}

		usersGroup := adminGroup.Group("", middleware.RequireCapability(authz.CapabilityUsersManage))
		{
			usersGroup.POST("/users", handlers.User.Create)
			usersGroup.GET("/users", handlers.User.List)
		}
	}
}

package router

import (
	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/container"
	handlers "github.com/devblog-app/devblog-api/internal/interface/http"
	"github.com/devblog-app/devblog-api/internal/router/modules"
)

// InitModules builds the feature modules from the container singletons and
// registers them with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	log := container.GetLogger()
	gw := container.GetGateway()
	auth := container.GetAuthService()

	feedSvc := application.NewFeedService(gw.Data, log)

	postSvc := application.NewPostService(gw.Data, log)
	postSvc.ES = container.GetES()
	postSvc.ESIndex = cfg.ESPostsIndex
	postSvc.Pub = container.GetRabbitPub()
	postSvc.GCS = container.GetGCS()
	postSvc.GCSBucket = cfg.GCSBucket

	authHandler := handlers.NewAuthHandler(auth, container.GetCookies(), log)
	feedHandler := handlers.NewFeedHandler(feedSvc, auth, log)
	postHandler := handlers.NewPostHandler(postSvc, auth, container.GetRedis(), log)

	r.Add(modules.NewAuthModule(authHandler, auth))
	r.Add(modules.NewBlogModule(feedHandler, postHandler, auth))
}

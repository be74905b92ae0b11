package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/config"
	"github.com/devblog-app/devblog-api/internal/application"
	"github.com/devblog-app/devblog-api/internal/gateway"
	"github.com/devblog-app/devblog-api/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Everything here is set explicitly from main during startup; nothing is
// created at package load.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	gcsClient   *storage.Client

	gatewayClient *gateway.Client
	cookieManager *helpers.Manager
	authService   *application.AuthService

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }
func SetGCS(s *storage.Client)   { gcsClient = s }
func GetGCS() *storage.Client    { return gcsClient }

func SetGateway(c *gateway.Client)              { gatewayClient = c }
func GetGateway() *gateway.Client               { return gatewayClient }
func SetCookies(m *helpers.Manager)             { cookieManager = m }
func GetCookies() *helpers.Manager              { return cookieManager }
func SetAuthService(a *application.AuthService) { authService = a }
func GetAuthService() *application.AuthService  { return authService }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }

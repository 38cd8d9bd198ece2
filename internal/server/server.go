package server

import (
	"github.com/Antorou/Togesong/internal/auth"
	"github.com/Antorou/Togesong/internal/catalog"
	"github.com/Antorou/Togesong/internal/config"
	"github.com/Antorou/Togesong/internal/post"
	"github.com/Antorou/Togesong/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Posts   *post.Service
	Catalog *catalog.Client
	Stream  *stream.Hub
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Posts:   post.NewService(db),
		Catalog: catalog.NewClient(cfg, redisClient),
		Stream:  stream.NewHub(redisClient),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	post.RegisterRoutes(s.App.Group("/posts"), s.Posts, jwtMiddleware, s.Stream)
	catalog.RegisterRoutes(s.App.Group("/catalog"), s.Catalog)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

package post

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FeedNotifier receives successfully created posts for live fan-out.
type FeedNotifier interface {
	NotifyPost(Post)
}

type createRequest struct {
	TrackID    string `json:"track_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	CoverURL   string `json:"cover_url"`
	PreviewURL string `json:"preview_url"`
}

type commentRequest struct {
	Text string `json:"text"`
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler, notifier FeedNotifier) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req createRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userName, _ := c.Locals("user_name").(string)
		if req.TrackID == "" || req.Title == "" || req.Artist == "" || req.Album == "" || userName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "track_id, title, artist, album and user name are required")
		}

		avatar, _ := c.Locals("user_avatar").(string)
		created, err := svc.Create(c.Context(), Post{
			UserID:        c.Locals("user_id").(string),
			UserName:      userName,
			UserAvatarURL: avatar,
			TrackID:       req.TrackID,
			Title:         req.Title,
			Artist:        req.Artist,
			Album:         req.Album,
			CoverURL:      req.CoverURL,
			PreviewURL:    req.PreviewURL,
		})
		if err != nil {
			return errorResponse(err)
		}
		if notifier != nil {
			notifier.NotifyPost(created)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "track posted", "post": created})
	})

	r.Get("/feed", func(c *fiber.Ctx) error {
		feed, err := svc.Feed(c.Context())
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(feed)
	})

	r.Get("/user/:userId", func(c *fiber.Ctx) error {
		posts, err := svc.ByUser(c.Context(), c.Params("userId"))
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(posts)
	})

	r.Post("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		count, err := svc.Like(c.Context(), c.Params("id"), c.Locals("user_id").(string))
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"message": "post liked", "likes_count": count})
	})

	r.Post("/:id/unlike", authMiddleware, func(c *fiber.Ctx) error {
		count, err := svc.Unlike(c.Context(), c.Params("id"), c.Locals("user_id").(string))
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(fiber.Map{"message": "post unliked", "likes_count": count})
	})

	r.Post("/:id/comments", authMiddleware, func(c *fiber.Ctx) error {
		var req commentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		userName, _ := c.Locals("user_name").(string)
		avatar, _ := c.Locals("user_avatar").(string)
		comment, err := svc.AddComment(c.Context(), Comment{
			PostID:        c.Params("id"),
			UserID:        c.Locals("user_id").(string),
			UserName:      userName,
			UserAvatarURL: avatar,
			Text:          req.Text,
		})
		if err != nil {
			return errorResponse(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "comment added", "comment": comment})
	})

	r.Get("/:id/comments", func(c *fiber.Ctx) error {
		comments, err := svc.Comments(c.Context(), c.Params("id"))
		if err != nil {
			return errorResponse(err)
		}
		return c.JSON(comments)
	})
}

func errorResponse(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrRateLimited):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyLiked), errors.Is(err, ErrNotLiked),
		errors.Is(err, ErrEmptyComment), errors.Is(err, ErrCommentTooLong), errors.Is(err, ErrMissingAuthor):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}

package post

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/murmurhq/murmur/internal/media"
)

// Handler exposes post HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds a post HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Response is the wire shape of a post.
type Response struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Likes     []string  `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewResponse converts a post to its wire shape.
func NewResponse(p Post) Response {
	likes := p.Likes
	if likes == nil {
		likes = []string{}
	}
	return Response{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Likes:     likes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// NewListResponse converts a slice of posts to wire shapes.
func NewListResponse(posts []Post) []Response {
	out := make([]Response, 0, len(posts))
	for _, p := range posts {
		out = append(out, NewResponse(p))
	}
	return out
}

// Create publishes a post from a multipart form (title, content, optional image).
func (h *Handler) Create(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	image, err := formFileBytes(c, "image")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Create(c.UserContext(), CreateInput{
		AuthorID: callerID,
		Title:    c.FormValue("title"),
		Content:  c.FormValue("content"),
		Image:    image,
	})
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusCreated).JSON(NewResponse(p))
}

// List returns every post, newest first.
func (h *Handler) List(c *fiber.Ctx) error {
	posts, err := h.svc.List(c.UserContext())
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"posts": NewListResponse(posts)})
}

// Mine returns the caller's posts.
func (h *Handler) Mine(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	posts, err := h.svc.ListByAuthor(c.UserContext(), callerID)
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"posts": NewListResponse(posts)})
}

// ByAuthor returns a given user's posts.
func (h *Handler) ByAuthor(c *fiber.Ctx) error {
	posts, err := h.svc.ListByAuthor(c.UserContext(), c.Params("userID"))
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"posts": NewListResponse(posts)})
}

// Update edits the caller's post.
func (h *Handler) Update(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	image, err := formFileBytes(c, "image")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Update(c.UserContext(), c.Params("id"), callerID, UpdateInput{
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		Image:   image,
	})
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusOK).JSON(NewResponse(p))
}

// Delete removes the caller's post.
func (h *Handler) Delete(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	if err := h.svc.Delete(c.UserContext(), c.Params("id"), callerID); err != nil {
		return postError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "deleted"})
}

// Like toggles the caller's like on a post.
func (h *Handler) Like(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	liked, err := h.svc.ToggleLike(c.UserContext(), c.Params("id"), callerID)
	if err != nil {
		return postError(err)
	}
	status := "unliked"
	if liked {
		status = "liked"
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": status})
}

type commentRequest struct {
	Content string `json:"content"`
}

// Comment attaches a comment to a post.
func (h *Handler) Comment(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	comment, err := h.svc.AddComment(c.UserContext(), c.Params("id"), callerID, req.Content)
	if err != nil {
		return postError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
		"content":    comment.Content,
		"created_at": comment.CreatedAt,
	})
}

// Comments lists a post's comments.
func (h *Handler) Comments(c *fiber.Ctx) error {
	comments, err := h.svc.ListComments(c.UserContext(), c.Params("id"))
	if err != nil {
		return postError(err)
	}
	out := make([]fiber.Map, 0, len(comments))
	for _, comment := range comments {
		out = append(out, fiber.Map{
			"id":         comment.ID,
			"post_id":    comment.PostID,
			"author_id":  comment.AuthorID,
			"content":    comment.Content,
			"created_at": comment.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"comments": out})
}

func formFileBytes(c *fiber.Ctx, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func postError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, media.ErrUploadFailed):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
}

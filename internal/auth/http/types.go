package http

import "github.com/routelens/routelens-backend/internal/users"

type Handler struct {
	users *users.Repo
}

func New(userRepo *users.Repo) *Handler {
	return &Handler{
		users: userRepo,
	}
}

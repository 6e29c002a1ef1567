package handler

import (
	"errors"
	"log"
	"net/http"

	"msgboard/internal/api/middleware"
	"msgboard/internal/app/service"
	"msgboard/internal/common"
	"msgboard/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type BoardHandler struct {
	boardService *service.BoardService
}

func NewBoardHandler(boardService *service.BoardService) *BoardHandler {
	return &BoardHandler{boardService: boardService}
}

func (h *BoardHandler) RegisterRoutes(r chi.Router, enforceCSRF bool) {
	r.Get("/", h.home)
	r.Get("/messages/list", h.listMessages)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireUser)
		if enforceCSRF {
			authed.Use(middleware.VerifyCSRF)
		}
		authed.Post("/messages", h.postMessage)
		authed.Post("/messages/delete", h.deleteMessage)
	})
}

func (h *BoardHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.boardService.List(r.Context())
	if err != nil {
		log.Printf("list messages failed: %v", err)
		common.RespondWithError(w, common.HTTPStatusFromError(err), "failed to list messages")
		return
	}

	type MessageListResponse struct {
		Messages []model.Message `json:"messages"`
	}
	common.RespondWithJSON(w, http.StatusOK, MessageListResponse{Messages: messages})
}

func (h *BoardHandler) postMessage(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.GetCurrentUserFromContext(r.Context())

	err := h.boardService.Post(r.Context(), current, r.FormValue("message"))
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		if errors.Is(err, common.ErrValidation) {
			common.RespondWithText(w, http.StatusOK, "invalid message")
			return
		}
		log.Printf("post message failed: %v", err)
		common.RespondWithText(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// deleteMessage answers an ownership mismatch and a missing or failed
// delete with two distinct generic bodies, neither of which says why.
func (h *BoardHandler) deleteMessage(w http.ResponseWriter, r *http.Request) {
	current, _ := middleware.GetCurrentUserFromContext(r.Context())

	err := h.boardService.Delete(r.Context(), current, r.FormValue("key"))
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		if errors.Is(err, common.ErrForbidden) {
			common.RespondWithText(w, http.StatusOK, "wrong credentials")
			return
		}
		log.Printf("delete message failed: %v", err)
		common.RespondWithText(w, http.StatusOK, "error delete")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/respond"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

// Handler implements the /admin HTTP endpoints.
type Handler struct {
	service  *Service
	sessions *session.Manager
	renderer *web.Renderer
}

// NewHandler constructs a new [Handler] with its collaborators.
func NewHandler(service *Service, sessions *session.Manager, renderer *web.Renderer) *Handler {
	return &Handler{service: service, sessions: sessions, renderer: renderer}
}

// Routes returns a [chi.Router] with the /admin subtree. The router
// mounts it behind the administrator gate.
//
// # Endpoints
//   - GET  /                                     : Dashboard.
//   - POST /articles/{articleID}/hide            : Pull an article.
//   - POST /articles/{articleID}/unhide          : Restore an article.
//   - POST /users/{userID}/block                 : Block a member.
//   - POST /users/{userID}/unblock               : Unblock a member.
//   - POST /complaints/{complaintID}/resolve     : Close as handled.
//   - POST /complaints/{complaintID}/dismiss     : Close without action.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.dashboard)
	router.Post("/articles/{articleID}/hide", handler.hideArticle)
	router.Post("/articles/{articleID}/unhide", handler.unhideArticle)
	router.Post("/users/{userID}/block", handler.blockUser)
	router.Post("/users/{userID}/unblock", handler.unblockUser)
	router.Post("/complaints/{complaintID}/resolve", handler.resolveComplaint)
	router.Post("/complaints/{complaintID}/dismiss", handler.dismissComplaint)

	return router
}

func (handler *Handler) page(request *http.Request, title string, data any) web.Page {
	pageData := web.Page{Title: title, Values: map[string]string{}, Data: data}

	if current := session.FromContext(request.Context()); current != nil {
		pageData.User = current.User
		if len(current.Flashes) > 0 {
			pageData.Flashes = current.PopFlashes()
			_ = handler.sessions.Save(request.Context(), current)
		}
	}

	return pageData
}

// finish answers a moderation POST: JSON clients get a bare result,
// browsers get a flash and land back on the dashboard.
func (handler *Handler) finish(writer http.ResponseWriter, request *http.Request, err error, successText string) {
	if respond.WantsJSON(request) {
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.OK(writer, map[string]any{"status": "ok"})
		return
	}

	ctx := request.Context()
	current := session.FromContext(ctx)

	if err != nil {
		appError := apperr.As(err)
		if appError == nil {
			appError = apperr.Internal(err)
		}
		if current != nil {
			current.AddFlash(session.FlashError, appError.Message)
			_ = handler.sessions.Save(ctx, current)
		}
	} else if current != nil {
		current.AddFlash(session.FlashSuccess, successText)
		_ = handler.sessions.Save(ctx, current)
	}

	http.Redirect(writer, request, constants.RouteAdmin, http.StatusSeeOther)
}

func (handler *Handler) dashboard(writer http.ResponseWriter, request *http.Request) {
	overview, err := handler.service.Overview(request.Context())
	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		handler.renderer.Render(writer, http.StatusInternalServerError, "error",
			handler.page(request, "Error", "An unexpected error occurred."))
		return
	}

	if respond.WantsJSON(request) {
		respond.OK(writer, overview)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "dashboard",
		handler.page(request, "Dashboard", overview))
}

func (handler *Handler) hideArticle(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.HideArticle(request.Context(), current, chi.URLParam(request, "articleID"))
	handler.finish(writer, request, err, "Article hidden.")
}

func (handler *Handler) unhideArticle(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.UnhideArticle(request.Context(), current, chi.URLParam(request, "articleID"))
	handler.finish(writer, request, err, "Article restored.")
}

func (handler *Handler) blockUser(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.BlockUser(request.Context(), current, chi.URLParam(request, "userID"))
	handler.finish(writer, request, err, "User blocked.")
}

func (handler *Handler) unblockUser(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.UnblockUser(request.Context(), current, chi.URLParam(request, "userID"))
	handler.finish(writer, request, err, "User unblocked.")
}

func (handler *Handler) resolveComplaint(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.ResolveComplaint(request.Context(), current, chi.URLParam(request, "complaintID"))
	handler.finish(writer, request, err, "Complaint resolved.")
}

func (handler *Handler) dismissComplaint(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	err := handler.service.DismissComplaint(request.Context(), current, chi.URLParam(request, "complaintID"))
	handler.finish(writer, request, err, "Complaint dismissed.")
}

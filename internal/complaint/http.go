// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package complaint

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/respond"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

// Handler implements the member-facing complaint endpoints. Triage lives
// in the admin area, not here.
type Handler struct {
	service  *Service
	sessions *session.Manager
	renderer *web.Renderer
}

// NewHandler constructs a new [Handler] with its collaborators.
func NewHandler(service *Service, sessions *session.Manager, renderer *web.Renderer) *Handler {
	return &Handler{service: service, sessions: sessions, renderer: renderer}
}

// Routes returns a [chi.Router] with the /complaints subtree.
//
// # Endpoints
//   - GET  /     : The member's own complaints.
//   - GET  /new  : Filing form; ?article= pre-fills the reference.
//   - POST /     : File a complaint.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/new", handler.newForm)
	router.Post("/", handler.create)

	return router
}

func (handler *Handler) page(request *http.Request, title string, errs []string, values map[string]string, data any) web.Page {
	if values == nil {
		values = map[string]string{}
	}
	pageData := web.Page{Title: title, Errors: errs, Values: values, Data: data}

	if current := session.FromContext(request.Context()); current != nil {
		pageData.User = current.User
		if len(current.Flashes) > 0 {
			pageData.Flashes = current.PopFlashes()
			_ = handler.sessions.Save(request.Context(), current)
		}
	}

	return pageData
}

func (handler *Handler) flashRedirect(writer http.ResponseWriter, request *http.Request, kind, text, target string) {
	ctx := request.Context()
	if current, err := handler.sessions.Ensure(ctx, writer, session.FromContext(ctx)); err == nil {
		current.AddFlash(kind, text)
		_ = handler.sessions.Save(ctx, current)
	}
	http.Redirect(writer, request, target, http.StatusSeeOther)
}

// listData is the view model for the member's complaint page.
type listData struct {
	Complaints []*Complaint
}

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())

	complaints, err := handler.service.ListOwn(request.Context(), current)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if respond.WantsJSON(request) {
		respond.OK(writer, map[string]any{"complaints": complaints})
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "complaints",
		handler.page(request, "Your complaints", nil, nil, listData{Complaints: complaints}))
}

func (handler *Handler) newForm(writer http.ResponseWriter, request *http.Request) {
	values := map[string]string{
		"article_id": request.URL.Query().Get("article"),
	}
	handler.renderer.Render(writer, http.StatusOK, "complaint_form",
		handler.page(request, "File a complaint", nil, values, nil))
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())

	_ = request.ParseForm()
	input := Input{
		ArticleID: request.PostFormValue("article_id"),
		Subject:   request.PostFormValue("subject"),
		Body:      request.PostFormValue("body"),
	}

	filed, err := handler.service.File(request.Context(), current, input)
	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}

		appError := apperr.As(err)
		if appError == nil {
			appError = apperr.Internal(err)
		}
		values := map[string]string{
			"article_id": input.ArticleID, "subject": input.Subject, "body": input.Body,
		}
		handler.renderer.Render(writer, appError.HTTPStatus, "complaint_form",
			handler.page(request, "File a complaint", appError.Messages(), values, nil))
		return
	}

	if respond.WantsJSON(request) {
		respond.Created(writer, filed)
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess,
		"Your complaint has been filed. A moderator will review it.", "/complaints")
}

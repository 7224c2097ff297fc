// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package article

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/respond"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
	"github.com/inkpress/inkpress/pkg/pagination"
)

// Handler implements the publishing HTTP endpoints. The router mounts it
// behind the authentication gate; every request here carries a session.
type Handler struct {
	service  *Service
	sessions *session.Manager
	renderer *web.Renderer
}

// NewHandler constructs a new [Handler] with its collaborators.
func NewHandler(service *Service, sessions *session.Manager, renderer *web.Renderer) *Handler {
	return &Handler{service: service, sessions: sessions, renderer: renderer}
}

// Routes returns a [chi.Router] with the /articles subtree.
//
// # Endpoints
//   - GET  /                    : List visible articles.
//   - GET  /new                 : Authoring form.
//   - POST /                    : Create (multipart, optional media).
//   - GET  /{articleID}         : Read one article.
//   - GET  /{articleID}/edit    : Edit form.
//   - POST /{articleID}         : Update (browser form).
//   - PUT  /{articleID}         : Update (machine clients).
//   - POST /{articleID}/delete  : Delete (browser form).
//   - DELETE /{articleID}       : Delete (machine clients).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.list)
	router.Get("/new", handler.newForm)
	router.Post("/", handler.create)
	router.Get("/{articleID}", handler.show)
	router.Get("/{articleID}/edit", handler.editForm)
	router.Post("/{articleID}", handler.update)
	router.Put("/{articleID}", handler.update)
	router.Post("/{articleID}/delete", handler.delete)
	router.Delete("/{articleID}", handler.delete)

	return router
}

// # Shared Helpers

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

// renderError maps a service error onto the browser surface: not-found
// gets the error page, everything else re-renders the given form view.
func (handler *Handler) renderError(writer http.ResponseWriter, request *http.Request, err error, view, title string, values map[string]string) {
	if respond.WantsJSON(request) {
		respond.Error(writer, request, err)
		return
	}

	appError := apperr.As(err)
	if appError == nil {
		appError = apperr.Internal(err)
	}

	if appError.Code == "NOT_FOUND" {
		handler.renderer.Render(writer, http.StatusNotFound, "error",
			handler.page(request, "Not found", nil, nil, appError.Message))
		return
	}

	handler.renderer.Render(writer, appError.HTTPStatus, view,
		handler.page(request, title, appError.Messages(), values, nil))
}

// formInput reads the article fields from a multipart or urlencoded body.
func formInput(request *http.Request) Input {
	// ParseMultipartForm falls through to ParseForm for urlencoded bodies.
	_ = request.ParseMultipartForm(maxMediaBytes + (1 << 20))

	return Input{
		Title:      request.PostFormValue("title"),
		Body:       request.PostFormValue("body"),
		Visibility: request.PostFormValue("visibility"),
	}
}

// attachUploaded stores the optional "media" file field against the article.
func (handler *Handler) attachUploaded(request *http.Request, articleID string) error {
	file, header, err := request.FormFile("media")
	if err != nil {
		if err == http.ErrMissingFile || request.MultipartForm == nil {
			return nil
		}
		return nil
	}
	defer func() { _ = file.Close() }()

	current := session.FromContext(request.Context())
	_, err = handler.service.AttachMedia(request.Context(), current,
		articleID, header.Filename, header.Header.Get("Content-Type"), file)
	return err
}

// listData is the view model for the listing page.
type listData struct {
	Articles []*Article
	Meta     pagination.Meta
}

// showData is the view model for the article page.
type showData struct {
	Article *Article
	Media   []*Media
	CanEdit bool
}

// # Reading

func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	page := pagination.FromRequest(request)

	articles, meta, err := handler.service.List(request.Context(), current, page)
	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		handler.renderer.Render(writer, http.StatusInternalServerError, "error",
			handler.page(request, "Error", nil, nil, "An unexpected error occurred."))
		return
	}

	if respond.WantsJSON(request) {
		respond.Paginated(writer, articles, meta)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "articles",
		handler.page(request, "Articles", nil, nil, listData{Articles: articles, Meta: meta}))
}

func (handler *Handler) show(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	articleID := chi.URLParam(request, "articleID")

	found, mediaList, err := handler.service.Get(request.Context(), current, articleID)
	if err != nil {
		handler.renderError(writer, request, err, "error", "Not found", nil)
		return
	}

	if respond.WantsJSON(request) {
		respond.OK(writer, map[string]any{"article": found, "media": mediaList})
		return
	}

	canEdit := authzCanEdit(found, current)
	handler.renderer.Render(writer, http.StatusOK, "article",
		handler.page(request, found.Title, nil, nil, showData{Article: found, Media: mediaList, CanEdit: canEdit}))
}

// authzCanEdit mirrors the mutation ownership rule for view affordances.
func authzCanEdit(found *Article, current *session.Session) bool {
	if !current.IsAuthenticated() {
		return false
	}
	if current.IsAdmin() || found.AuthorID == nil {
		return true
	}
	return found.IsOwnedBy(current.User.UserID)
}

// # Authoring

func (handler *Handler) newForm(writer http.ResponseWriter, request *http.Request) {
	values := map[string]string{"action": "/articles", "visibility": string(VisibilityPublic)}
	handler.renderer.Render(writer, http.StatusOK, "article_form",
		handler.page(request, "Write an article", nil, values, nil))
}

func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	input := formInput(request)

	created, err := handler.service.Create(request.Context(), current, input)
	if err != nil {
		values := map[string]string{
			"action": "/articles", "title": input.Title, "body": input.Body, "visibility": input.Visibility,
		}
		handler.renderError(writer, request, err, "article_form", "Write an article", values)
		return
	}

	if err := handler.attachUploaded(request, created.ID); err != nil {
		// The article itself is saved; surface the upload failure only.
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		handler.flashRedirect(writer, request, session.FlashError,
			"Your article was saved, but the file upload failed.", "/articles/"+created.ID)
		return
	}

	if respond.WantsJSON(request) {
		respond.Created(writer, created)
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess, "Article published.", "/articles/"+created.ID)
}

func (handler *Handler) editForm(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	articleID := chi.URLParam(request, "articleID")

	found, _, err := handler.service.Get(request.Context(), current, articleID)
	if err != nil {
		handler.renderError(writer, request, err, "error", "Not found", nil)
		return
	}
	if !authzCanEdit(found, current) {
		handler.renderError(writer, request, apperr.NotFound("Article"), "error", "Not found", nil)
		return
	}

	values := map[string]string{
		"action":     "/articles/" + found.ID,
		"title":      found.Title,
		"body":       found.Body,
		"visibility": string(found.Visibility),
	}
	handler.renderer.Render(writer, http.StatusOK, "article_form",
		handler.page(request, "Edit article", nil, values, nil))
}

func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	articleID := chi.URLParam(request, "articleID")
	input := formInput(request)

	updated, err := handler.service.Update(request.Context(), current, articleID, input)
	if err != nil {
		values := map[string]string{
			"action": "/articles/" + articleID, "title": input.Title, "body": input.Body, "visibility": input.Visibility,
		}
		handler.renderError(writer, request, err, "article_form", "Edit article", values)
		return
	}

	if err := handler.attachUploaded(request, updated.ID); err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		handler.flashRedirect(writer, request, session.FlashError,
			"Your changes were saved, but the file upload failed.", "/articles/"+updated.ID)
		return
	}

	if respond.WantsJSON(request) {
		respond.OK(writer, updated)
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess, "Article updated.", "/articles/"+updated.ID)
}

func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	current := session.FromContext(request.Context())
	articleID := chi.URLParam(request, "articleID")

	if err := handler.service.Delete(request.Context(), current, articleID); err != nil {
		handler.renderError(writer, request, err, "error", "Not found", nil)
		return
	}

	if respond.WantsJSON(request) {
		respond.NoContent(writer)
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess, "Article deleted.", "/articles")
}

// # Uploads

// ServeUpload streams a stored media object. Mounted at /uploads/* outside
// the member gate so admin review and embedded images both work.
func (handler *Handler) ServeUpload(writer http.ResponseWriter, request *http.Request) {
	key := chi.URLParam(request, "*")

	reader, contentType, err := handler.service.OpenMedia(request.Context(), key)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer func() { _ = reader.Close() }()

	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = io.Copy(writer, reader)
}

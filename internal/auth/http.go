// Copyright (c) 2026 Inkpress. All rights reserved.
// Author: dev@inkpress.app

package auth

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/inkpress/internal/platform/apperr"
	"github.com/inkpress/inkpress/internal/platform/constants"
	"github.com/inkpress/inkpress/internal/platform/respond"
	"github.com/inkpress/inkpress/internal/session"
	"github.com/inkpress/inkpress/internal/web"
)

// Handler implements the account lifecycle HTTP endpoints.
//
// # Negotiation
//
// Every endpoint serves two representations: machine clients (Accept:
// application/json) get the standard envelope, browsers get redirects with
// flash notices or re-rendered forms carrying the error list.
type Handler struct {
	service  *Service
	sessions *session.Manager
	renderer *web.Renderer
}

// NewHandler constructs a new [Handler] with its collaborators.
func NewHandler(service *Service, sessions *session.Manager, renderer *web.Renderer) *Handler {
	return &Handler{service: service, sessions: sessions, renderer: renderer}
}

// Routes returns a [chi.Router] with the /auth subtree.
//
// # Endpoints
//   - GET/POST /signup          : Start registration.
//   - POST     /resend-code     : Re-deliver the verification code.
//   - GET/POST /verify          : Verify code + set first password.
//   - GET/POST /login           : Member sign-in.
//   - GET/POST /admin/login     : Administrator sign-in.
//   - GET/POST /logout          : Tear down the session.
//   - GET/POST /forgot-password : Request a reset link.
//   - GET/POST /reset-password  : Consume the reset link.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/signup", handler.getSignup)
	router.Post("/signup", handler.postSignup)
	router.Post("/resend-code", handler.postResendCode)
	router.Get("/verify", handler.getVerify)
	router.Post("/verify", handler.postVerify)
	router.Get("/login", handler.getLogin)
	router.Post("/login", handler.postLogin)
	router.Get("/admin/login", handler.getAdminLogin)
	router.Post("/admin/login", handler.postAdminLogin)
	router.Get("/logout", handler.logout)
	router.Post("/logout", handler.logout)
	router.Get("/forgot-password", handler.getForgotPassword)
	router.Post("/forgot-password", handler.postForgotPassword)
	router.Get("/reset-password", handler.getResetPassword)
	router.Post("/reset-password", handler.postResetPassword)

	return router
}

// # Shared Helpers

// destinationFor picks the landing area for a freshly signed-in user.
func destinationFor(user *User) string {
	if user.IsAdmin {
		return constants.RouteAdmin
	}
	return constants.RouteArticles
}

// page assembles the shared view data, consuming any queued flashes.
func (handler *Handler) page(request *http.Request, title string, errs []string, values map[string]string) web.Page {
	if values == nil {
		values = map[string]string{}
	}
	pageData := web.Page{Title: title, Errors: errs, Values: values}

	if current := session.FromContext(request.Context()); current != nil {
		pageData.User = current.User
		if len(current.Flashes) > 0 {
			pageData.Flashes = current.PopFlashes()
			_ = handler.sessions.Save(request.Context(), current)
		}
	}

	return pageData
}

// flashRedirect queues a one-time notice and redirects the browser.
func (handler *Handler) flashRedirect(writer http.ResponseWriter, request *http.Request, kind, text, target string) {
	ctx := request.Context()
	current, err := handler.sessions.Ensure(ctx, writer, session.FromContext(ctx))
	if err == nil {
		current.AddFlash(kind, text)
		_ = handler.sessions.Save(ctx, current)
	}
	http.Redirect(writer, request, target, http.StatusSeeOther)
}

// signIn replaces whatever session the request carried with a fresh
// authenticated one and routes the user to their landing area, honoring a
// stored post-challenge redirect target.
func (handler *Handler) signIn(writer http.ResponseWriter, request *http.Request, user *User, keepLoggedIn bool, notice string) {
	ctx := request.Context()

	target := destinationFor(user)
	if old := session.FromContext(ctx); old != nil {
		if old.RedirectTo != "" {
			target = old.RedirectTo
		}
		_, _ = handler.sessions.Destroy(ctx, writer, old)
	}

	established, err := handler.sessions.Establish(ctx, writer, session.Identity{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}, keepLoggedIn, "")
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if notice != "" {
		established.AddFlash(session.FlashSuccess, notice)
		_ = handler.sessions.Save(ctx, established)
	}

	if respond.WantsJSON(request) {
		respond.OK(writer, map[string]any{
			"user":        user,
			"redirect_to": target,
		})
		return
	}
	http.Redirect(writer, request, target, http.StatusSeeOther)
}

// verifyURL builds the verify form URL pre-filled with the email.
func verifyURL(email string) string {
	return constants.RouteVerify + "?email=" + url.QueryEscape(email)
}

// # Signup & Verification

func (handler *Handler) getSignup(writer http.ResponseWriter, request *http.Request) {
	if current := session.FromContext(request.Context()); current.IsAuthenticated() {
		http.Redirect(writer, request, constants.RouteArticles, http.StatusSeeOther)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "signup", handler.page(request, "Sign up", nil, nil))
}

func (handler *Handler) postSignup(writer http.ResponseWriter, request *http.Request) {
	email := request.PostFormValue("email")

	user, err := handler.service.Signup(request.Context(), email)

	if err != nil {
		appError := apperr.As(err)

		// Mail delivery failed after the account and code were persisted:
		// move the user forward to the verify step and let them resend.
		if user != nil && appError != nil && appError.Code == "DOWNSTREAM_ERROR" {
			if respond.WantsJSON(request) {
				respond.Error(writer, request, err)
				return
			}
			handler.flashRedirect(writer, request, session.FlashError, appError.Message, verifyURL(user.Email))
			return
		}

		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		status := http.StatusBadRequest
		messages := []string{"An unexpected error occurred."}
		if appError != nil {
			status = appError.HTTPStatus
			messages = appError.Messages()
		}
		handler.renderer.Render(writer, status, "signup",
			handler.page(request, "Sign up", messages, map[string]string{"email": email}))
		return
	}

	if respond.WantsJSON(request) {
		respond.Created(writer, map[string]any{
			"email":   user.Email,
			"message": "We've sent a verification code to your email.",
		})
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess,
		"We've sent a verification code to your email.", verifyURL(user.Email))
}

func (handler *Handler) postResendCode(writer http.ResponseWriter, request *http.Request) {
	email := request.PostFormValue("email")

	user, err := handler.service.ResendCode(request.Context(), email)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		switch {
		case appError != nil && appError.Code == "NOT_FOUND":
			// No pending signup: back to the earlier step of the flow.
			handler.flashRedirect(writer, request, session.FlashError,
				"We couldn't find a signup for that email. Please sign up first.", constants.RouteSignup)
		case appError != nil && appError.Code == "CONFLICT":
			handler.flashRedirect(writer, request, session.FlashInfo, appError.Message, constants.RouteLogin)
		case appError != nil && appError.Code == "DOWNSTREAM_ERROR":
			handler.flashRedirect(writer, request, session.FlashError, appError.Message, verifyURL(email))
		default:
			handler.flashRedirect(writer, request, session.FlashError,
				"An unexpected error occurred.", verifyURL(email))
		}
		return
	}

	if respond.WantsJSON(request) {
		respond.Message(writer, "We've sent a new verification code to your email.")
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess,
		"We've sent a new verification code to your email.", verifyURL(user.Email))
}

func (handler *Handler) getVerify(writer http.ResponseWriter, request *http.Request) {
	values := map[string]string{"email": request.URL.Query().Get("email")}
	handler.renderer.Render(writer, http.StatusOK, "verify",
		handler.page(request, "Verify your email", nil, values))
}

func (handler *Handler) postVerify(writer http.ResponseWriter, request *http.Request) {
	input := VerifyInput{
		Email:           request.PostFormValue("email"),
		Code:            request.PostFormValue("otp"),
		Password:        request.PostFormValue("password"),
		ConfirmPassword: request.PostFormValue("confirmPassword"),
	}

	user, err := handler.service.Verify(request.Context(), input)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		switch {
		case appError != nil && appError.Code == CodeOTPExpired:
			// A fresh code is already on its way.
			handler.flashRedirect(writer, request, session.FlashWarning, appError.Message, verifyURL(input.Email))
		case appError != nil && appError.Code == "NOT_FOUND":
			handler.flashRedirect(writer, request, session.FlashError,
				"We couldn't find a signup for that email. Please sign up first.", constants.RouteSignup)
		case appError != nil && appError.Code == "CONFLICT":
			handler.flashRedirect(writer, request, session.FlashInfo, appError.Message, constants.RouteLogin)
		default:
			status := http.StatusBadRequest
			messages := []string{"An unexpected error occurred."}
			if appError != nil {
				status = appError.HTTPStatus
				messages = appError.Messages()
			}
			handler.renderer.Render(writer, status, "verify",
				handler.page(request, "Verify your email", messages, map[string]string{"email": input.Email}))
		}
		return
	}

	// Verification doubles as the first login.
	handler.signIn(writer, request, user, false, "Your email is verified. Welcome to Inkpress!")
}

// # Login & Logout

func (handler *Handler) getLogin(writer http.ResponseWriter, request *http.Request) {
	if current := session.FromContext(request.Context()); current.IsAuthenticated() {
		http.Redirect(writer, request, constants.RouteArticles, http.StatusSeeOther)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "login", handler.page(request, "Sign in", nil, nil))
}

func (handler *Handler) postLogin(writer http.ResponseWriter, request *http.Request) {
	email := request.PostFormValue("email")
	password := request.PostFormValue("password")
	keepLoggedIn := request.PostFormValue("keepLoggedIn") == "true" || request.PostFormValue("keepLoggedIn") == "on"

	user, err := handler.service.Login(request.Context(), email, password)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		if appError != nil && appError.Code == "FORBIDDEN" {
			handler.renderer.Render(writer, http.StatusForbidden, "blocked",
				handler.page(request, "Account blocked", nil, nil))
			return
		}
		status := http.StatusUnauthorized
		messages := []string{MsgInvalidCredentials}
		if appError != nil {
			status = appError.HTTPStatus
			messages = appError.Messages()
		}
		handler.renderer.Render(writer, status, "login",
			handler.page(request, "Sign in", messages, map[string]string{"email": email}))
		return
	}

	handler.signIn(writer, request, user, keepLoggedIn, "")
}

func (handler *Handler) getAdminLogin(writer http.ResponseWriter, request *http.Request) {
	if current := session.FromContext(request.Context()); current.IsAdmin() {
		http.Redirect(writer, request, constants.RouteAdmin, http.StatusSeeOther)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "admin_login",
		handler.page(request, "Administrator sign in", nil, nil))
}

func (handler *Handler) postAdminLogin(writer http.ResponseWriter, request *http.Request) {
	email := request.PostFormValue("email")
	password := request.PostFormValue("password")

	user, err := handler.service.AdminLogin(request.Context(), email, password)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		if appError != nil && appError.Code == "FORBIDDEN" {
			handler.renderer.Render(writer, http.StatusForbidden, "blocked",
				handler.page(request, "Account blocked", nil, nil))
			return
		}
		status := http.StatusUnauthorized
		messages := []string{MsgInvalidAdminCredentials}
		if appError != nil {
			status = appError.HTTPStatus
			messages = appError.Messages()
		}
		handler.renderer.Render(writer, status, "admin_login",
			handler.page(request, "Administrator sign in", messages, map[string]string{"email": email}))
		return
	}

	handler.signIn(writer, request, user, false, "")
}

// logout destroys the session. Admins land on the admin sign-in form,
// members on the ordinary one.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()

	wasAdmin, err := handler.sessions.Destroy(ctx, writer, session.FromContext(ctx))
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	if respond.WantsJSON(request) {
		respond.Message(writer, "Signed out.")
		return
	}

	target := constants.RouteLogin
	if wasAdmin {
		target = constants.RouteAdminLogin
	}
	handler.flashRedirect(writer, request, session.FlashSuccess, "You have been signed out.", target)
}

// # Password Recovery

func (handler *Handler) getForgotPassword(writer http.ResponseWriter, request *http.Request) {
	handler.renderer.Render(writer, http.StatusOK, "forgot_password",
		handler.page(request, "Reset your password", nil, nil))
}

func (handler *Handler) postForgotPassword(writer http.ResponseWriter, request *http.Request) {
	email := request.PostFormValue("email")

	err := handler.service.ForgotPassword(request.Context(), email)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		if appError != nil && appError.Code == "DOWNSTREAM_ERROR" {
			handler.flashRedirect(writer, request, session.FlashError, appError.Message, constants.RouteForgotPassword)
			return
		}
		status := http.StatusBadRequest
		messages := []string{"An unexpected error occurred."}
		if appError != nil {
			status = appError.HTTPStatus
			messages = appError.Messages()
		}
		handler.renderer.Render(writer, status, "forgot_password",
			handler.page(request, "Reset your password", messages, map[string]string{"email": email}))
		return
	}

	// Identical confirmation whether or not the account exists.
	if respond.WantsJSON(request) {
		respond.Message(writer, MsgResetInstructionsSent)
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess, MsgResetInstructionsSent, constants.RouteLogin)
}

func (handler *Handler) getResetPassword(writer http.ResponseWriter, request *http.Request) {
	token := request.URL.Query().Get("token")
	if token == "" {
		handler.flashRedirect(writer, request, session.FlashError, MsgResetTokenInvalid, constants.RouteForgotPassword)
		return
	}
	handler.renderer.Render(writer, http.StatusOK, "reset_password",
		handler.page(request, "Choose a new password", nil, map[string]string{"token": token}))
}

func (handler *Handler) postResetPassword(writer http.ResponseWriter, request *http.Request) {
	token := request.PostFormValue("token")
	password := request.PostFormValue("password")
	confirmPassword := request.PostFormValue("confirmPassword")

	err := handler.service.ResetPassword(request.Context(), token, password, confirmPassword)

	if err != nil {
		if respond.WantsJSON(request) {
			respond.Error(writer, request, err)
			return
		}
		appError := apperr.As(err)
		if appError != nil && appError.Code == "NOT_FOUND" {
			handler.flashRedirect(writer, request, session.FlashError, MsgResetTokenInvalid, constants.RouteForgotPassword)
			return
		}
		status := http.StatusBadRequest
		messages := []string{"An unexpected error occurred."}
		if appError != nil {
			status = appError.HTTPStatus
			messages = appError.Messages()
		}
		handler.renderer.Render(writer, status, "reset_password",
			handler.page(request, "Choose a new password", messages, map[string]string{"token": token}))
		return
	}

	// A used token is gone; the caller signs in with the new password.
	if respond.WantsJSON(request) {
		respond.Message(writer, "Your password has been updated. Please sign in.")
		return
	}
	handler.flashRedirect(writer, request, session.FlashSuccess,
		"Your password has been updated. Please sign in.", constants.RouteLogin)
}

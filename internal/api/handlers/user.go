package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type UserHandler struct {
	userService    service.UserService
	addressService service.AddressService
	validator      *validator.Validate
}

func NewUserHandler(userService service.UserService, addressService service.AddressService) *UserHandler {
	return &UserHandler{userService: userService, addressService: addressService, validator: validator.New()}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Creates a customer account and sends a verification email.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			user	body		models.RegisterRequest	true	"Registration details"
//	@Success		201		{object}	models.User				"Account created"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		409		{object}	response.ErrorResponse	"Email already registered"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/auth/register [post]
func (h *UserHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.RegisterRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid register input")
			return
		}

		user, err := h.userService.Register(r.Context(), &req)
		if err != nil {
			logger.Error("Failed to register user", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("User registered", slog.String("userId", user.ID.String()))
		response.Success(w, http.StatusCreated, user)
	}
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchanges credentials for a bearer token. Repeated failures are throttled per email.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		models.LoginRequest		true	"Login credentials"
//	@Success		200			{object}	models.LoginResponse	"Token issued"
//	@Failure		401			{object}	models.LoginResponse	"Invalid email or password"
//	@Failure		429			{object}	models.LoginResponse	"Too many login attempts"
//	@Failure		500			{object}	response.ErrorResponse	"Internal server error"
//	@Router			/auth/login [post]
func (h *UserHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.LoginRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid login input")
			return
		}

		resp, err := h.userService.Login(r.Context(), &req)
		if err != nil {
			logger.Error("Login failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		if !resp.Success {
			status := http.StatusUnauthorized
			if resp.RetryAfter > 0 {
				status = http.StatusTooManyRequests
			}

			logger.Warn("Login rejected", slog.Int("status", status))
			response.WriteJson(w, status, resp)
			return
		}

		logger.Info("User logged in", slog.String("userId", resp.User.ID.String()))
		response.WriteJson(w, http.StatusOK, resp)
	}
}

// VerifyEmail godoc
//
//	@Summary		Verify email address
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			verification	body		models.VerifyEmailRequest	true	"Email and verification token"
//	@Success		200				{object}	models.MessageResponse
//	@Failure		400				{object}	response.ErrorResponse	"Invalid or expired token"
//	@Router			/auth/verify-email [post]
func (h *UserHandler) VerifyEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.VerifyEmailRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid verify email input")
			return
		}

		if err := h.userService.VerifyEmail(r.Context(), &req); err != nil {
			logger.Warn("Email verification failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Email verified successfully"})
	}
}

// ForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Always answers 200 so callers cannot probe which emails are registered.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	models.MessageResponse
//	@Router			/auth/forgot-password [post]
func (h *UserHandler) ForgotPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.ForgotPasswordRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid forgot password input")
			return
		}

		if err := h.userService.ForgotPassword(r.Context(), &req); err != nil {
			logger.Error("Forgot password failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.MessageResponse{
			Message: "If an account exists for this email, a reset link has been sent",
		})
	}
}

// ResetPassword godoc
//
//	@Summary		Reset password with a token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.ResetPasswordRequest	true	"Email, token and new password"
//	@Success		200		{object}	models.MessageResponse
//	@Failure		400		{object}	response.ErrorResponse	"Invalid or expired token"
//	@Router			/auth/reset-password [post]
func (h *UserHandler) ResetPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.ResetPasswordRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid reset password input")
			return
		}

		if err := h.userService.ResetPassword(r.Context(), &req); err != nil {
			logger.Warn("Password reset failed", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Password reset successfully"})
	}
}

// Profile godoc
//
//	@Summary		Current user profile
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"User not found"
//	@Security		BearerAuth
//	@Router			/users/me [get]
func (h *UserHandler) Profile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized profile access attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		user, err := h.userService.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			logger.Warn("Failed to fetch profile", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, user)
	}
}

// UpdateProfile godoc
//
//	@Summary		Update name and email
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			profile	body		models.UpdateProfileRequest	true	"New profile details"
//	@Success		200		{object}	models.User
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409		{object}	response.ErrorResponse	"Email already in use"
//	@Security		BearerAuth
//	@Router			/users/profile [put]
func (h *UserHandler) UpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized profile update attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.UpdateProfileRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update profile input")
			return
		}

		user, err := h.userService.UpdateProfile(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to update profile", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Profile updated")
		response.Success(w, http.StatusOK, user)
	}
}

// ChangePassword godoc
//
//	@Summary		Change password
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			passwords	body		models.ChangePasswordRequest	true	"Current and new password"
//	@Success		200			{object}	models.MessageResponse
//	@Failure		400			{object}	response.ErrorResponse	"Current password is incorrect"
//	@Failure		401			{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/users/password [put]
func (h *UserHandler) ChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized password change attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.ChangePasswordRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid change password input")
			return
		}

		if err := h.userService.ChangePassword(r.Context(), claims.UserID, &req); err != nil {
			logger.Warn("Failed to change password", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Password changed")
		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Password updated successfully"})
	}
}

// ListAddresses godoc
//
//	@Summary		List shipping addresses
//	@Tags			Users
//	@Produce		json
//	@Success		200	{array}		models.ShippingAddress
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/users/addresses [get]
func (h *UserHandler) ListAddresses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized address list attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		addresses, err := h.addressService.ListAddresses(r.Context(), claims.UserID)
		if err != nil {
			logger.Error("Failed to list addresses", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, addresses)
	}
}

// AddAddress godoc
//
//	@Summary		Add a shipping address
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			address	body		models.AddAddressRequest	true	"Address details"
//	@Success		201		{object}	models.ShippingAddress
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Security		BearerAuth
//	@Router			/users/addresses [post]
func (h *UserHandler) AddAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized add address attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		var req models.AddAddressRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid address input")
			return
		}

		address, err := h.addressService.AddAddress(r.Context(), claims.UserID, &req)
		if err != nil {
			logger.Error("Failed to add address", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Address added", slog.String("addressId", address.ID.String()))
		response.Success(w, http.StatusCreated, address)
	}
}

// DeleteAddress godoc
//
//	@Summary		Delete a shipping address
//	@Description	The default address cannot be deleted.
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"Address ID (UUID)"	Format(uuid)
//	@Success		200	{object}	models.MessageResponse
//	@Failure		400	{object}	response.ErrorResponse	"Invalid ID or default address"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"Shipping address not found"
//	@Security		BearerAuth
//	@Router			/users/addresses/{id} [delete]
func (h *UserHandler) DeleteAddress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		claims, ok := r.Context().Value(middleware.UserContextKey).(*models.Claims)
		if !ok {
			logger.Warn("Unauthorized delete address attempt")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		id, err := utils.ParseID(r, "id")
		if err != nil {
			logger.Warn("Invalid address id", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		if err := h.addressService.DeleteAddress(r.Context(), claims.UserID, id); err != nil {
			logger.Warn("Failed to delete address", slog.String("addressId", id.String()), slog.Any("error", err))
			response.Error(w, err)
			return
		}

		logger.Info("Address deleted", slog.String("addressId", id.String()))
		response.Success(w, http.StatusOK, models.MessageResponse{Message: "Address deleted successfully"})
	}
}

package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/zolani/khusela/internal/config"
	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/smtp"
	"github.com/zolani/khusela/internal/validator"

	"database/sql"

	"github.com/cradoe/gopass"
	"github.com/pascaldekloe/jwt"
)

type AuthHandler struct {
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	ReferralRepo repository.ReferralRepository
	Flows        *flow.Store

	ErrHandler *errHandler.ErrorRepository
	Helper     *helper.HelperRepository
	Mailer     smtp.MailerInterface
	Config     *config.Config
}

func NewAuthHandler(handler *AuthHandler) *AuthHandler {
	return handler
}

// Signup creates the account and authenticates the user straight into the
// onboarding stage; identity verification happens there, not here.
func (h *AuthHandler) HandleAuthSignup(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PhoneNumber  string              `json:"phone_number"`
		FirstName    string              `json:"first_name"`
		LastName     string              `json:"last_name"`
		Email        string              `json:"email"`
		Password     string              `json:"password"`
		ReferralCode string              `json:"referral_code"`
		Validator    validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.Matches(input.PhoneNumber, validator.RgxPhoneNumber), "Must be a valid South African phone number")

	if input.Email != "" {
		input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	}

	found, err := h.UserRepo.CheckIfPhoneNumberExist(input.PhoneNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	input.Validator.Check(!found, "Phone number has been registered")

	var referredBy sql.NullString
	if input.ReferralCode != "" {
		referral, found, err := h.ReferralRepo.FindByCode(input.ReferralCode)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		input.Validator.Check(found, "Referral code is not valid")
		if found {
			referredBy = sql.NullString{String: referral.Code, Valid: true}
		}
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	createdUser := &models.User{
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		PhoneNumber:    input.PhoneNumber,
		Email:          sql.NullString{String: input.Email, Valid: input.Email != ""},
		ReferredBy:     referredBy,
		HashedPassword: hashedPassword,
	}

	userID, err := h.UserRepo.Insert(createdUser, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	token, expiry, err := h.issueToken(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// A fresh signup lands in the onboarding stage to complete KYC.
	controller := h.Flows.For(userID)
	if err := controller.SignedUp(r.Context(), token, userID); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      userID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    userID,
			Description: UserActivityLogRegistrationDescription,
		})
		if err != nil {
			log.Printf("Error logging user registration action: %v", err)
			return err
		}

		return nil
	})

	if input.Email != "" {
		h.Helper.BackgroundTask(r, func() error {
			emailData := h.Helper.NewEmailData()
			emailData["Name"] = createdUser.FirstName + " " + createdUser.LastName

			err := h.Mailer.Send(input.Email, emailData, "welcome.tmpl")
			if err != nil {
				log.Printf("Error sending welcome email: %v", err)
				return err
			}

			return nil
		})
	}

	data := map[string]string{
		"auth_token":   token,
		"token_expiry": expiry.Format(time.RFC3339),
		"stage":        string(controller.Stage()),
	}

	message := "Account created successfully"
	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		PhoneNumber string              `json:"phone_number"`
		Password    string              `json:"password"`
		Validator   validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.UserRepo.GetByPhone(input.PhoneNumber)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.PhoneNumber), "Phone number is required")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
	input.Validator.Check(found, "Incorrect phone number/password")

	if found {
		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(passwordMatches, "Incorrect phone number/password")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	token, expiry, err := h.issueToken(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	controller := h.Flows.For(user.ID)
	if err := controller.LoggedIn(r.Context(), token, user.ID); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogLoginDescription,
		})
		if err != nil {
			log.Printf("Error logging successful login action: %v", err)
			return err
		}

		return nil
	})

	data := map[string]string{
		"auth_token":   token,
		"token_expiry": expiry.Format(time.RFC3339),
		"stage":        string(controller.Stage()),
	}
	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthLogout(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	controller := h.Flows.For(user.ID)
	if err := controller.Logout(r.Context()); err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogLogoutDescription,
		})
		return err
	})

	message := "Logged out"
	err := response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleAuthMe(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	controller := h.Flows.For(user.ID)

	data := map[string]any{
		"id":           user.ID,
		"first_name":   user.FirstName,
		"last_name":    user.LastName,
		"phone_number": user.PhoneNumber,
		"status":       user.Status,
		"stage":        string(controller.Stage()),
	}

	err := response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) HandleValidateReferralCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	referral, found, err := h.ReferralRepo.FindByCode(code)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"valid": found,
	}
	if found {
		data["agent_name"] = referral.AgentName
	}

	err = response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *AuthHandler) issueToken(userID string) (string, time.Time, error) {
	var claims jwt.Claims
	claims.Subject = userID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	return string(jwtBytes), expiry, nil
}

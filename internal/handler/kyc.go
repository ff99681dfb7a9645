package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/zolani/khusela/internal/context"
	"github.com/zolani/khusela/internal/errHandler"
	"github.com/zolani/khusela/internal/flow"
	"github.com/zolani/khusela/internal/helper"
	"github.com/zolani/khusela/internal/kyc"
	"github.com/zolani/khusela/internal/models"
	"github.com/zolani/khusela/internal/repository"
	"github.com/zolani/khusela/internal/request"
	"github.com/zolani/khusela/internal/response"
	"github.com/zolani/khusela/internal/stream"
	"github.com/zolani/khusela/internal/validator"
	"github.com/zolani/khusela/internal/verify"
)

// Submission actions accepted by HandleSubmitStep. Each one maps to at most
// a single verification facade call.
const (
	kycActionSendOTP         = "send_otp"
	kycActionVerifyOTP       = "verify_otp"
	kycActionCaptureDocument = "capture_document"
	kycActionVerifyDocument  = "verify_document"
	kycActionCaptureSelfie   = "capture_selfie"
	kycActionDetails         = "details"
)

type KycHandler struct {
	Flows    *flow.Store
	KycStore *kyc.Store
	UserRepo repository.UserRepository

	ActivityRepo repository.ActivityRepository
	Kafka        *stream.KafkaStream
	ErrHandler   *errHandler.ErrorRepository
	Helper       *helper.HelperRepository
}

func NewKycHandler(handler *KycHandler) *KycHandler {
	return handler
}

type kycSubmitInput struct {
	Action      string              `json:"action"`
	Phone       string              `json:"phone"`
	OTP         string              `json:"otp"`
	Image       string              `json:"image"`
	IDType      string              `json:"id_type"`
	FirstName   string              `json:"first_name"`
	LastName    string              `json:"last_name"`
	DateOfBirth string              `json:"date_of_birth"`
	Validator   validator.Validator `json:"-"`
}

type kycSessionResponse struct {
	Step      int                   `json:"step"`
	Done      bool                  `json:"done"`
	Loading   bool                  `json:"loading"`
	Error     string                `json:"error,omitempty"`
	Record    kycRecordResponseData `json:"record"`
	FlowStage string                `json:"flow_stage"`
}

type kycRecordResponseData struct {
	PhoneNumber       string                    `json:"phone_number,omitempty"`
	PhoneVerified     bool                      `json:"phone_verified"`
	Extracted         *models.ExtractedIdentity `json:"extracted_identity,omitempty"`
	AuthorityVerified bool                      `json:"authority_verified"`
	BiometricVerified bool                      `json:"biometric_verified"`
	HasDocument       bool                      `json:"has_document"`
}

func (h *KycHandler) machineFor(r *http.Request) *kyc.Machine {
	user := context.ContextGetAuthenticatedUser(r)
	return h.Flows.EnterOnboarding(user.ID, h.KycStore)
}

func parseStep(r *http.Request) (int, bool) {
	step, err := strconv.Atoi(r.PathValue("step"))
	if err != nil || step < kyc.StepPhoneVerification || step > kyc.StepPersonalDetails {
		return 0, false
	}
	return step, true
}

func (h *KycHandler) HandleStartStep(w http.ResponseWriter, r *http.Request) {
	step, ok := parseStep(r)
	if !ok {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid step"))
		return
	}

	machine := h.machineFor(r)

	if err := machine.StartStep(step); err != nil {
		switch {
		case errors.Is(err, kyc.ErrCaptureDenied):
			// A denied camera permission surfaces as a step error the user
			// can act on, not as a request failure.
			h.writeSession(w, r, machine)
		case errors.Is(err, kyc.ErrWrongStep):
			h.ErrHandler.Conflict(w, r, "That step is not the current step")
		case errors.Is(err, kyc.ErrSessionDone):
			h.ErrHandler.Conflict(w, r, "Identity verification is already complete")
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	h.writeSession(w, r, machine)
}

func (h *KycHandler) HandleSubmitStep(w http.ResponseWriter, r *http.Request) {
	step, ok := parseStep(r)
	if !ok {
		h.ErrHandler.BadRequest(w, r, errors.New("invalid step"))
		return
	}

	var input kycSubmitInput
	if err := request.DecodeJSON(w, r, &input); err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	machine := h.machineFor(r)

	// Malformed values are rejected here; they never reach the facade.
	submit, ok := h.buildSubmission(r, machine, step, &input)
	if !ok {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if err := submit(); err != nil {
		switch {
		case errors.Is(err, kyc.ErrWrongStep):
			h.ErrHandler.Conflict(w, r, "That step is not the current step")
		case errors.Is(err, kyc.ErrCallInFlight):
			h.ErrHandler.Conflict(w, r, "A verification call is already in progress")
		case errors.Is(err, kyc.ErrSessionDone):
			h.ErrHandler.Conflict(w, r, "Identity verification is already complete")
		case errors.Is(err, verify.ErrPayloadTooLarge), errors.Is(err, verify.ErrNotAnImage):
			h.ErrHandler.BadRequest(w, r, err)
		default:
			h.ErrHandler.ServerError(w, r, err)
		}
		return
	}

	// The step predicate is the only gate on the cursor moving: a
	// submission that satisfied it advances, anything else stays put.
	if err := machine.Advance(); err != nil && !errors.Is(err, kyc.ErrStepIncomplete) && !errors.Is(err, kyc.ErrSessionDone) {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	if machine.Session().Done() {
		h.completeOnboarding(r, machine)
	}

	h.writeSession(w, r, machine)
}

// buildSubmission validates the payload for the given action and returns the
// facade call to run. A false return means validation failed and the errors
// are on input.Validator.
func (h *KycHandler) buildSubmission(r *http.Request, machine *kyc.Machine, step int, input *kycSubmitInput) (func() error, bool) {
	ctx := r.Context()

	switch input.Action {
	case kycActionSendOTP:
		input.Validator.Check(validator.NotBlank(input.Phone), "Phone number is required")
		input.Validator.Check(validator.Matches(input.Phone, validator.RgxPhoneNumber), "Must be a valid South African phone number")
		if input.Validator.HasErrors() {
			return nil, false
		}
		return func() error { return machine.SubmitPhone(ctx, input.Phone) }, true

	case kycActionVerifyOTP:
		input.Validator.Check(validator.Matches(input.OTP, validator.RgxOTP), "OTP must be 6 digits")
		if input.Validator.HasErrors() {
			return nil, false
		}
		return func() error { return machine.SubmitOTP(ctx, input.OTP) }, true

	case kycActionCaptureDocument:
		input.Validator.Check(validator.In(input.IDType, models.IDTypeNationalID, models.IDTypePassport), "ID type must be national_id or passport")
		image, ok := decodeImage(input.Image, &input.Validator)
		if !ok || input.Validator.HasErrors() {
			return nil, false
		}
		return func() error { return machine.SubmitDocument(ctx, image, input.IDType) }, true

	case kycActionVerifyDocument:
		return func() error { return machine.ConfirmDocument(ctx) }, true

	case kycActionCaptureSelfie:
		image, ok := decodeImage(input.Image, &input.Validator)
		if !ok {
			return nil, false
		}
		return func() error { return machine.SubmitSelfie(ctx, image) }, true

	case kycActionDetails:
		input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
		input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
		input.Validator.Check(validator.IsDate(input.DateOfBirth), "Date of birth must be a valid date")
		if input.Validator.HasErrors() {
			return nil, false
		}
		return func() error {
			return machine.SubmitDetails(ctx, input.FirstName, input.LastName, input.DateOfBirth)
		}, true

	default:
		input.Validator.AddError("Unknown action for step " + strconv.Itoa(step))
		return nil, false
	}
}

func (h *KycHandler) HandleGoBack(w http.ResponseWriter, r *http.Request) {
	machine := h.machineFor(r)
	machine.Retreat()
	h.writeSession(w, r, machine)
}

// Cancel is terminal for the attempt: the record is wiped, the outer flow
// abandons the onboarding stage, and the machine is discarded. The UI asks
// the user to confirm before calling this.
func (h *KycHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	machine := h.machineFor(r)

	machine.Cancel()
	h.Flows.For(user.ID).AbandonOnboarding()
	h.KycStore.Discard(user.ID)

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogKYCCancelledDescription,
		})
		return err
	})

	message := "Onboarding cancelled"
	err := response.JSONOkResponse(w, nil, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *KycHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	machine := h.machineFor(r)
	h.writeSession(w, r, machine)
}

// completeOnboarding runs the side effects of the completion signal: the
// user row gets the verified identity, downstream consumers hear about it,
// and the in-memory machine is released.
func (h *KycHandler) completeOnboarding(r *http.Request, machine *kyc.Machine) {
	user := context.ContextGetAuthenticatedUser(r)
	record := machine.Session().Record()

	h.KycStore.Discard(user.ID)

	h.Helper.BackgroundTask(r, func() error {
		if err := h.UserRepo.SetIdentity(user.ID, record.Extracted); err != nil {
			log.Printf("Error saving verified identity: %v", err)
			return err
		}
		if err := h.UserRepo.Verify(user.ID); err != nil {
			log.Printf("Error marking user verified: %v", err)
			return err
		}
		return nil
	})

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.ActivityRepo.Insert(&models.ActivityLog{
			UserID:      user.ID,
			Entity:      models.ActivityLogUserEntity,
			EntityId:    user.ID,
			Description: UserActivityLogKYCCompletedDescription,
		})
		return err
	})

	h.Helper.BackgroundTask(r, func() error {
		event := KYCCompletedEvent{
			UserID:      user.ID,
			PhoneNumber: record.PhoneNumber,
			RecordID:    record.PersistedID,
		}
		if record.Extracted != nil {
			event.IDNumber = record.Extracted.IDNumber
		}

		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		return h.Kafka.ProduceMessage(stream.KYCCompletedTopic, string(payload))
	})
}

func (h *KycHandler) writeSession(w http.ResponseWriter, r *http.Request, machine *kyc.Machine) {
	user := context.ContextGetAuthenticatedUser(r)
	session := machine.Session()
	record := session.Record()

	data := kycSessionResponse{
		Step:      session.Step(),
		Done:      session.Done(),
		Loading:   session.Loading(),
		Error:     session.Err(),
		FlowStage: string(h.Flows.For(user.ID).Stage()),
		Record: kycRecordResponseData{
			PhoneNumber:       record.PhoneNumber,
			PhoneVerified:     record.PhoneVerified,
			Extracted:         record.Extracted,
			AuthorityVerified: record.AuthorityVerified,
			BiometricVerified: record.BiometricVerified,
			HasDocument:       record.DocumentReference != "",
		},
	}

	err := response.JSONOkResponse(w, data, "Data retrieved successfully", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func decodeImage(encoded string, v *validator.Validator) ([]byte, bool) {
	if encoded == "" {
		v.AddError("Image is required")
		return nil, false
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		v.AddError("Image must be base64 encoded")
		return nil, false
	}

	if len(image) > verify.MaxDocumentBytes {
		v.AddError("File size must be less than 5MB")
		return nil, false
	}

	return image, true
}

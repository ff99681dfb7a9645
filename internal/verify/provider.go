package verify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zolani/khusela/internal/file"
	"github.com/zolani/khusela/internal/models"
)

const defaultTimeout = 15 * time.Second

var (
	ErrPayloadTooLarge = errors.New("image payload exceeds the 5MB ceiling")
	ErrNotAnImage      = errors.New("payload is not an image")
)

// Provider talks JSON over HTTP to the remote identity-verification service.
// Captured document images are pushed to cloud storage first; the remote OCR
// and biometric calls receive the payload inline.
type Provider struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	uploader *file.FileUploader
}

func NewProvider(baseURL, apiKey string, uploader *file.FileUploader) *Provider {
	return &Provider{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultTimeout},
		uploader: uploader,
	}
}

type providerEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func (p *Provider) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var envelope providerEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding provider response: %w", err)
	}

	if !envelope.Success {
		if envelope.Error == "" {
			envelope.Error = resp.Status
		}
		return errors.New(envelope.Error)
	}

	if out != nil {
		return json.Unmarshal(envelope.Data, out)
	}

	return nil
}

func (p *Provider) SendOTP(ctx context.Context, phone string) (*OTPResult, error) {
	var out struct {
		OTPSent bool `json:"otp_sent"`
	}

	err := p.post(ctx, "/kyc/verify-phone", map[string]string{"phone": phone}, &out)
	if err != nil {
		return &OTPResult{Sent: false, Reason: err.Error()}, nil
	}

	return &OTPResult{Sent: out.OTPSent}, nil
}

func (p *Provider) VerifyOTP(ctx context.Context, phone, code string) (*OTPCheckResult, error) {
	var out struct {
		Verified bool `json:"verified"`
	}

	payload := map[string]string{"phone": phone, "otp": code}
	err := p.post(ctx, "/kyc/verify-otp", payload, &out)
	if err != nil {
		// A rejected code and an expired one are indistinguishable here.
		return &OTPCheckResult{Verified: false}, nil
	}

	return &OTPCheckResult{Verified: out.Verified}, nil
}

func (p *Provider) ExtractDocument(ctx context.Context, image []byte, documentType string) (*ExtractionResult, error) {
	if err := checkImagePayload(image); err != nil {
		return nil, err
	}

	reference, err := p.uploader.UploadBytes(ctx, "document-"+uuid.NewString(), image)
	if err != nil {
		return nil, fmt.Errorf("storing document image: %w", err)
	}

	var out models.ExtractedIdentity

	payload := map[string]string{
		"image":   base64.StdEncoding.EncodeToString(image),
		"id_type": documentType,
	}
	if err := p.post(ctx, "/kyc/process-id", payload, &out); err != nil {
		return nil, err
	}

	return &ExtractionResult{Identity: out, DocumentReference: reference}, nil
}

func (p *Provider) VerifyWithAuthority(ctx context.Context, idNumber string) (*AuthorityResult, error) {
	var out struct {
		Verified bool   `json:"verified"`
		Reason   string `json:"reason"`
	}

	err := p.post(ctx, "/kyc/verify-id", map[string]string{"id_number": idNumber}, &out)
	if err != nil {
		return nil, err
	}

	return &AuthorityResult{Verified: out.Verified, Reason: out.Reason}, nil
}

func (p *Provider) MatchBiometric(ctx context.Context, selfie []byte, documentReference string) (*BiometricResult, error) {
	if err := checkImagePayload(selfie); err != nil {
		return nil, err
	}

	var out struct {
		Verified bool    `json:"verified"`
		Score    float64 `json:"score"`
	}

	payload := map[string]string{
		"selfie_image": base64.StdEncoding.EncodeToString(selfie),
		"id_image":     documentReference,
	}
	if err := p.post(ctx, "/kyc/verify-biometric", payload, &out); err != nil {
		return nil, err
	}

	return &BiometricResult{Verified: out.Verified, Score: out.Score}, nil
}

func (p *Provider) Persist(ctx context.Context, record *models.IdentityRecord) (*PersistResult, error) {
	var out struct {
		KYCID string `json:"kyc_id"`
	}

	if err := p.post(ctx, "/kyc/save", record, &out); err != nil {
		return nil, err
	}

	return &PersistResult{RecordID: out.KYCID}, nil
}

func checkImagePayload(data []byte) error {
	if len(data) > MaxDocumentBytes {
		return ErrPayloadTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

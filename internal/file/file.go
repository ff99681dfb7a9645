package file

import (
	"bytes"
	"context"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const uploadTimeout = 30 * time.Second

type FileUploader struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

func New(cloudName, apiKey, apiSecret, folder string) *FileUploader {
	return &FileUploader{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		folder:    folder,
	}
}

// UploadBytes stores a captured image and returns its secure URL. The URL is
// the opaque document reference handed to the biometric matcher, so it must
// never be exposed to clients in full.
func (f *FileUploader) UploadBytes(ctx context.Context, name string, data []byte) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloudName, f.apiKey, f.apiSecret)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:   f.folder,
		PublicID: name,
	})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}

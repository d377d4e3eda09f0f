package api

import (
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// UploadMedia uploads the image or video at path
func UploadMedia(path string) (*MediaAsset, error) {
	logger.Debug("Uploading media", "path", path)

	resp, err := client.GetClient().R().
		SetFile("file", path).
		Post("/api/v1/media")

	var out mediaResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Media, nil
}

// ListMedia returns the user's uploads, newest first
func ListMedia() ([]MediaAsset, error) {
	resp, err := client.GetClient().R().Get("/api/v1/media")

	var out mediaListResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Media, nil
}

// DeleteMedia removes an upload
func DeleteMedia(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/media/{id}")
	return CheckResponse(resp, err)
}

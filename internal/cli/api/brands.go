package api

import (
	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/client"
)

// ListBrands returns the user's brand profiles
func ListBrands() ([]Brand, error) {
	resp, err := client.GetClient().R().Get("/api/v1/brands")

	var out brandsResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Brands, nil
}

// GetBrand returns one brand profile
func GetBrand(id string) (*Brand, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Get("/api/v1/brands/{id}")

	var out brandResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Brand, nil
}

// CreateBrand creates a brand profile
func CreateBrand(req BrandRequest) (*Brand, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/brands")

	var out brandResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Brand, nil
}

// DeleteBrand removes a brand profile
func DeleteBrand(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/brands/{id}")
	return CheckResponse(resp, err)
}

// UploadBrandLogo replaces a brand's logo with the image at path
func UploadBrandLogo(id, path string) (*Brand, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		SetFile("logo", path).
		Post("/api/v1/brands/{id}/logo")

	var out brandResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Brand, nil
}

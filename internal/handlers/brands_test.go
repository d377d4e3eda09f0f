package handlers

import (
	"net/http"

	"github.com/zfogg/brandcast/internal/models"
)

type brandBody struct {
	Brand models.BrandProfile `json:"brand"`
}

func (s *HandlersSuite) createBrand(name string) models.BrandProfile {
	w := s.do(http.MethodPost, "/api/v1/brands", s.user.ID, map[string]interface{}{
		"name":     name,
		"industry": "Coffee",
		"tone":     "warm, playful",
		"keywords": []string{"espresso", " Espresso ", "beans"},
		"hashtags": []string{"coffee", "#Coffee", "latte art"},
		"colors":   []string{"#3b2a1a"},
		"website":  "https://acme.example.com",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body brandBody
	s.decode(w, &body)
	return body.Brand
}

func (s *HandlersSuite) TestBrandCRUD() {
	brand := s.createBrand("Acme Coffee")
	s.Equal(s.user.ID, brand.UserID)
	s.Equal([]string{"espresso", "beans"}, brand.Keywords)
	s.Equal([]string{"#coffee", "#latte"}, brand.Hashtags)

	w := s.do(http.MethodGet, "/api/v1/brands/"+brand.ID, s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/brands/"+brand.ID, s.other.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/api/v1/brands/"+brand.ID, s.user.ID, map[string]interface{}{
		"name": "Acme Roasters",
		"tone": "confident",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated brandBody
	s.decode(w, &updated)
	s.Equal("Acme Roasters", updated.Brand.Name)
	s.Empty(updated.Brand.Hashtags)

	w = s.do(http.MethodGet, "/api/v1/brands", s.user.ID, nil)
	var list struct {
		Count int `json:"count"`
	}
	s.decode(w, &list)
	s.Equal(1, list.Count)

	w = s.do(http.MethodDelete, "/api/v1/brands/"+brand.ID, s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/brands/"+brand.ID, s.user.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodDelete, "/api/v1/brands/"+brand.ID, s.user.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersSuite) TestBrandValidation() {
	w := s.do(http.MethodPost, "/api/v1/brands", s.user.ID, map[string]interface{}{"industry": "Coffee"})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	var errBody errorBody
	s.decode(w, &errBody)
	s.Equal("name", errBody.Field)

	w = s.do(http.MethodPost, "/api/v1/brands", s.user.ID, map[string]interface{}{
		"name":   "Acme",
		"colors": []string{"brown"},
	})
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	s.decode(w, &errBody)
	s.Equal("colors[0]", errBody.Field)
}

func (s *HandlersSuite) TestUploadBrandLogo() {
	brand := s.createBrand("Acme Coffee")

	w := s.upload("/api/v1/brands/"+brand.ID+"/logo", s.user.ID, "logo", "logo.png", pngHeader)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body brandBody
	s.decode(w, &body)
	s.Equal("https://cdn.test/logos/"+brand.ID, body.Brand.LogoURL)

	w = s.upload("/api/v1/brands/"+brand.ID+"/logo", s.user.ID, "logo", "logo.png", []byte("not an image"))
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.upload("/api/v1/brands/"+brand.ID+"/logo", s.other.ID, "logo", "logo.png", pngHeader)
	s.Equal(http.StatusNotFound, w.Code)
}

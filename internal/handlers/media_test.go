package handlers

import (
	"net/http"
	"time"

	"github.com/zfogg/brandcast/internal/models"
)

type mediaBody struct {
	Media models.MediaAsset `json:"media"`
}

func (s *HandlersSuite) uploadPNG(name string) models.MediaAsset {
	w := s.upload("/api/v1/media", s.user.ID, "file", name, pngHeader)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var body mediaBody
	s.decode(w, &body)
	return body.Media
}

func (s *HandlersSuite) TestUploadMedia() {
	asset := s.uploadPNG("hero.png")
	s.Equal("image/png", asset.ContentType)
	s.Equal("media/"+s.user.ID+"/hero.png", asset.StorageKey)
	s.Equal("https://cdn.test/media/"+s.user.ID+"/hero.png", asset.URL)
	s.Equal(int64(len(pngHeader)), asset.Size)

	// the extension does not matter, the bytes do
	w := s.upload("/api/v1/media", s.user.ID, "file", "notes.png", []byte("plain text pretending to be a png"))
	s.Require().Equal(http.StatusUnprocessableEntity, w.Code)
	var errBody errorBody
	s.decode(w, &errBody)
	s.Equal("file", errBody.Field)

	w = s.upload("/api/v1/media", s.user.ID, "attachment", "hero.png", pngHeader)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersSuite) TestListAndDeleteMedia() {
	asset := s.uploadPNG("one.png")
	s.uploadPNG("two.png")

	w := s.do(http.MethodGet, "/api/v1/media", s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	s.decode(w, &list)
	s.Equal(2, list.Count)

	w = s.do(http.MethodGet, "/api/v1/media", s.other.ID, nil)
	s.decode(w, &list)
	s.Equal(0, list.Count)

	w = s.do(http.MethodDelete, "/api/v1/media/"+asset.ID, s.other.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/media/"+asset.ID, s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(s.media.deleted, asset.StorageKey)
}

func (s *HandlersSuite) TestDeleteMediaInUse() {
	asset := s.uploadPNG("scheduled.png")

	w := s.do(http.MethodPost, "/api/v1/calendar", s.user.ID, map[string]interface{}{
		"platforms":      []string{"facebook"},
		"content":        "new menu",
		"media_asset_id": asset.ID,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created entryBody
	s.decode(w, &created)

	w = s.do(http.MethodPost, "/api/v1/calendar/"+created.Entry.ID+"/schedule", s.user.ID, map[string]interface{}{
		"scheduled_at": s.handlers.now().Add(48 * time.Hour),
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodDelete, "/api/v1/media/"+asset.ID, s.user.ID, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Empty(s.media.deleted)
}

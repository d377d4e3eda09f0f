package handlers

import (
	"net/http"

	"github.com/zfogg/brandcast/internal/models"
)

type accountsBody struct {
	Accounts []models.SocialAccount `json:"accounts"`
	Count    int                    `json:"count"`
}

func (s *HandlersSuite) TestConnectFacebookAndManageAccounts() {
	w := s.do(http.MethodPost, "/api/v1/accounts/facebook", s.user.ID, map[string]string{"access_token": "short"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), "page-token", "tokens are never serialised")

	var connected accountsBody
	s.decode(w, &connected)
	s.Equal(3, connected.Count)

	w = s.do(http.MethodGet, "/api/v1/accounts?platform=facebook", s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var pages accountsBody
	s.decode(w, &pages)
	s.Require().Len(pages.Accounts, 2)

	var second models.SocialAccount
	for _, a := range pages.Accounts {
		if a.ExternalID == "page2" {
			second = a
		}
	}
	s.Require().NotEmpty(second.ID)

	w = s.do(http.MethodPut, "/api/v1/accounts/"+second.ID+"/default", s.user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Account models.SocialAccount `json:"account"`
	}
	s.decode(w, &updated)
	s.True(updated.Account.IsDefault)

	// other users cannot touch the account
	w = s.do(http.MethodDelete, "/api/v1/accounts/"+second.ID, s.other.ID, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/accounts/"+second.ID, s.user.ID, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/accounts", s.user.ID, nil)
	var remaining accountsBody
	s.decode(w, &remaining)
	s.Equal(2, remaining.Count)
}

func (s *HandlersSuite) TestConnectOAuth2Account() {
	w := s.do(http.MethodPost, "/api/v1/accounts/twitter", s.user.ID, map[string]interface{}{
		"access_token":  "access",
		"refresh_token": "refresh",
		"expires_in":    7200,
		"external_id":   "12345",
		"name":          "acme",
		"scopes":        []string{"tweet.write", "offline.access"},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), "refresh")

	var body struct {
		Account models.SocialAccount `json:"account"`
	}
	s.decode(w, &body)
	s.Equal("twitter", body.Account.Platform)
	s.Equal("12345", body.Account.ExternalID)
	s.NotNil(body.Account.TokenExpiresAt)

	w = s.do(http.MethodPost, "/api/v1/accounts/instagram", s.user.ID, map[string]string{"access_token": "a", "external_id": "1"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/accounts/myspace", s.user.ID, map[string]string{"access_token": "a", "external_id": "1"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/accounts/linkedin", s.user.ID, map[string]string{"access_token": "a"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	var errBody errorBody
	s.decode(w, &errBody)
	s.Equal("external_id", errBody.Field)
}

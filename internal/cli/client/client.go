package client

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/brandcast/internal/cli/config"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// UserAgent identifies CLI requests in the server logs
const UserAgent = "brandcast-cli/0.1.0"

var httpClient *resty.Client

func newClient() *resty.Client {
	c := resty.New()
	c.SetBaseURL(config.GetString("api.base_url"))
	c.SetTimeout(time.Duration(config.GetInt("api.timeout")) * time.Second)
	c.SetHeader("User-Agent", UserAgent)

	c.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Debug("HTTP Request", "method", req.Method, "url", req.URL)
		return nil
	})
	c.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response", "status", resp.StatusCode(), "duration", resp.Time())
		return nil
	})
	return c
}

// Init builds the HTTP client from the loaded config
func Init() {
	httpClient = newClient()
}

// GetClient returns the HTTP client
func GetClient() *resty.Client {
	if httpClient == nil {
		Init()
	}
	return httpClient
}

// SetAuthToken sends token as a bearer token on every request
func SetAuthToken(token string) {
	GetClient().SetAuthToken(token)
}

// ClearAuthToken drops the bearer token
func ClearAuthToken() {
	httpClient = newClient()
}

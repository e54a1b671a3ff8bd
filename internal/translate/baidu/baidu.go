// Package baidu implements the translate.Translator interface on top of the
// Baidu fanyi HTTP API.
package baidu

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/taozh/xlfanyi/internal/log"
	"github.com/taozh/xlfanyi/internal/model"
	"github.com/taozh/xlfanyi/internal/translate"
)

const (
	defaultEndpoint = "https://fanyi-api.baidu.com/api/trans/vip/translate"
	defaultTimeout  = 25 * time.Second

	// API error codes, part of the wire contract.
	codeRateLimited  = "54003"
	codeUnauthorized = "52003"

	saltMin = 32768
	saltMax = 65536
)

// ClientConfig is the configuration for the Baidu translation client.
type ClientConfig struct {
	Credentials model.Credentials
	// Endpoint overrides the API URL, used by tests.
	Endpoint   string
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Credentials.AppID == "" || c.Credentials.AppKey == "" {
		return fmt.Errorf("credentials are required")
	}
	if c.Endpoint == "" {
		c.Endpoint = defaultEndpoint
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "translate.Baidu"})
	return nil
}

// Client translates Chinese text to English through the Baidu fanyi API.
type Client struct {
	creds    model.Credentials
	endpoint string
	client   *http.Client
	logger   log.Logger
}

// NewClient creates a new Baidu translation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		creds:    cfg.Credentials,
		endpoint: cfg.Endpoint,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
	}, nil
}

type apiResponse struct {
	ErrorCode   string `json:"error_code"`
	ErrorMsg    string `json:"error_msg"`
	TransResult []struct {
		Src string `json:"src"`
		Dst string `json:"dst"`
	} `json:"trans_result"`
}

// Translate sends a signed zh->en translation request and returns the first
// translation result. Rate limiting and bad credentials are surfaced as
// translate.ErrRateLimited and translate.ErrUnauthorized so callers can
// decide on retries.
func (c *Client) Translate(ctx context.Context, text string) (string, error) {
	salt := strconv.Itoa(saltMin + rand.IntN(saltMax-saltMin))

	params := url.Values{}
	params.Set("q", text)
	params.Set("from", "zh")
	params.Set("to", "en")
	params.Set("appid", c.creds.AppID)
	params.Set("salt", salt)
	params.Set("sign", c.sign(text, salt))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("could not parse response: %w", err)
	}

	if result.ErrorCode != "" && result.ErrorCode != "0" {
		switch result.ErrorCode {
		case codeRateLimited:
			return "", fmt.Errorf("error %s: %s: %w", result.ErrorCode, result.ErrorMsg, translate.ErrRateLimited)
		case codeUnauthorized:
			return "", fmt.Errorf("error %s: %s: %w", result.ErrorCode, result.ErrorMsg, translate.ErrUnauthorized)
		default:
			return "", fmt.Errorf("translation error %s: %s", result.ErrorCode, result.ErrorMsg)
		}
	}

	if len(result.TransResult) == 0 {
		return "", fmt.Errorf("response has no translation result")
	}

	c.logger.Debugf("Translated %d chars", len(text))

	return result.TransResult[0].Dst, nil
}

// sign builds the request signature. The scheme (MD5 over
// appid+query+salt+appkey) is imposed by the remote API.
func (c *Client) sign(text, salt string) string {
	sum := md5.Sum([]byte(c.creds.AppID + text + salt + c.creds.AppKey))
	return hex.EncodeToString(sum[:])
}

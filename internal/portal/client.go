package portal

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Vendor application identity used for the signed login endpoints.
const (
	clientKey    = "1520391301804"
	clientSecret = "6c319b2a5cd3e66e39159c2e28f2fce9"
	authKey      = "1520391491841"
	authSecret   = "77ef58ce3afbe337da74aa8c5ab963a9"

	appCode    = "global_e"
	appVersion = "1.6.3"
	realm      = "ecouser.net"
)

// Portal errors.
var (
	ErrNotLoggedIn = errors.New("portal: not logged in")
	ErrLoginFailed = errors.New("portal: login rejected")
)

// Logger is the minimal logging interface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config identifies the account, the region and the target device.
type Config struct {
	Account   string
	Password  string
	Country   string
	Continent string

	// BaseURL overrides every derived endpoint. Used in tests and for
	// self-hosted portals.
	BaseURL string

	// Target device identity for command routing.
	DeviceID string
	Class    string
	Resource string

	Timeout   time.Duration
	VerifySSL bool
}

// Credentials is the portal session obtained by Login.
type Credentials struct {
	UserID string
	Token  string
}

// Device is one entry of the account's device list.
type Device struct {
	DID      string `json:"did"`
	Name     string `json:"name"`
	Nick     string `json:"nick"`
	Class    string `json:"class"`
	Resource string `json:"resource"`
	Company  string `json:"company"`
}

// Client talks to the cloud portal for one account and one device.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
type Client struct {
	cfg       Config
	http      *http.Client
	logger    Logger
	installID string

	mu    sync.RWMutex
	creds Credentials
}

// New creates a portal client. Login must be called before any command
// or device-list method.
func New(cfg Config, logger Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = noop{}
	}

	transport := &http.Transport{}
	if !cfg.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		// A stable per-process install identity; the portal only uses
		// it to distinguish app installations.
		installID: md5Hex(uuid.NewString()),
	}
}

// Credentials returns the current session, if any.
func (c *Client) Credentials() (Credentials, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.creds, c.creds.Token != ""
}

// Login performs the full credential exchange: signed account login, auth
// code grant, then the IoT token exchange that yields the user id and
// token every portal call authenticates with.
func (c *Client) Login(ctx context.Context) error {
	accessToken, uid, err := c.mainLogin(ctx)
	if err != nil {
		return err
	}

	authCode, err := c.authCode(ctx, uid, accessToken)
	if err != nil {
		return err
	}

	creds, err := c.loginByItToken(ctx, uid, authCode)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	c.logger.Info("portal login succeeded", "account", c.cfg.Account)
	return nil
}

// mainLogin posts the MD5-hashed credentials to the signed login
// endpoint and returns the access token and account uid.
func (c *Client) mainLogin(ctx context.Context) (accessToken, uid string, err error) {
	params := map[string]string{
		"account":   c.cfg.Account,
		"password":  md5Hex(c.cfg.Password),
		"requestId": md5Hex(uuid.NewString()),
	}

	var result struct {
		Code string `json:"code"`
		Data struct {
			AccessToken string `json:"accessToken"`
			UID         string `json:"uid"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.mainURL("user/login"), c.sign(params, clientKey, clientSecret), &result); err != nil {
		return "", "", fmt.Errorf("portal: main login: %w", err)
	}
	if result.Code != "0000" {
		return "", "", fmt.Errorf("%w: main login code %s", ErrLoginFailed, result.Code)
	}
	return result.Data.AccessToken, result.Data.UID, nil
}

// authCode exchanges the access token for a one-shot auth code.
func (c *Client) authCode(ctx context.Context, uid, accessToken string) (string, error) {
	params := map[string]string{
		"uid":         uid,
		"accessToken": accessToken,
		"bizType":     "ECOVACS_IOT",
		"deviceId":    c.installID,
	}
	signed := c.sign(params, authKey, authSecret)
	signed.Set("openId", "global")

	var result struct {
		Code string `json:"code"`
		Data struct {
			AuthCode string `json:"authCode"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.authCodeURL(), signed, &result); err != nil {
		return "", fmt.Errorf("portal: auth code: %w", err)
	}
	if result.Code != "0000" {
		return "", fmt.Errorf("%w: auth code %s", ErrLoginFailed, result.Code)
	}
	return result.Data.AuthCode, nil
}

// loginByItToken trades the auth code for the portal user session.
func (c *Client) loginByItToken(ctx context.Context, uid, authCode string) (Credentials, error) {
	body := map[string]any{
		"edition":  "ECOGLOBLE",
		"userId":   uid,
		"token":    authCode,
		"realm":    realm,
		"resource": c.installID[:8],
		"org":      "ECOWW",
		"last":     "",
		"country":  c.cfg.Country,
		"todo":     "loginByItToken",
	}

	var result struct {
		Result string `json:"result"`
		UserID string `json:"userId"`
		Token  string `json:"token"`
	}
	if err := c.postJSON(ctx, c.portalURL("users/user.do"), body, &result); err != nil {
		return Credentials{}, fmt.Errorf("portal: token exchange: %w", err)
	}
	if result.Result != "ok" {
		return Credentials{}, fmt.Errorf("%w: token exchange result %q", ErrLoginFailed, result.Result)
	}
	return Credentials{UserID: result.UserID, Token: result.Token}, nil
}

// Devices fetches the account's device list.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	creds, ok := c.Credentials()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	body := map[string]any{
		"userid": creds.UserID,
		"todo":   "GetGlobalDeviceList",
		"auth":   c.auth(creds),
	}

	var result struct {
		Code    int      `json:"code"`
		Devices []Device `json:"devices"`
	}
	if err := c.postJSON(ctx, c.portalURL("api/appsvr/app.do"), body, &result); err != nil {
		return nil, fmt.Errorf("portal: device list: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("portal: device list code %d", result.Code)
	}
	return result.Devices, nil
}

// auth is the credential block embedded in every portal request body.
func (c *Client) auth(creds Credentials) map[string]any {
	return map[string]any{
		"realm":    realm,
		"resource": c.installID[:8],
		"token":    creds.Token,
		"userid":   creds.UserID,
		"with":     "users",
	}
}

// sign adds the timestamped signature the main API requires. The
// signature is an MD5 over the app metadata and the sorted parameters,
// bracketed by the key pair.
func (c *Client) sign(params map[string]string, key, secret string) url.Values {
	signOn := map[string]string{
		"country":      c.cfg.Country,
		"lang":         "EN",
		"deviceId":     c.installID,
		"appCode":      appCode,
		"appVersion":   appVersion,
		"channel":      "google_play",
		"deviceType":   "1",
		"authTimespan": strconv.FormatInt(time.Now().UnixMilli(), 10),
		"authTimeZone": "GMT-8",
	}
	for k, v := range params {
		signOn[k] = v
	}

	keys := make([]string, 0, len(signOn))
	for k := range signOn {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	text := key
	for _, k := range keys {
		text += k + "=" + signOn[k]
	}
	text += secret

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	values.Set("authTimespan", signOn["authTimespan"])
	values.Set("authTimeZone", signOn["authTimeZone"])
	values.Set("authAppkey", key)
	values.Set("authSign", md5Hex(text))
	return values
}

func (c *Client) mainURL(path string) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://gl.ecovacs.com"
	}
	return fmt.Sprintf("%s/v1/private/%s/EN/%s/%s/%s/google_play/1/%s",
		base, c.cfg.Country, c.installID, appCode, appVersion, path)
}

func (c *Client) authCodeURL() string {
	base := c.cfg.BaseURL
	if base == "" {
		base = "https://gl.ecovacs.com"
	}
	return base + "/v1/global/auth/getAuthCode"
}

func (c *Client) portalURL(path string) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://portal-%s.ecouser.net", c.cfg.Continent)
	}
	return base + "/" + path
}

// getJSON issues a GET with query parameters and decodes the response.
func (c *Client) getJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// postJSON issues a JSON POST and decodes the response.
func (c *Client) postJSON(ctx context.Context, rawURL string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}

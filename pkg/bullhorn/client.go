// Package bullhorn is the ATS REST client. Authentication is a four step
// dance: loginInfo resolves the tenant's data center, the oauth authorize
// endpoint yields a code via redirect, the code trades for an access token,
// and the token trades for a BhRestToken plus the tenant rest URL.
package bullhorn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// placementFields are requested on every placement query
var placementFields = []string{
	"id", "dateBegin", "employmentType", "customDate1",
	"clientCorporation(id,name)", "candidate(firstName,lastName)",
	"flatFee", "correlatedCustomText10", "correlatedCustomText1",
	"correlatedCustomText2", "customText34", "customText38",
}

// Config holds ATS credentials and endpoints
type Config struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	LoginInfoURL string
	Timeout      time.Duration
	PageSize     int
}

// Client talks to the ATS REST API
type Client struct {
	cfg    Config
	http   *httpclient.Client
	logger ectologger.Logger

	session *session
}

// session holds the tokens from one successful authentication
type session struct {
	restURL     string
	bhRestToken string
}

// New creates an ATS client
func New(cfg Config, httpClient *httpclient.Client, logger ectologger.Logger) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > 500 {
		cfg.PageSize = 500
	}
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}

// Authenticate runs the full auth dance and caches the session. Credential
// failures map to a 401 httperror; other upstream statuses stay plain errors
// so an ATS outage degrades instead of reading as bad credentials.
func (c *Client) Authenticate(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "bullhorn.Authenticate")
	defer span.End()

	log := c.logger.WithContext(ctx)

	authHost, restHost, err := c.dataCenter(ctx)
	if err != nil {
		return err
	}

	code, err := c.authorize(ctx, authHost)
	if err != nil {
		return err
	}

	accessToken, err := c.accessToken(ctx, authHost, code)
	if err != nil {
		return err
	}

	sess, err := c.restLogin(ctx, restHost, accessToken)
	if err != nil {
		return err
	}

	c.session = sess
	log.Info("ATS authentication successful")
	return nil
}

// dataCenter resolves the tenant's auth and rest hosts from loginInfo. Host
// values are the infix of "auth-{value}.bullhorn..." and "rest-{value}...".
func (c *Client) dataCenter(ctx context.Context) (string, string, error) {
	params := url.Values{"username": {c.cfg.Username}}
	resp, err := c.http.Get(ctx, c.cfg.LoginInfoURL, params, nil)
	if err != nil {
		return "", "", errors.Wrap(err, "failed to resolve ATS data center")
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", statusError("loginInfo", resp.StatusCode)
	}

	var info struct {
		OauthURL string `json:"oauthUrl"`
		RestURL  string `json:"restUrl"`
	}
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return "", "", errors.Wrap(err, "failed to decode ATS loginInfo")
	}

	authHost, ok := hostInfix(info.OauthURL, "auth-")
	if !ok {
		return "", "", httperror.NewHTTPErrorf(http.StatusUnauthorized, "ATS loginInfo returned unusable oauthUrl %q", info.OauthURL)
	}
	restHost, ok := hostInfix(info.RestURL, "rest-")
	if !ok {
		return "", "", httperror.NewHTTPErrorf(http.StatusUnauthorized, "ATS loginInfo returned unusable restUrl %q", info.RestURL)
	}
	return authHost, restHost, nil
}

// authorize performs the password-grant style authorize call and pulls the
// code out of the redirect target's query string
func (c *Client) authorize(ctx context.Context, authHost string) (string, error) {
	params := url.Values{
		"client_id":     {c.cfg.ClientID},
		"response_type": {"code"},
		"action":        {"Login"},
		"username":      {c.cfg.Username},
		"password":      {c.cfg.Password},
		"state":         {uuid.NewString()},
	}

	authorizeURL := fmt.Sprintf("https://auth-%s.bullhornstaffing.com/oauth/authorize", authHost)
	resp, err := c.http.Get(ctx, authorizeURL, params, nil)
	if err != nil {
		return "", errors.Wrap(err, "ATS authorize request failed")
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("authorize", resp.StatusCode)
	}

	finalURL, err := url.Parse(resp.FinalURL)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse ATS authorize redirect")
	}
	code := finalURL.Query().Get("code")
	if code == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "ATS authorize redirect carried no code, verify credentials")
	}
	return code, nil
}

func (c *Client) accessToken(ctx context.Context, authHost, code string) (string, error) {
	params := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	tokenURL := fmt.Sprintf("https://auth-%s.bullhornstaffing.com/oauth/token", authHost)
	resp, err := c.http.PostForm(ctx, tokenURL, params, nil)
	if err != nil {
		return "", errors.Wrap(err, "ATS token request failed")
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("token endpoint", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return "", errors.Wrap(err, "failed to decode ATS token response")
	}
	if token.AccessToken == "" {
		return "", httperror.NewHTTPError(http.StatusUnauthorized, "ATS token response carried no access token")
	}
	return token.AccessToken, nil
}

func (c *Client) restLogin(ctx context.Context, restHost, accessToken string) (*session, error) {
	params := url.Values{
		"version":      {"*"},
		"access_token": {accessToken},
	}

	loginURL := fmt.Sprintf("https://rest-%s.bullhornstaffing.com/rest-services/login?%s", restHost, params.Encode())
	resp, err := c.http.PostForm(ctx, loginURL, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "ATS rest login failed")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("rest login", resp.StatusCode)
	}

	var login struct {
		BhRestToken string `json:"BhRestToken"`
		RestURL     string `json:"restUrl"`
	}
	if err := json.Unmarshal(resp.Body, &login); err != nil {
		return nil, errors.Wrap(err, "failed to decode ATS rest login response")
	}
	if login.BhRestToken == "" || login.RestURL == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "ATS rest login response was incomplete")
	}

	return &session{
		restURL:     strings.TrimSuffix(login.RestURL, "/"),
		bhRestToken: login.BhRestToken,
	}, nil
}

// PermanentPlacements fetches all permanent placements beginning on or after
// since, following pagination until a short page
func (c *Client) PermanentPlacements(ctx context.Context, since time.Time) ([]models.Placement, error) {
	ctx, span := tracing.StartSpan(ctx, "bullhorn.PermanentPlacements")
	defer span.End()

	if c.session == nil {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	where := fmt.Sprintf("employmentType='Permanent' AND dateBegin>=%d", since.UnixMilli())

	var all []models.Placement
	start := 0
	for {
		page, err := c.queryPlacements(ctx, where, start)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.cfg.PageSize {
			break
		}
		start += c.cfg.PageSize
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{"count": len(all)}).Info("Fetched ATS placements")
	return all, nil
}

func (c *Client) queryPlacements(ctx context.Context, where string, start int) ([]models.Placement, error) {
	params := url.Values{
		"BhRestToken": {c.session.bhRestToken},
		"fields":      {strings.Join(placementFields, ",")},
		"where":       {where},
		"count":       {fmt.Sprintf("%d", c.cfg.PageSize)},
		"start":       {fmt.Sprintf("%d", start)},
	}

	resp, err := c.http.Get(ctx, c.session.restURL+"/query/Placement", params, nil)
	if err != nil {
		return nil, errors.Wrap(err, "ATS placement query failed")
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, httperror.NewHTTPErrorf(http.StatusUnauthorized, "ATS placement query returned %d, verify credentials", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ATS placement query returned %d", resp.StatusCode)
	}

	var payload struct {
		Data  []models.Placement `json:"data"`
		Total int                `json:"total"`
	}
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode ATS placement response")
	}
	return payload.Data, nil
}

// statusError maps an unexpected status during the auth dance. Only 401 and
// 403 mean credentials; anything else is an upstream failure.
func statusError(step string, status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return httperror.NewHTTPErrorf(http.StatusUnauthorized, "ATS %s returned %d, verify credentials", step, status)
	}
	return fmt.Errorf("ATS %s returned %d", step, status)
}

// hostInfix pulls the data center value out of a bullhorn URL, e.g.
// "https://auth-east.bullhornstaffing.com/oauth" with prefix "auth-" yields
// "east"
func hostInfix(rawURL, prefix string) (string, bool) {
	start := strings.Index(rawURL, prefix)
	if start == -1 {
		return "", false
	}
	start += len(prefix)
	end := strings.Index(rawURL[start:], ".bullhorn")
	if end == -1 {
		return "", false
	}
	return rawURL[start : start+end], true
}

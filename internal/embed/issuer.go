// Package embed issues short-lived signed URLs for embedding analytics
// workbooks. Tokens are HS256 JWTs keyed by the embed client id.
package embed

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenTTL is the lifetime of every issued token.
	TokenTTL = time.Hour

	DefaultEmail          = "demo@acme.com"
	DefaultExternalUserID = "demo-user"
)

// Account types accepted in Request.AccountType.
const (
	AccountViewer  = "viewer"
	AccountCreator = "creator"
	AccountAdmin   = "admin"
)

// Config holds the signing credentials. Both are required.
type Config struct {
	ClientID string
	Secret   string
}

// Request describes the embed session to sign.
type Request struct {
	WorkbookURL    string         `json:"workbookUrl"`
	UserEmail      string         `json:"userEmail,omitempty"`
	UserAttributes map[string]any `json:"userAttributes,omitempty"`
	ExternalUserID string         `json:"externalUserId,omitempty"`
	AccountType    string         `json:"accountType,omitempty"`
	TeamIDs        []string       `json:"teamIds,omitempty"`
}

// Result is an issued embed URL.
type Result struct {
	EmbedURL string `json:"embedUrl"`
	// ExpiresIn and RefreshIn are in seconds.
	ExpiresIn int `json:"expiresIn"`
	RefreshIn int `json:"refreshIn"`
}

// Status is the credential report served to callers. It never carries
// credential values.
type Status struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// Claims is the signed token payload.
type Claims struct {
	Email          string         `json:"email"`
	AccountType    string         `json:"account_type"`
	Teams          []string       `json:"teams"`
	UserAttributes map[string]any `json:"user_attributes,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs embed URLs. It is safe for concurrent use.
type Issuer struct {
	cfg    Config
	cfgErr error
	now    func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer creates an issuer. Missing credentials do not fail construction;
// they are reported by Status and returned as *ConfigurationError from Issue.
func NewIssuer(cfg Config, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		cfg: Config{
			ClientID: strings.TrimSpace(cfg.ClientID),
			Secret:   strings.TrimSpace(cfg.Secret),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.cfgErr = i.cfg.validate()
	return i
}

func (c Config) validate() error {
	if c.ClientID == "" {
		return &ConfigurationError{Missing: "EMBED_CLIENT_ID"}
	}
	if c.Secret == "" {
		return &ConfigurationError{Missing: "EMBED_CLIENT_SECRET"}
	}
	return nil
}

// ConfigError returns the credential error, or nil when both are present.
func (i *Issuer) ConfigError() error {
	return i.cfgErr
}

// Status reports whether the issuer can sign.
func (i *Issuer) Status() Status {
	if i.cfgErr != nil {
		return Status{
			Status:  "not_configured",
			Error:   i.cfgErr.Error(),
			Message: "Embed credentials are missing. Set EMBED_CLIENT_ID and EMBED_CLIENT_SECRET.",
		}
	}
	return Status{
		Status:  "configured",
		Message: "Embed credentials are configured",
	}
}

// RefreshAfter is how long a client should wait before requesting a new URL.
func RefreshAfter() time.Duration {
	return TokenTTL * 5 / 6
}

// Issue signs req and returns the embed URL.
func (i *Issuer) Issue(req Request) (*Result, error) {
	if i.cfgErr != nil {
		return nil, i.cfgErr
	}
	if err := normalize(&req); err != nil {
		return nil, err
	}

	iat := i.now().UTC().Truncate(time.Second)
	claims := Claims{
		Email:          req.UserEmail,
		AccountType:    req.AccountType,
		Teams:          req.TeamIDs,
		UserAttributes: req.UserAttributes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.ExternalUserID,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = i.cfg.ClientID
	signed, err := token.SignedString([]byte(i.cfg.Secret))
	if err != nil {
		slog.Error("Failed to sign embed token", "subject", req.ExternalUserID, "error", err)
		return nil, &SigningError{Err: err}
	}

	sep := "?"
	if strings.Contains(req.WorkbookURL, "?") {
		sep = "&"
	}

	return &Result{
		EmbedURL:  req.WorkbookURL + sep + ":jwt=" + signed,
		ExpiresIn: int(TokenTTL / time.Second),
		RefreshIn: int(RefreshAfter() / time.Second),
	}, nil
}

// normalize validates req and fills defaults in place.
func normalize(req *Request) error {
	req.WorkbookURL = strings.TrimSpace(req.WorkbookURL)
	if req.WorkbookURL == "" {
		return &ValidationError{Field: "workbookUrl", Reason: "is required"}
	}
	u, err := url.Parse(req.WorkbookURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return &ValidationError{Field: "workbookUrl", Reason: "must be an absolute http(s) URL"}
	}

	if req.UserEmail == "" {
		req.UserEmail = DefaultEmail
	}
	if req.ExternalUserID == "" {
		req.ExternalUserID = DefaultExternalUserID
	}

	switch strings.ToLower(req.AccountType) {
	case "":
		req.AccountType = AccountViewer
	case AccountViewer, AccountCreator, AccountAdmin:
		req.AccountType = strings.ToLower(req.AccountType)
	default:
		return &ValidationError{
			Field:  "accountType",
			Reason: fmt.Sprintf("must be one of %s, %s, %s", AccountViewer, AccountCreator, AccountAdmin),
		}
	}

	if req.TeamIDs == nil {
		req.TeamIDs = []string{}
	}
	return validateAttributes(req.UserAttributes)
}

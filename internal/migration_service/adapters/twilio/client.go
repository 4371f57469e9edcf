package twilio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sdk "github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"

	"github.com/aradsms/tollfree_migrator/internal/migration_service/app"
	"github.com/aradsms/tollfree_migrator/internal/migration_service/domain"
)

// DefaultRequestTimeout bounds every provider call.
const DefaultRequestTimeout = 30 * time.Second

// Endpoints are the base URLs of the provider's API domains. Requests the SDK
// addresses to a production host are sent to the matching endpoint instead.
type Endpoints struct {
	API       string
	Messaging string
	TrustHub  string
	Numbers   string
}

// DefaultEndpoints returns the production base URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		API:       "https://api.twilio.com",
		Messaging: "https://messaging.twilio.com",
		TrustHub:  "https://trusthub.twilio.com",
		Numbers:   "https://numbers.twilio.com",
	}
}

// SingleHost points every API domain at baseURL. Used with test servers.
func SingleHost(baseURL string) Endpoints {
	baseURL = strings.TrimRight(baseURL, "/")
	return Endpoints{API: baseURL, Messaging: baseURL, TrustHub: baseURL, Numbers: baseURL}
}

func (e Endpoints) withDefaults() Endpoints {
	defaults := DefaultEndpoints()
	if e.API == "" {
		e.API = defaults.API
	}
	if e.Messaging == "" {
		e.Messaging = defaults.Messaging
	}
	if e.TrustHub == "" {
		e.TrustHub = defaults.TrustHub
	}
	if e.Numbers == "" {
		e.Numbers = defaults.Numbers
	}
	return e
}

// routes maps each production host to its configured endpoint, leaving out
// endpoints that already are the production host.
func (e Endpoints) routes(logger *slog.Logger) map[string]*url.URL {
	defaults := DefaultEndpoints()
	pairs := [][2]string{
		{defaults.API, e.API},
		{defaults.Messaging, e.Messaging},
		{defaults.TrustHub, e.TrustHub},
		{defaults.Numbers, e.Numbers},
	}
	routes := make(map[string]*url.URL)
	for _, p := range pairs {
		if p[0] == p[1] {
			continue
		}
		production, _ := url.Parse(p[0])
		target, err := url.Parse(p[1])
		if err != nil || target.Host == "" {
			logger.Warn("Ignoring invalid provider endpoint", "endpoint", p[1], "error", err)
			continue
		}
		routes[production.Host] = target
	}
	return routes
}

// endpointRouter rewrites requests for the provider's production hosts onto
// configured endpoints.
type endpointRouter struct {
	routes map[string]*url.URL
	next   http.RoundTripper
}

func (r *endpointRouter) RoundTrip(req *http.Request) (*http.Response, error) {
	target, ok := r.routes[req.URL.Host]
	if !ok {
		return r.next.RoundTrip(req)
	}
	routed := req.Clone(req.Context())
	routed.URL.Scheme = target.Scheme
	routed.URL.Host = target.Host
	routed.URL.Path = strings.TrimRight(target.Path, "/") + req.URL.Path
	routed.URL.RawPath = ""
	routed.Host = target.Host
	return r.next.RoundTrip(routed)
}

func routeEndpoints(httpClient *http.Client, endpoints Endpoints, logger *slog.Logger) *http.Client {
	routes := endpoints.routes(logger)
	if len(routes) == 0 {
		return httpClient
	}
	next := httpClient.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	routed := *httpClient
	routed.Transport = &endpointRouter{routes: routes, next: next}
	return &routed
}

// APIError is an error response from the provider.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
	MoreInfo   string
	Operation  string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider %s failed: status %d, code %d: %s", e.Operation, e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s failed: status %d: %s", e.Operation, e.HTTPStatus, e.Message)
}

// Client talks to the provider on behalf of one account through the Twilio SDK.
// It is safe for concurrent use.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	endpoints  Endpoints
	accountSID string
	rest       *sdk.RestClient
}

var (
	_ domain.Provider         = (*Client)(nil)
	_ domain.AccountDirectory = (*Client)(nil)
	_ app.ProviderFactory     = (*Client)(nil)
)

// NewClient creates a client authenticated as accountSID. Empty endpoints fall
// back to production.
func NewClient(logger *slog.Logger, accountSID, authToken string, endpoints Endpoints, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	endpoints = endpoints.withDefaults()
	return newClient(logger, accountSID, authToken, endpoints, routeEndpoints(httpClient, endpoints, logger))
}

func newClient(logger *slog.Logger, accountSID, authToken string, endpoints Endpoints, httpClient *http.Client) *Client {
	base := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(accountSID)
	return &Client{
		logger:     logger.With("provider", "twilio", "account_sid", accountSID),
		httpClient: httpClient,
		endpoints:  endpoints,
		accountSID: accountSID,
		rest:       sdk.NewRestClientWithParams(sdk.ClientParams{AccountSid: accountSID, Client: base}),
	}
}

// AccountSID returns the account this client acts for.
func (c *Client) AccountSID() string {
	return c.accountSID
}

// ForSubaccount returns a client authenticated as the sub-account, sharing the
// HTTP transport and endpoints.
func (c *Client) ForSubaccount(sid, authToken string) domain.Provider {
	return newClient(c.logger, sid, authToken, c.endpoints, c.httpClient)
}

// call runs one SDK operation, records its duration and maps provider error
// responses to *APIError. The SDK takes no context, so ctx is only checked
// before the call; http.Client.Timeout bounds the request itself.
func call[T any](ctx context.Context, c *Client, operation string, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	c.logger.DebugContext(ctx, "Sending provider request", "operation", operation)
	start := time.Now()
	out, err := fn()
	if err == nil {
		app.ProviderRequestDurationHist.WithLabelValues(operation, "ok").Observe(time.Since(start).Seconds())
		return out, nil
	}

	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		app.ProviderRequestDurationHist.WithLabelValues(operation, strconv.Itoa(restErr.Status)).Observe(time.Since(start).Seconds())
		apiErr := &APIError{
			HTTPStatus: restErr.Status,
			Code:       restErr.Code,
			Message:    restErr.Message,
			MoreInfo:   restErr.MoreInfo,
			Operation:  operation,
		}
		c.logger.WarnContext(ctx, "Provider request failed", "operation", operation, "status_code", apiErr.HTTPStatus, "code", apiErr.Code, "message", apiErr.Message)
		return zero, apiErr
	}

	app.ProviderRequestDurationHist.WithLabelValues(operation, "transport_error").Observe(time.Since(start).Seconds())
	return zero, fmt.Errorf("provider %s failed: %w", operation, err)
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func boolean(p *bool) bool {
	return p != nil && *p
}

func strs(p *[]string) []string {
	if p == nil {
		return nil
	}
	return *p
}

// attributes unwraps the free-form attributes object of trust hub and
// regulatory records.
func attributes(raw *interface{}) map[string]any {
	if raw == nil {
		return nil
	}
	m, _ := (*raw).(map[string]interface{})
	return m
}

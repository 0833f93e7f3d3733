// Package backend is the REST client for the Axis backend API that owns
// sponsor, product, coupon and media records.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jdufresne12/web-portal/pkg/errors"
	"github.com/jdufresne12/web-portal/pkg/httpclient"
	"github.com/jdufresne12/web-portal/pkg/middleware"

	"github.com/jdufresne12/web-portal/internal/domain"
)

const serviceName = "backend"

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback turns an open circuit into a 503 with a retry hint.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("backend is temporarily unavailable, please retry shortly")
}

// Client calls the backend REST API. The caller's session token is read from
// the request context and sent as a bearer token.
type Client struct {
	http    HTTPDoer
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(doer HTTPDoer, baseURL string, logger *slog.Logger) *Client {
	return &Client{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// --- Sponsors ---

// ListSponsors handles GET /sponsors.
func (c *Client) ListSponsors(ctx context.Context) ([]domain.SponsorDTO, error) {
	var out []domain.SponsorDTO
	if err := c.do(ctx, http.MethodGet, "/sponsors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSponsor creates or updates a sponsor via PUT /sponsor.
func (c *Client) SaveSponsor(ctx context.Context, dto *domain.SponsorDTO) (*domain.SponsorDTO, error) {
	var out domain.SponsorDTO
	if err := c.do(ctx, http.MethodPut, "/sponsor", dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSponsor handles DELETE /sponsor/{id}.
func (c *Client) DeleteSponsor(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sponsor/"+url.PathEscape(id), nil, nil)
}

// --- Products ---

// ListProducts handles GET /products.
func (c *Client) ListProducts(ctx context.Context) ([]domain.ProductDTO, error) {
	var out []domain.ProductDTO
	if err := c.do(ctx, http.MethodGet, "/products", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProductsByUserLevel handles GET /products/user-level/{id}.
func (c *Client) ListProductsByUserLevel(ctx context.Context, levelID string) ([]domain.ProductDTO, error) {
	var out []domain.ProductDTO
	if err := c.do(ctx, http.MethodGet, "/products/user-level/"+url.PathEscape(levelID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveProduct creates or updates a product via PUT /product.
func (c *Client) SaveProduct(ctx context.Context, dto *domain.ProductDTO) (*domain.ProductDTO, error) {
	var out domain.ProductDTO
	if err := c.do(ctx, http.MethodPut, "/product", dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteProduct handles DELETE /product/{id}.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/product/"+url.PathEscape(id), nil, nil)
}

// ListUserLevels handles GET /user-levels.
func (c *Client) ListUserLevels(ctx context.Context) ([]domain.UserLevelDTO, error) {
	var out []domain.UserLevelDTO
	if err := c.do(ctx, http.MethodGet, "/user-levels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Records ---

// SaveRecord persists either record variant through its endpoint.
func (c *Client) SaveRecord(ctx context.Context, dto domain.RecordDTO) error {
	switch d := dto.(type) {
	case *domain.SponsorDTO:
		_, err := c.SaveSponsor(ctx, d)
		return err
	case *domain.ProductDTO:
		_, err := c.SaveProduct(ctx, d)
		return err
	default:
		panic(fmt.Sprintf("backend: unhandled record %T", dto))
	}
}

// DeleteRecord removes a record through the endpoint for its kind.
func (c *Client) DeleteRecord(ctx context.Context, kind domain.RecordKind, id string) error {
	if kind == domain.KindProduct {
		return c.DeleteProduct(ctx, id)
	}
	return c.DeleteSponsor(ctx, id)
}

// --- Coupons ---

// ListCoupons handles GET /coupon/sponsor/{id} and GET /coupon/product/{id}.
func (c *Client) ListCoupons(ctx context.Context, kind domain.RecordKind, ownerID string) ([]domain.CouponDTO, error) {
	var out []domain.CouponDTO
	path := fmt.Sprintf("/coupon/%s/%s", kind, url.PathEscape(ownerID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveCoupon creates or updates a coupon via PUT /coupon.
func (c *Client) SaveCoupon(ctx context.Context, coupon domain.CouponDTO) error {
	return c.do(ctx, http.MethodPut, "/coupon", coupon, nil)
}

// DeleteCoupon handles DELETE /coupon/{id}.
func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/coupon/"+url.PathEscape(id), nil, nil)
}

// --- Media ---

// SaveMedium registers uploaded media metadata via PUT /medium.
func (c *Client) SaveMedium(ctx context.Context, m domain.MediaDTO) error {
	m.ClearTransient()
	return c.do(ctx, http.MethodPut, "/medium", m, nil)
}

// DeleteMedium handles DELETE /medium/{id}.
func (c *Client) DeleteMedium(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/medium/"+url.PathEscape(id), nil, nil)
}

// --- Auth ---

// SignInGoogle exchanges a Google identity token for a session token. The
// identity token is sent as the bearer credential instead of the session.
func (c *Client) SignInGoogle(ctx context.Context, idToken string) (*domain.SignInResult, error) {
	ctx = middleware.WithBearerToken(ctx, idToken)
	var out domain.SignInResult
	if err := c.do(ctx, http.MethodPost, "/sign-in/google", nil, &out); err != nil {
		return nil, err
	}
	if out.AxisToken == "" {
		return nil, apperrors.BadGateway("backend sign-in returned no session token", nil)
	}
	return &out, nil
}

// do sends one JSON request and decodes a JSON response into out when out is
// non-nil and the body is not empty.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s request: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := middleware.BearerTokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperrors.BadGateway(fmt.Sprintf("call backend %s %s", method, path), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, serviceName)
		c.logger.WarnContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("error", err.Error()),
		)
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.BadGateway("read backend response", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.BadGateway(fmt.Sprintf("decode backend %s %s response", method, path), err)
	}
	return nil
}

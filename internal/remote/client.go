// Package remote is a typed client for the commerce HTTP API.
//
// Every operation makes exactly one attempt. Nothing is retried and no state is
// kept between calls; callers re-synchronize after a mutation themselves.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/pkg/logger"
)

// Action names carried by RemoteError.
const (
	ActionListProducts   = "listProducts"
	ActionGetCart        = "getCart"
	ActionAddCartItem    = "addCartItem"
	ActionUpdateCartItem = "updateCartItem"
	ActionRemoveCartItem = "removeCartItem"
	ActionClearCart      = "clearCart"
	ActionSubmitOrder    = "submitOrder"
)

const maxResponseBytes = 10 << 20

type Config struct {
	BaseURL string // API host, e.g. https://ec-course-api.hexschool.io
	APIPath string // tenant path segment
	Timeout time.Duration
	Breaker BreakerConfig

	HTTPClient *http.Client
	Logger     *zap.Logger
}

type Client struct {
	httpClient *http.Client
	apiURL     string
	timeout    time.Duration
	breakers   map[string]*gobreaker.CircuitBreaker[struct{}] // by flow; nil when disabled
	logger     *zap.Logger
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote: base URL is required")
	}
	if cfg.APIPath == "" {
		return nil, errors.New("remote: API path is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid base URL %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	log := logger.OrNop(cfg.Logger).Named("remote")

	return &Client{
		httpClient: httpClient,
		apiURL:     base.String() + "/v2/api/" + url.PathEscape(cfg.APIPath),
		timeout:    cfg.Timeout,
		breakers:   newBreakers(cfg.Breaker, log),
		logger:     log,
	}, nil
}

// ProductQuery selects a page of the catalog. The zero value asks for the default listing.
type ProductQuery struct {
	Page     int
	Category string
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	return v
}

// Ack is the acknowledgement of a cart mutation. Its content is informational only.
type Ack struct {
	Message string
}

type cartLine struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type envelope[T any] struct {
	Data T `json:"data"`
}

type productsResponse struct {
	Products   []domain.Product  `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

type orderResponse struct {
	Message  string          `json:"message"`
	Total    decimal.Decimal `json:"total"`
	CreateAt int64           `json:"create_at"`
	OrderID  string          `json:"orderId"`
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*domain.ProductPage, error) {
	var resp productsResponse
	if err := c.do(ctx, ActionListProducts, http.MethodGet, "/products", q.values(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []domain.Product{}
	}
	return &domain.ProductPage{Products: resp.Products, Pagination: resp.Pagination}, nil
}

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var resp envelope[domain.Cart]
	if err := c.do(ctx, ActionGetCart, http.MethodGet, "/cart", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Items == nil {
		resp.Data.Items = []domain.CartItem{}
	}
	return &resp.Data, nil
}

func (c *Client) AddCartItem(ctx context.Context, productID string, qty int) (*Ack, error) {
	body := envelope[cartLine]{Data: cartLine{ProductID: productID, Qty: qty}}
	return c.mutate(ctx, ActionAddCartItem, http.MethodPost, "/cart", body)
}

func (c *Client) UpdateCartItem(ctx context.Context, cartItemID, productID string, qty int) (*Ack, error) {
	body := envelope[cartLine]{Data: cartLine{ProductID: productID, Qty: qty}}
	return c.mutate(ctx, ActionUpdateCartItem, http.MethodPut, "/cart/"+url.PathEscape(cartItemID), body)
}

func (c *Client) RemoveCartItem(ctx context.Context, cartItemID string) (*Ack, error) {
	return c.mutate(ctx, ActionRemoveCartItem, http.MethodDelete, "/cart/"+url.PathEscape(cartItemID), nil)
}

func (c *Client) ClearCart(ctx context.Context) (*Ack, error) {
	return c.mutate(ctx, ActionClearCart, http.MethodDelete, "/carts", nil)
}

func (c *Client) SubmitOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderReceipt, error) {
	var resp orderResponse
	body := envelope[domain.OrderRequest]{Data: order}
	if err := c.do(ctx, ActionSubmitOrder, http.MethodPost, "/order", nil, body, &resp); err != nil {
		return nil, err
	}
	receipt := &domain.OrderReceipt{
		OrderID: resp.OrderID,
		Total:   resp.Total,
		Message: resp.Message,
	}
	if resp.CreateAt > 0 {
		receipt.CreatedAt = time.Unix(resp.CreateAt, 0).UTC()
	}
	return receipt, nil
}

func (c *Client) mutate(ctx context.Context, action, method, path string, body any) (*Ack, error) {
	var resp struct {
		Message json.RawMessage `json:"message"`
	}
	if err := c.do(ctx, action, method, path, nil, body, &resp); err != nil {
		return nil, err
	}
	return &Ack{Message: flattenMessage(resp.Message)}, nil
}

func (c *Client) do(ctx context.Context, action, method, path string, query url.Values, body, out any) error {
	call := func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, action, method, path, query, body, out)
	}
	cb := c.breakers[flowOf(action)]
	if cb == nil {
		_, err := call()
		return err
	}
	_, err := cb.Execute(call)
	if msg, ok := rejectionMessage(err); ok {
		return &RemoteError{Action: action, Message: msg, Err: err}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, action, method, path string, query url.Values, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Action: action, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return &RemoteError{Action: action, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	log := logger.WithContext(ctx, c.logger).With(
		zap.String("action", action),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("remote call failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return &RemoteError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	log.Debug("remote call",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	var status struct {
		Success *bool           `json:"success"`
		Message json.RawMessage `json:"message"`
	}
	_ = json.Unmarshal(raw, &status)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := flattenMessage(status.Message)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Message: msg}
	}
	if status.Success != nil && !*status.Success {
		return &RemoteError{
			Action:     action,
			StatusCode: resp.StatusCode,
			Message:    flattenMessage(status.Message),
			Err:        ErrUnsuccessful,
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &RemoteError{Action: action, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

// flattenMessage accepts the API's message field as either a string or a list of strings.
func flattenMessage(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return strings.TrimSpace(string(raw))
}

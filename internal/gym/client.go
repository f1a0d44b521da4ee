// Package gym is the HTTP client for the campus gym booking service.
package gym

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/gym-scheduler/internal/domain/booking"
	"github.com/example/gym-scheduler/internal/gymerr"
	"github.com/example/gym-scheduler/internal/metrics"
)

const (
	DefaultBaseURL = "http://gym.dazuiwl.cn"
	DefaultSportID = 51 // badminton; table tennis is 49
)

// Config holds the session captured from the WeChat H5 client.
type Config struct {
	BaseURL string
	Token   string
	OpenID  string
	SportID int
	Timeout time.Duration
}

// Client implements booking.Upstream over the gym's form-encoded JSON API.
type Client struct {
	hc  *http.Client
	cfg Config
	log *slog.Logger
}

var _ booking.Upstream = (*Client)(nil)

func New(cfg Config, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SportID == 0 {
		cfg.SportID = DefaultSportID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		hc:  &http.Client{Timeout: cfg.Timeout},
		cfg: cfg,
		log: log.With("component", "gym"),
	}
}

// PaymentURL is the H5 page where an order with the given trade number is paid.
func (c *Client) PaymentURL(tradeNumber string) string {
	return PaymentURL(c.cfg.BaseURL, tradeNumber)
}

func PaymentURL(baseURL, tradeNumber string) string {
	return strings.TrimRight(baseURL, "/") + "/h5/#/pages/myBookingDetails/myBookingDetails?id=" + url.QueryEscape(tradeNumber)
}

func (c *Client) ListResources(ctx context.Context) (map[string]string, error) {
	var data map[string]struct {
		Name string `json:"name"`
	}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/sport_events/field/id/%d", c.cfg.SportID), nil, nil, &data); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(data))
	for id, f := range data {
		out[id] = f.Name
	}
	return out, nil
}

func (c *Client) ListHours(ctx context.Context) (map[int]booking.Hour, error) {
	var data []struct {
		ID      flexInt `json:"id"`
		Begin   string  `json:"begintime_text"`
		End     string  `json:"endtime_text"`
		DayType string  `json:"daytype"`
	}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/sport_events/hour/id/%d", c.cfg.SportID), nil, nil, &data); err != nil {
		return nil, err
	}
	out := make(map[int]booking.Hour, len(data))
	for _, h := range data {
		out[int(h.ID)] = booking.Hour{Begin: h.Begin, End: h.End, Segment: booking.DaySegment(h.DayType)}
	}
	return out, nil
}

func (c *Client) GetPrice(ctx context.Context, dayOffset int, day string) (map[booking.DaySegment]int, error) {
	q := url.Values{}
	q.Set("week", strconv.Itoa(dayOffset))
	q.Set("day", day)

	var data map[string]struct {
		Price flexInt `json:"price"`
	}
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/sport_events/price/id/%d", c.cfg.SportID), q, nil, &data); err != nil {
		return nil, err
	}
	out := make(map[booking.DaySegment]int, len(data))
	for seg, p := range data {
		out[booking.DaySegment(seg)] = int(p.Price)
	}
	return out, nil
}

func (c *Client) GetAvailability(ctx context.Context, day string) (booking.AvailabilityMap, error) {
	q := url.Values{}
	q.Set("day", day)

	var data booking.AvailabilityMap
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/sport_schedule/booked/id/%d", c.cfg.SportID), q, nil, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = booking.AvailabilityMap{}
	}
	return data, nil
}

// scene is the upstream's description of what an order books.
type scene struct {
	Day    string           `json:"day"`
	Fields map[string][]int `json:"fields"`
}

var tradeNumberRe = regexp.MustCompile(`name='tenantTradeNumber' value='([^']+)'`)

var ErrNoTradeNumber = errors.New("could not extract trade number from response")

// SubmitOrder creates an order. The upstream answers with an auto-submitting
// payment form whose tenantTradeNumber identifies the order.
func (c *Client) SubmitOrder(ctx context.Context, req booking.OrderRequest) (string, error) {
	sc, err := json.Marshal([]scene{{Day: req.Day, Fields: map[string][]int{req.ResourceID: req.HourIDs}}})
	if err != nil {
		return "", err
	}
	form := url.Values{}
	form.Set("orderid", "")
	form.Set("card_id", "")
	form.Set("sport_events_id", strconv.Itoa(c.cfg.SportID))
	form.Set("money", strconv.Itoa(req.TotalPrice))
	form.Set("ordertype", "makeappointment")
	form.Set("paytype", "bitpay")
	form.Set("scene", string(sc))
	form.Set("openid", c.cfg.OpenID)

	var page string
	if err := c.call(ctx, http.MethodPost, "/api/order/submit", nil, form, &page); err != nil {
		return "", err
	}
	m := tradeNumberRe.FindStringSubmatch(page)
	if m == nil {
		return "", ErrNoTradeNumber
	}
	return m[1], nil
}

func (c *Client) ListOrders(ctx context.Context, status booking.OrderStatus, limit int) ([]booking.Order, error) {
	q := url.Values{}
	q.Set("ordertype", "makeappointment")
	q.Set("status", string(status))
	q.Set("orderid", "")
	q.Set("page", "1")
	q.Set("limit", strconv.Itoa(limit))

	var data struct {
		List []struct {
			OrderID string `json:"orderid"`
			Status  string `json:"status"`
			Config  struct {
				Scene []scene `json:"scene"`
			} `json:"config"`
		} `json:"list"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/order/index", q, nil, &data); err != nil {
		return nil, err
	}

	out := make([]booking.Order, 0, len(data.List))
	for _, item := range data.List {
		o := booking.Order{ID: item.OrderID, Status: booking.OrderStatus(item.Status)}
		if len(item.Config.Scene) > 0 {
			sc := item.Config.Scene[0]
			o.Day = sc.Day
			o.Fields = sc.Fields
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (bool, error) {
	if err := c.call(ctx, http.MethodPut, "/api/order/cancel/orderid/"+url.PathEscape(orderID), nil, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// call performs one request and classifies the outcome. out may be nil.
// Only failures to reach the upstream are Transport errors. A response that
// arrived but cannot be decoded is returned unclassified and is not retried.
func (c *Client) call(ctx context.Context, method, path string, query, form url.Values, out any) error {
	var body []byte
	if form != nil {
		body = []byte(form.Encode())
	}
	status, raw, err := c.do(ctx, method, c.cfg.BaseURL+path, query, body)
	if err != nil {
		return gymerr.Transport(err)
	}
	if status != http.StatusOK {
		return gymerr.Server(status)
	}

	var env gymerr.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode envelope from %s: %w", path, err)
	}
	if err := gymerr.Classify(status, env); err != nil {
		if gymerr.Unclassified(err) {
			metrics.UpstreamErrorsTotal.WithLabelValues("unclassified").Inc()
			c.log.Warn("unrecognized upstream message", "path", path, "code", env.Code, "msg", env.Msg)
		}
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, rawURL string, query url.Values, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	// headers of the WeChat in-app browser the H5 client runs in
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 18_5 like Mac OS X) AppleWebKit/605.1.15 "+
		"(KHTML, like Gecko) Mobile/15E148 MicroMessenger/8.0.59(0x18003b2c) NetType/WIFI Language/zh_CN")
	req.Header.Set("token", c.cfg.Token)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Origin", c.cfg.BaseURL)
	req.Header.Set("Referer", c.cfg.BaseURL+"/h5/")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	if query != nil {
		req.URL.RawQuery = query.Encode()
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, err
	}
	return res.StatusCode, b, nil
}

// flexInt accepts 12, 12.0 and "12" alike.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexInt(math.Round(v))
	return nil
}

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devblog-app/devblog-api/internal/gateway"
)

// Data speaks the hosted service's table API. Reads run with the anonymous
// key unless the context carries a user token; inserts are expected to carry
// one so row-level policies see the acting user.
type Data struct {
	base string
	key  string
	http *http.Client
	log  *logrus.Logger
}

func NewData(cfg Config) *Data {
	return &Data{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		key:  cfg.AnonKey,
		http: cfg.client(),
		log:  cfg.Logger,
	}
}

var _ gateway.Data = (*Data)(nil)

func (d *Data) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+"/rest/v1/", nil)
	if err != nil {
		return err
	}
	d.authorize(ctx, req)
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 500 {
		return decodeError(resp.StatusCode, resp.Body)
	}
	return nil
}

func (d *Data) Query(ctx context.Context, q *gateway.Query, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.queryURL(q), nil)
	if err != nil {
		return err
	}
	d.authorize(ctx, req)
	if q.HasRange {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", q.RangeFrom, q.RangeTo))
	}
	if q.SingleRow {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if q.SingleRow && (resp.StatusCode == http.StatusNotAcceptable || resp.StatusCode == http.StatusNotFound) {
		return gateway.ErrNoRows
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, resp.Body)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func (d *Data) Count(ctx context.Context, q *gateway.Query) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, d.queryURL(q), nil)
	if err != nil {
		return 0, err
	}
	d.authorize(ctx, req)
	req.Header.Set("Prefer", "count=exact")
	resp, err := d.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return 0, &APIError{Status: resp.StatusCode}
	}
	// Content-Range looks like "0-5/42" or "*/0".
	cr := resp.Header.Get("Content-Range")
	idx := strings.LastIndex(cr, "/")
	if idx < 0 {
		return 0, &APIError{Status: resp.StatusCode, Message: "missing content range"}
	}
	total, err := strconv.ParseInt(cr[idx+1:], 10, 64)
	if err != nil {
		return 0, &APIError{Status: resp.StatusCode, Message: "unparseable content range " + cr}
	}
	return total, nil
}

func (d *Data) Insert(ctx context.Context, table string, record map[string]any) error {
	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.base+"/rest/v1/"+url.PathEscape(table), bytes.NewReader(b))
	if err != nil {
		return err
	}
	d.authorize(ctx, req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, resp.Body)
	}
	return nil
}

func (d *Data) authorize(ctx context.Context, req *http.Request) {
	req.Header.Set("apikey", d.key)
	token := gateway.AccessTokenFrom(ctx)
	if token == "" {
		token = d.key
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func (d *Data) queryURL(q *gateway.Query) string {
	params := url.Values{}
	params.Set("select", selectParam(q))
	for _, f := range q.Filters {
		params.Set(f.Column, "eq."+fmt.Sprintf("%v", f.Value))
	}
	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			if o.Desc {
				parts = append(parts, o.Column+".desc")
			} else {
				parts = append(parts, o.Column+".asc")
			}
		}
		params.Set("order", strings.Join(parts, ","))
	}
	return d.base + "/rest/v1/" + url.PathEscape(q.Table) + "?" + params.Encode()
}

func selectParam(q *gateway.Query) string {
	parts := q.Columns
	if len(parts) == 0 {
		parts = []string{"*"}
	}
	out := make([]string, 0, len(parts)+len(q.Embeds))
	out = append(out, parts...)
	for _, e := range q.Embeds {
		cols := e.Columns
		if len(cols) == 0 {
			cols = []string{"*"}
		}
		out = append(out, e.Table+"("+strings.Join(cols, ",")+")")
	}
	return strings.Join(out, ",")
}

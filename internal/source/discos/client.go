// Package discos reads the ESA DISCOSweb object catalogue.
package discos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/signalsfoundry/spade/core"
)

// DefaultBaseURL is the public DISCOSweb host.
const DefaultBaseURL = "https://discosweb.esoc.esa.int"

// APIVersion is sent in the DiscosWeb-Api-Version header.
const APIVersion = "2"

// Getter is the fetch capability the client needs.
type Getter interface {
	Get(ctx context.Context, rawURL string, params url.Values, headers http.Header) ([]byte, error)
}

// Client requests pages of /api/objects.
type Client struct {
	http    Getter
	baseURL string
	token   string
}

// New returns a Client. An empty baseURL means DefaultBaseURL.
func New(getter Getter, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: getter, baseURL: strings.TrimSuffix(baseURL, "/"), token: token}
}

type envelope struct {
	Data []json.RawMessage `json:"data"`
	Meta *struct {
		Pagination *struct {
			TotalPages  *int `json:"totalPages"`
			CurrentPage int  `json:"currentPage"`
			PageSize    int  `json:"pageSize"`
		} `json:"pagination"`
	} `json:"meta"`
}

// FetchPage requests one page of objects. Items are returned undecoded so
// they can be persisted exactly as received. Matches core.PageFunc.
func (c *Client) FetchPage(ctx context.Context, pageSize, pageNumber int) (core.Page[json.RawMessage], error) {
	params := url.Values{
		"page[size]":   {strconv.Itoa(pageSize)},
		"page[number]": {strconv.Itoa(pageNumber)},
	}
	headers := http.Header{
		"Authorization":         {"Bearer " + c.token},
		"DiscosWeb-Api-Version": {APIVersion},
	}
	body, err := c.http.Get(ctx, c.baseURL+"/api/objects", params, headers)
	if err != nil {
		return core.Page[json.RawMessage]{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.Page[json.RawMessage]{}, fmt.Errorf("%w: %v", core.ErrMalformedPage, err)
	}
	page := core.Page[json.RawMessage]{Items: env.Data}
	if env.Meta != nil && env.Meta.Pagination != nil {
		page.TotalPages = env.Meta.Pagination.TotalPages
	}
	return page, nil
}

// FetchAll walks every page in order.
func (c *Client) FetchAll(ctx context.Context, pageSize int) ([]json.RawMessage, error) {
	return core.FetchAllPages(ctx, pageSize, c.FetchPage)
}

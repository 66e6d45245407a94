// Package hudsonrock provides an enrichment.Client implementation backed by
// the Hudson Rock infostealer intelligence API. The search endpoint accepts a
// list of domains and answers with the compromised identities that are
// employees or clients of those domains.
package hudsonrock

import (
	"bytes"
	"context"
	"enricher/pkg/domain"
	"enricher/pkg/enrichment"
	"enricher/pkg/serrors"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// Options configure the endpoint and credentials used by the Client.
type Options struct {
	// URLTemplate is the search endpoint. It may contain a start and an end
	// date placeholder, either positional ("{}" twice, "{0}"/"{1}") or named
	// ("{start}"/"{end}").
	URLTemplate string
	// APIKey is sent in the api-key header.
	APIKey string
	// ContentType is sent in the Content-Type header.
	ContentType string
	// SearchType is the value of the "type" query parameter.
	SearchType string
	// ThirdPartyDomains is the value of the "third_party_domains" query parameter.
	ThirdPartyDomains bool
	// LookbackDays is the size of the date window ending at Now.
	LookbackDays int
	// Now returns the run time. time.Now is used when nil.
	Now func() time.Time
}

// Client talks to the Hudson Rock REST API and fulfills the enrichment.Client
// interface. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	apiKey      string
	contentType string
}

// DateWindow returns the search window ending at now and starting
// lookbackDays 24-hour days earlier.
func DateWindow(now time.Time, lookbackDays int) (time.Time, time.Time) {
	return now.Add(-time.Duration(lookbackDays) * 24 * time.Hour), now
}

// Endpoint fills the date placeholders of template with start and end
// formatted as YYYY-MM-DD.
func Endpoint(template string, start, end time.Time) string {
	s, e := start.Format(time.DateOnly), end.Format(time.DateOnly)

	out := strings.NewReplacer("{start}", s, "{end}", e, "{0}", s, "{1}", e).Replace(template)
	out = strings.Replace(out, "{}", s, 1)

	return strings.Replace(out, "{}", e, 1)
}

// Lookup submits one batch of domains to the search endpoint and decodes the
// returned records. Non-2xx statuses are mapped to serrors kinds.
func (c *Client) Lookup(ctx context.Context, domains []string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(EncodeLookup(domains)))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrInternal, err, "could not create request")
	}
	req.Header.Set("Content-Type", c.contentType)
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(fmt.Errorf("could not read response body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, b)
	}

	records, err := DecodeRecords(b)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// EncodeLookup encodes the search request body, {"domains":[...]}.
func EncodeLookup(domains []string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("domains")
	e.ArrStart()
	for _, d := range domains {
		e.Str(d)
	}
	e.ArrEnd()
	e.ObjEnd()

	return e.Bytes()
}

// DecodeRecords decodes a provider response body. The body must be a JSON
// array (or null); entries that are not objects are skipped, and only the
// employeeAt and clientAt string lists are read from each object.
func DecodeRecords(b []byte) ([]domain.Record, error) {
	if err := jx.DecodeBytes(b).Validate(); err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidResponse, err, "malformed response")
	}

	d := jx.DecodeBytes(b)
	switch d.Next() {
	case jx.Null:
		return nil, nil
	case jx.Array:
	default:
		return nil, serrors.With(serrors.ErrInvalidResponse, "expected JSON array, got %s", d.Next())
	}

	var records []domain.Record
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.Object {
			return d.Skip()
		}

		var r domain.Record
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "employeeAt":
				r.EmployeeAt, err = decodeStrings(d)
			case "clientAt":
				r.ClientAt, err = decodeStrings(d)
			default:
				err = d.Skip()
			}

			return err
		}); err != nil {
			return err
		}
		records = append(records, r)

		return nil
	})
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrInvalidResponse, err, "could not decode response")
	}

	return records, nil
}

// decodeStrings reads a list of strings. A value of any other type is treated
// as an absent relation. Non-string list members are kept as empty strings:
// they never match a domain but still make the relation non-empty, so a list
// like [null] keeps precedence over the client relation.
func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() != jx.Array {
		return nil, d.Skip()
	}

	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		if d.Next() != jx.String {
			out = append(out, "")

			return d.Skip()
		}
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)

		return nil
	})

	return out, err
}

func transportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return serrors.Wrap(serrors.ErrTimeout, err, "request timed out")
	case errors.Is(err, context.Canceled):
		return serrors.Wrap(serrors.ErrCancelled, err, "request cancelled")
	default:
		return serrors.Wrap(serrors.ErrUnavailable, err, "could not send request")
	}
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 256 {
		msg = msg[:256]
	}

	k := serrors.ErrUnavailable
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		k = serrors.ErrUnauthorized
	case status == http.StatusTooManyRequests:
		k = serrors.ErrRateLimited
	case status >= 400 && status < 500:
		k = serrors.ErrBadRequest
	}

	return serrors.With(k, "lookup failed with status %d: %s", status, msg)
}

// Ensure Client conforms to the enrichment.Client interface at compile time.
var _ enrichment.Client = (*Client)(nil)

// New constructs a Client for the given options. The date window is computed
// once, so every batch of a run queries the same period.
func New(httpClient *http.Client, opts Options) (*Client, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	start, end := DateWindow(now(), opts.LookbackDays)

	u, err := url.Parse(Endpoint(opts.URLTemplate, start, end))
	if err != nil {
		return nil, fmt.Errorf("could not parse endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("endpoint %q is not an absolute URL", u.String())
	}

	q := u.Query()
	if opts.SearchType != "" {
		q.Set("type", opts.SearchType)
	}
	q.Set("third_party_domains", strconv.FormatBool(opts.ThirdPartyDomains))
	u.RawQuery = q.Encode()

	return &Client{
		httpClient:  httpClient,
		endpoint:    u.String(),
		apiKey:      opts.APIKey,
		contentType: opts.ContentType,
	}, nil
}

// Endpoint returns the resolved endpoint including the query parameters.
func (c *Client) Endpoint() string { return c.endpoint }

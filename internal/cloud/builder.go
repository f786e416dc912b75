package cloud

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/printhq/cloudprint/internal/util"
	"github.com/printhq/cloudprint/pkg/destination"
)

const (
	// multipartBoundary is pinned so POST bodies are byte reproducible.
	multipartBoundary = "----CloudPrintFormBoundaryjc9wuprokl8i"

	proxyHeader      = "X-CloudPrint-Proxy"
	proxyHeaderValue = "ChromePrintPreview"
)

// Builder prepares ready-to-send requests. It performs no network I/O.
type Builder struct {
	baseURL *url.URL
	locale  string
	session *Session
}

func NewBuilder(baseURL string, locale string, session *Session) (*Builder, error) {
	util.Assert(session != nil, "session must not be nil")

	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url '%s': %w", baseURL, err)
	}

	return &Builder{
		baseURL: parsed,
		locale:  locale,
		session: session,
	}, nil
}

// Build assembles a request for the action. Cookie-authenticated requests
// carry the account's stored xsrf token (empty until one is known) and an
// authuser index when the account maps to a non-zero session index; other
// origins carry an empty xsrf parameter and authenticate via a bearer
// header attached at dispatch time.
func (b *Builder) Build(method string, action Action, params []Param, origin destination.Origin, account string, callback func(*Request)) *Request {
	util.Assert(method == http.MethodGet || method == http.MethodPost, "method must be GET or POST")

	var urlParams []Param

	if origin == destination.Cookies {
		urlParams = append(urlParams, Param{"xsrf", b.session.XSRFToken(account)})
		if index := b.session.SessionIndex(account); index > 0 {
			urlParams = append(urlParams, Param{"authuser", strconv.Itoa(index)})
		}
	} else {
		urlParams = append(urlParams, Param{"xsrf", ""})
	}

	urlParams = append(urlParams, Param{"hl", b.locale})

	var body []byte
	contentType := "application/x-www-form-urlencoded"

	if method == http.MethodGet {
		urlParams = append(urlParams, params...)
	} else {
		body = encodeMultipart(params)
		contentType = "multipart/form-data; boundary=" + multipartBoundary
	}

	u := *b.baseURL
	u.Path = u.Path + "/" + string(action)
	u.RawQuery = encodeQuery(urlParams)

	headers := http.Header{}
	headers.Set("Content-Type", contentType)
	headers.Set(proxyHeader, proxyHeaderValue)

	ctx, cancel := context.WithCancel(context.Background())

	return &Request{
		ctx:         ctx,
		cancel:      cancel,
		Id:          uuid.New(),
		Method:      method,
		Action:      action,
		URL:         &u,
		Headers:     headers,
		Body:        body,
		Origin:      origin,
		Account:     account,
		SendCookies: origin == destination.Cookies,
		Callback:    callback,
	}
}

// encodeQuery url-encodes params preserving their order, which url.Values
// would not.
func encodeQuery(params []Param) string {
	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Name))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

func encodeMultipart(params []Param) []byte {
	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(multipartBoundary); err != nil {
		panic(err) // boundary is a compile-time constant
	}

	for _, p := range params {
		if err := w.WriteField(p.Name, p.Value); err != nil {
			panic(err) // bytes.Buffer writes cannot fail
		}
	}

	if err := w.Close(); err != nil {
		panic(err)
	}

	return buf.Bytes()
}

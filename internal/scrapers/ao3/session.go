package ao3

import (
	"bytes"
	"context"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"time"

	"ao3scraper/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("ao3scraper/scrapers/ao3")

const (
	report_session_page = "session.page"
	report_page_cache   = "page-cache"
)

const (
	DefaultBaseUrl   = "https://archiveofourown.org"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = time.Second * 30
	DefaultCacheTTL  = time.Hour
)

type SessionOptions struct {
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	Telemetry telemetry.API

	// Cache stores fetched page bodies so works constructed later on the same
	// session (or another process sharing the store) skip the network.
	// nil disables the page cache.
	Cache    PageStore
	CacheTTL time.Duration
}

func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		BaseUrl:   DefaultBaseUrl,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
		Telemetry: telemetry.SlogAPI{},
		CacheTTL:  DefaultCacheTTL,
	}
}

// Session is the transport shared by every Work, Chapter and Tag created from it.
// It keeps cookies and pooled connections, and is safe for concurrent use.
type Session struct {
	BaseUrl *url.URL
	Http    *resty.Client

	tel   telemetry.API
	cache *pageCache
}

func NewSession(opts SessionOptions) (*Session, error) {
	defaults := DefaultSessionOptions()
	if opts.BaseUrl == "" {
		opts.BaseUrl = defaults.BaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Telemetry == nil {
		opts.Telemetry = defaults.Telemetry
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = defaults.CacheTTL
	}

	tel := telemetry.NewScopedAPI("ao3", opts.Telemetry)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", opts.UserAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "ao3scraper/scrapers/ao3/http", tel)

	s := &Session{
		BaseUrl: baseUrl,
		Http:    client,
		tel:     tel,
	}
	if opts.Cache != nil {
		s.cache = &pageCache{
			store: opts.Cache,
			ttl:   opts.CacheTTL,
		}
	}
	return s, nil
}

// DefaultSession creates a fresh session against the archive.
func DefaultSession() *Session {
	s, err := NewSession(DefaultSessionOptions())
	if err != nil {
		panic(err)
	}
	return s
}

// Resolve joins the session origin with href, absolute hrefs are returned unchanged.
func (s *Session) Resolve(href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return s.BaseUrl.ResolveReference(ref).String(), nil
}

// Work creates a Work bound to this session.
func (s *Session) Work(href string) (*Work, error) {
	return NewWork(href, s)
}

// Page fetches href and parses it into a document. Transport failures and non-success
// statuses return a *FetchError, unreadable bodies a *ParseError.
func (s *Session) Page(ctx context.Context, href string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "session:Page")
	defer span.End()

	endpoint, contents, err := s.fetch(ctx, href)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}

	doc, err := parseDocument(endpoint, contents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		s.tel.ReportBroken(report_session_page, err, endpoint)
		return nil, err
	}
	return doc, nil
}

// fetch returns the resolved url of href and its body, from the page cache when
// possible.
func (s *Session) fetch(ctx context.Context, href string) (string, []byte, error) {
	ctx, span := tracer.Start(ctx, "session:fetch")
	defer span.End()

	endpoint, err := s.Resolve(href)
	if err != nil {
		span.SetStatus(codes.Error, "failed to resolve href")
		return href, nil, &FetchError{Url: href, Err: err}
	}
	span.SetAttributes(attribute.String("url", endpoint))

	if s.cache != nil {
		contents, err := s.cache.get(ctx, endpoint)
		if err == nil {
			span.SetStatus(codes.Ok, "CACHE HIT")
			s.tel.ReportDebug("page cache hit", endpoint)
			return endpoint, contents, nil
		}
		if !errors.Is(err, ErrPageNotCached) {
			s.tel.ReportWarning(report_page_cache, err, endpoint)
		}
	}

	res, err := s.Http.R().
		SetContext(ctx).
		SetQueryParam("view_adult", "true").
		Get(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		s.tel.ReportBroken(report_session_page, err, endpoint)
		return endpoint, nil, &FetchError{Url: endpoint, Err: err}
	}
	if !res.IsSuccess() {
		span.SetStatus(codes.Error, "unexpected status")
		s.tel.ReportBroken(report_session_page, res.Status(), endpoint)
		return endpoint, nil, &FetchError{Url: endpoint, StatusCode: res.StatusCode()}
	}

	if s.cache != nil {
		err = s.cache.set(ctx, endpoint, res.Body())
		if err != nil {
			s.tel.ReportWarning(report_page_cache, err, endpoint)
		}
	}

	return endpoint, res.Body(), nil
}

func parseDocument(endpoint string, contents []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(contents))
	if err != nil {
		return nil, &ParseError{Url: endpoint, Reason: "read html", Err: err}
	}
	return doc, nil
}

package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mgreenly/ikigai-sub010/corerr"
	"github.com/mgreenly/ikigai-sub010/internal/multiplex"
	"github.com/mgreenly/ikigai-sub010/model"
	"github.com/mgreenly/ikigai-sub010/providers"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	messagesPath     = "/v1/messages"
	anthropicVersion = "2023-06-01"
)

var _ providers.Provider = (*Provider)(nil)

// Provider implements providers.Provider for Anthropic's Messages API.
type Provider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	multi   *multiplex.Multi

	activeStream *streamContext
}

// New constructs a Provider reading ANTHROPIC_API_KEY / ANTHROPIC_API_BASE_URL
// from the environment.
func New() (*Provider, error) {
	multi, err := multiplex.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create multiplex: %w", err)
	}
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
		multi:   multi,
	}, nil
}

func (p *Provider) WithAPIKey(apiKey string) *Provider {
	p.apiKey = apiKey
	return p
}

func (p *Provider) WithBaseURL(baseURL string) *Provider {
	p.baseURL = baseURL
	return p
}

func (p *Provider) WithHTTPClient(client *http.Client) *Provider {
	p.client = client
	return p
}

// WithLogger redirects the provider's HTTP multiplex completion logging
// (see internal/multiplex.Multi.InfoRead) to logger.
func (p *Provider) WithLogger(logger *slog.Logger) *Provider {
	p.multi.SetLogger(logger)
	return p
}

func (p *Provider) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("x-api-key", p.apiKey)
	h.Set("anthropic-version", anthropicVersion)
	return h
}

func (p *Provider) StartRequest(ctx context.Context, req model.Request, onComplete providers.CompletionCallback) error {
	body, err := serializeRequest(req, false)
	if err != nil {
		return err
	}
	p.multi.Add(ctx, p.client, multiplex.Request{
		URL:     p.baseURL + messagesPath,
		Method:  http.MethodPost,
		Headers: p.headers(),
		Body:    body,
	}, nil, func(c multiplex.Completion) {
		resp, err := completionToResponse(c)
		onComplete(resp, err)
	})
	return nil
}

func (p *Provider) StartStream(ctx context.Context, req model.Request, onEvent providers.StreamCallback, onComplete providers.CompletionCallback) error {
	if p.activeStream != nil {
		return corerr.New(model.ErrorInvalidArg, 0, "a stream is already active on this provider")
	}
	body, err := serializeRequest(req, true)
	if err != nil {
		return err
	}

	sc := newStreamContext(onEvent)
	p.activeStream = sc

	p.multi.Add(ctx, p.client, multiplex.Request{
		URL:     p.baseURL + messagesPath,
		Method:  http.MethodPost,
		Headers: p.headers(),
		Body:    body,
	}, func(chunk []byte) error {
		if sc.aborted {
			return nil
		}
		sc.feed(chunk)
		return nil
	}, func(c multiplex.Completion) {
		p.activeStream = nil
		if c.Type != multiplex.StatusSuccess {
			resp, err := completionToResponse(c)
			onComplete(resp, err)
			return
		}
		onComplete(sc.finalResponse(), nil)
	})
	return nil
}

func (p *Provider) FDSet(readFDs map[int]struct{}) int { return p.multi.FDSet(readFDs) }

func (p *Provider) Timeout() int {
	d := p.multi.Timeout()
	if d < 0 {
		return -1
	}
	return int(d.Milliseconds())
}

func (p *Provider) Perform() (int, error) { return p.multi.Perform() }

func (p *Provider) InfoRead() { p.multi.InfoRead() }

func (p *Provider) Cancel() {
	if p.activeStream != nil {
		p.activeStream.aborted = true
	}
}

func (p *Provider) Cleanup() error {
	p.multi.CancelAll()
	return p.multi.Close()
}

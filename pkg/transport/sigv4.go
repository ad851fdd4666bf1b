package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
)

// DefaultSigV4Service is the signing name for API Gateway.
const DefaultSigV4Service = "execute-api"

// SigV4Signer signs each request with AWS Signature V4 before passing it to
// the next Doer. lambda:// requests are forwarded unsigned.
type SigV4Signer struct {
	next    HTTPDoer
	service string
	logger  zerolog.Logger
	now     func() time.Time

	once        sync.Once
	region      string
	credentials aws.CredentialsProvider
	initErr     error
}

// SignerOption configures a SigV4Signer.
type SignerOption func(*SigV4Signer)

// WithCredentials sets a fixed region and credentials provider instead of the
// default AWS credential chain.
func WithCredentials(region string, provider aws.CredentialsProvider) SignerOption {
	return func(s *SigV4Signer) {
		s.region = region
		s.credentials = provider
		s.once.Do(func() {})
	}
}

// WithSignerLogger sets the logger.
func WithSignerLogger(logger zerolog.Logger) SignerOption {
	return func(s *SigV4Signer) {
		s.logger = logger
	}
}

// NewSigV4Signer wraps next. An empty service means DefaultSigV4Service.
func NewSigV4Signer(next HTTPDoer, service string, opts ...SignerOption) *SigV4Signer {
	if next == nil {
		next = &http.Client{}
	}
	if service == "" {
		service = DefaultSigV4Service
	}
	s := &SigV4Signer{
		next:    next,
		service: service,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "sigv4").Logger()
	return s
}

// Do signs req and sends it.
func (s *SigV4Signer) Do(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme == LambdaScheme {
		s.logger.Debug().Msg("lambda URL detected, skipping SigV4")
		return s.next.Do(req)
	}
	if err := s.sign(req.Context(), req); err != nil {
		return nil, err
	}
	return s.next.Do(req)
}

func (s *SigV4Signer) load(ctx context.Context) error {
	s.once.Do(func() {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			s.initErr = fmt.Errorf("loading AWS config: %w", err)
			return
		}
		s.region = cfg.Region
		s.credentials = cfg.Credentials
	})
	if s.initErr != nil {
		return s.initErr
	}
	if s.region == "" {
		return fmt.Errorf("AWS region not configured: set AWS_REGION or AWS_DEFAULT_REGION")
	}
	if s.credentials == nil {
		return fmt.Errorf("AWS credentials not configured")
	}
	return nil
}

func (s *SigV4Signer) sign(ctx context.Context, req *http.Request) error {
	if err := s.load(ctx); err != nil {
		return err
	}

	creds, err := s.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("retrieving AWS credentials: %w", err)
	}

	var body []byte
	if req.Body != nil {
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return fmt.Errorf("reading request body for signing: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])

	if err := v4.NewSigner().SignHTTP(ctx, creds, req, payloadHash, s.service, s.region, s.now()); err != nil {
		return fmt.Errorf("signing request with SigV4: %w", err)
	}

	s.logger.Debug().
		Str("service", s.service).
		Str("region", s.region).
		Msg("SigV4 signature applied")
	return nil
}

package verify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"certverify/internal/credential"
	"certverify/internal/verify/metrics"
	"certverify/internal/verify/tracer"
	dErrors "certverify/pkg/domain-errors"
)

// CredentialFetcher retrieves the issued credential for a (type, wallet) pair.
type CredentialFetcher interface {
	Fetch(ctx context.Context, typ credential.Type, wallet string) (*credential.Credential, error)
}

// ProofChecker validates the credential's embedded cryptographic proof.
type ProofChecker interface {
	Verify(ctx context.Context, cred *credential.Credential) (bool, error)
}

// AnchorChecker checks the credential digest against on-chain records.
type AnchorChecker interface {
	Verify(ctx context.Context, wallet string, typ credential.Type, cred *credential.Credential) (bool, error)
}

// ShapefileChecker checks the integrity of a land deed's external shapefile.
type ShapefileChecker interface {
	Verify(ctx context.Context, cred *credential.Credential) (bool, error)
}

const defaultCheckTimeout = 15 * time.Second

// Service orchestrates the verification pipeline. Checks run concurrently and
// are fault-isolated: one check erroring or failing never prevents the others
// from settling, and the verdict is always complete for the credential type.
type Service struct {
	fetcher   CredentialFetcher
	proof     ProofChecker
	anchor    AnchorChecker
	shapefile ShapefileChecker

	checkTimeout time.Duration
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	logger       *slog.Logger
}

// New creates the verification service. Fetcher and checkers are required;
// the shapefile checker may only be nil if no supported type needs one.
func New(fetcher CredentialFetcher, proof ProofChecker, anchor AnchorChecker, shapefile ShapefileChecker, opts ...Option) *Service {
	if fetcher == nil {
		panic("verify: nil credential fetcher")
	}
	if proof == nil {
		panic("verify: nil proof checker")
	}
	if anchor == nil {
		panic("verify: nil anchor checker")
	}

	s := &Service{
		fetcher:      fetcher,
		proof:        proof,
		anchor:       anchor,
		shapefile:    shapefile,
		checkTimeout: defaultCheckTimeout,
		tracer:       tracer.NewNoop(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCheckTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkTimeout = d
		}
	}
}

// Verify fetches the issued credential and runs every check applicable to the
// credential type. A fetch failure aborts the request; a check failure or
// error only turns its own verdict field false.
func (s *Service) Verify(ctx context.Context, typ credential.Type, wallet string) (*Verdict, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrCredentialType, string(typ)),
		tracer.String(tracer.AttrWallet, wallet),
	)
	var retErr error
	defer func() { span.End(retErr) }()

	if wallet == "" {
		retErr = dErrors.New(dErrors.CodeValidation, "wallet address is required")
		return nil, retErr
	}

	cred, err := s.fetch(ctx, typ, wallet)
	if err != nil {
		s.metrics.IncrementFetchFailures()
		s.metrics.IncrementVerifications(string(typ), metrics.ResultError)
		retErr = err
		return nil, retErr
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	var verdict Verdict

	// Plain group rather than WithContext: one check failing must not
	// cancel its siblings. Every goroutine settles its own field and
	// returns nil.
	var g errgroup.Group
	g.Go(func() error {
		verdict.VC = s.runCheck(checkCtx, checkJWT, tracer.SpanJWT, func(ctx context.Context) (bool, error) {
			return s.proof.Verify(ctx, cred)
		})
		return nil
	})
	g.Go(func() error {
		verdict.OnChainVC = s.runCheck(checkCtx, checkOnChain, tracer.SpanOnChain, func(ctx context.Context) (bool, error) {
			return s.anchor.Verify(ctx, wallet, typ, cred)
		})
		return nil
	})
	if typ.HasShapefile() {
		g.Go(func() error {
			passed := s.runCheck(checkCtx, checkShapefile, tracer.SpanShapefile, func(ctx context.Context) (bool, error) {
				if s.shapefile == nil {
					return false, dErrors.New(dErrors.CodeInternal, "shapefile checker not configured")
				}
				return s.shapefile.Verify(ctx, cred)
			})
			verdict.ShapeFile = &passed
			return nil
		})
	}
	g.Wait()

	outcome := metrics.ResultPass
	if !verdict.VC || !verdict.OnChainVC || (verdict.ShapeFile != nil && !*verdict.ShapeFile) {
		outcome = metrics.ResultFail
	}
	s.metrics.IncrementVerifications(string(typ), outcome)

	s.logger.InfoContext(ctx, "verification settled",
		"credential_type", typ,
		"wallet", wallet,
		"outcome", outcome,
	)

	return &verdict, nil
}

func (s *Service) fetch(ctx context.Context, typ credential.Type, wallet string) (*credential.Credential, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanFetch)
	fetchCtx, cancel := context.WithTimeout(ctx, s.checkTimeout)
	defer cancel()

	cred, err := s.fetcher.Fetch(fetchCtx, typ, wallet)
	span.End(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "credential fetch failed",
			"credential_type", typ,
			"wallet", wallet,
			"error", err,
		)
		return nil, err
	}
	return cred, nil
}

// runCheck executes one check, recording its latency, result, and span. An
// error settles as false; the distinction survives in logs and metrics only.
func (s *Service) runCheck(ctx context.Context, name, spanName string, fn func(context.Context) (bool, error)) bool {
	ctx, span := s.tracer.Start(ctx, spanName, tracer.String(tracer.AttrCheck, name))
	start := time.Now()

	passed, err := fn(ctx)
	latency := time.Since(start)
	span.SetAttributes(tracer.Bool(tracer.AttrPassed, passed && err == nil))
	span.End(err)

	switch {
	case err != nil:
		s.metrics.RecordCheck(name, metrics.ResultError, latency)
		s.logger.WarnContext(ctx, "verification check errored",
			"check", name,
			"error", err,
		)
		return false
	case !passed:
		s.metrics.RecordCheck(name, metrics.ResultFail, latency)
		return false
	default:
		s.metrics.RecordCheck(name, metrics.ResultPass, latency)
		return true
	}
}

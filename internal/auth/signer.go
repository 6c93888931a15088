package auth

import (
	"time"

	"go.uber.org/zap"
)

type SignerConfig struct {
	AccessSecret  []byte
	AccessTTL     time.Duration
	RefreshSecret []byte
	RefreshTTL    time.Duration
	Now           func() time.Time
}

// Token is a signed credential together with its lifetime.
type Token struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// Signer issues and verifies both token kinds, each with its own secret.
type Signer struct {
	cfg SignerConfig
	log *zap.Logger
}

func NewSigner(cfg SignerConfig, log *zap.Logger) *Signer {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Signer{cfg: cfg, log: log.With(zap.String("component", "auth.signer"))}
}

func (s *Signer) AccessTTL() time.Duration  { return s.cfg.AccessTTL }
func (s *Signer) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

func (s *Signer) IssueAccess(p Payload) (Token, error) {
	return s.issue(p, KindAccess, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

func (s *Signer) IssueRefresh(p Payload) (Token, error) {
	return s.issue(p, KindRefresh, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
}

func (s *Signer) VerifyAccess(token string) (*Payload, error) {
	return s.verify(token, KindAccess, s.cfg.AccessSecret)
}

func (s *Signer) VerifyRefresh(token string) (*Payload, error) {
	return s.verify(token, KindRefresh, s.cfg.RefreshSecret)
}

func (s *Signer) issue(p Payload, kind Kind, secret []byte, ttl time.Duration) (Token, error) {
	v, exp, err := Sign(p, kind, secret, ttl, s.cfg.Now())
	if err != nil {
		return Token{}, err
	}
	return Token{Value: v, ExpiresAt: exp, TTL: ttl}, nil
}

func (s *Signer) verify(token string, kind Kind, secret []byte) (*Payload, error) {
	p, err := parse(token, kind, secret, s.cfg.Now())
	if err != nil {
		s.log.Debug("token rejected",
			zap.String("kind", string(kind)),
			zap.String("token", Fingerprint(token)),
			zap.Error(err),
		)
		return nil, ErrTokenInvalid
	}
	return p, nil
}

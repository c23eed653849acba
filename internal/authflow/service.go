package authflow

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/stakehub/stakehub_gateway/internal/audit"
	"github.com/stakehub/stakehub_gateway/internal/backend"
	"github.com/stakehub/stakehub_gateway/internal/metrics"
	"github.com/stakehub/stakehub_gateway/internal/session"
)

// MsgChallengeExpired is shown when a code arrives for a challenge that no
// longer exists; the user has to start the login over.
const MsgChallengeExpired = "Your verification session has expired. Please log in again."

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codePattern  = regexp.MustCompile(`^[0-9]{6}$`)
)

// BackendAuth is the slice of the backend client the login flow needs.
type BackendAuth interface {
	Login(ctx context.Context, email, password, deviceToken string) (backend.LoginResult, error)
	VerifyMFA(ctx context.Context, userID, code string) (backend.LoginResult, error)
	ResendVerification(ctx context.Context, email string) error
}

// DeviceTokens manages trusted-device tokens. Optional; nil disables the
// remember-device feature.
type DeviceTokens interface {
	Issue(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, userID, token string) bool
	Revoke(ctx context.Context, userID string) error
}

// Options tunes the login flow.
type Options struct {
	SessionTTL      time.Duration
	RememberTTL     time.Duration
	SessionWait     time.Duration
	SessionPoll     time.Duration
	DefaultRedirect string
}

// Service drives the login / MFA state machine: it validates input, calls
// the backend, applies flow transitions and owns session establishment.
type Service struct {
	backend    BackendAuth
	sessions   session.Store
	challenges ChallengeStore
	devices    DeviceTokens
	audit      *audit.Recorder
	logger     *slog.Logger
	opts       Options
}

// NewService wires the login flow service.
func NewService(b BackendAuth, sessions session.Store, challenges ChallengeStore, devices DeviceTokens, rec *audit.Recorder, logger *slog.Logger, opts Options) *Service {
	return &Service{
		backend:    b,
		sessions:   sessions,
		challenges: challenges,
		devices:    devices,
		audit:      rec,
		logger:     logger,
		opts:       opts,
	}
}

// OutcomeKind discriminates what a submission produced.
type OutcomeKind int

const (
	OutcomeFailed OutcomeKind = iota
	OutcomeAuthenticated
	OutcomeMFAChallenge
	OutcomeEmailUnverified
	OutcomePasswordResetRequired
)

// Outcome is what the handler renders after a login or MFA submission.
type Outcome struct {
	Kind OutcomeKind

	// OutcomeAuthenticated
	SessionID        string
	SessionExpiresAt time.Time
	RememberMe       bool
	Redirect         string
	DeviceUserID     string
	DeviceToken      string

	// OutcomeMFAChallenge; Message is also set after a failed code attempt.
	ChallengeID string

	// OutcomeEmailUnverified
	Email string

	// OutcomeFailed
	Message string
}

// LoginInput carries one credentials submission.
type LoginInput struct {
	Email        string
	Password     string
	RememberMe   bool
	Redirect     string
	DeviceUserID string
	DeviceToken  string
	RequestID    string
}

// Login runs the primary submit operation. Classified failures come back as
// an Outcome with a user-visible message; only validation problems and
// transport failures are returned as errors.
func (s *Service) Login(ctx context.Context, in LoginInput) (Outcome, error) {
	if fields := validateCredentials(in.Email, in.Password); len(fields) > 0 {
		return Outcome{}, &backend.ValidationError{Fields: fields}
	}

	flow := NewFlow()
	if err := flow.BeginSubmit(); err != nil {
		return Outcome{}, err
	}

	email := backend.NormalizeEmail(in.Email)

	deviceToken := ""
	if s.devices != nil && in.DeviceUserID != "" && s.devices.Verify(ctx, in.DeviceUserID, in.DeviceToken) {
		deviceToken = in.DeviceToken
	}

	res, err := s.backend.Login(ctx, email, in.Password, deviceToken)
	if err != nil {
		metrics.LoginOutcome(metrics.OutcomeNetworkError)
		s.record(ctx, audit.KindLogin, email, in.RequestID, false, "network_error")
		return Outcome{}, err
	}

	switch res.Kind {
	case backend.LoginSuccess:
		sess, err := s.establish(ctx, res.Token, res.User, in.RememberMe)
		if err != nil {
			s.logger.Error("session establishment failed", slog.Any("error", err))
			if ferr := flow.Fail(backend.MsgServerError); ferr != nil {
				return Outcome{}, ferr
			}
			metrics.LoginOutcome(metrics.OutcomeFailed)
			s.record(ctx, audit.KindLogin, email, in.RequestID, false, "session_store")
			return Outcome{Kind: OutcomeFailed, Message: flow.Message()}, nil
		}
		if err := flow.Succeed(SafeRedirect(in.Redirect, s.opts.DefaultRedirect)); err != nil {
			return Outcome{}, err
		}
		metrics.LoginOutcome(metrics.OutcomeSuccess)
		s.record(ctx, audit.KindLogin, email, in.RequestID, true, "")
		return Outcome{
			Kind:             OutcomeAuthenticated,
			SessionID:        sess.ID,
			SessionExpiresAt: sess.ExpiresAt,
			RememberMe:       sess.RememberMe,
			Redirect:         flow.ConsumeRedirect(),
		}, nil

	case backend.LoginMFARequired:
		ch := Challenge{
			ID:        uuid.NewString(),
			UserID:    res.UserID,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.challenges.Create(ctx, ch); err != nil {
			s.logger.Error("challenge store failed", slog.Any("error", err))
			metrics.LoginOutcome(metrics.OutcomeFailed)
			return Outcome{Kind: OutcomeFailed, Message: backend.MsgServerError}, nil
		}
		if err := flow.RequireMFA(ch.ID); err != nil {
			return Outcome{}, err
		}
		metrics.LoginOutcome(metrics.OutcomeMFARequired)
		s.record(ctx, audit.KindLogin, email, in.RequestID, true, "mfa_required")
		return Outcome{Kind: OutcomeMFAChallenge, ChallengeID: flow.ChallengeID()}, nil

	case backend.LoginEmailUnverified:
		if err := flow.BlockEmailUnverified(res.Email); err != nil {
			return Outcome{}, err
		}
		metrics.LoginOutcome(metrics.OutcomeUnverified)
		s.record(ctx, audit.KindLogin, email, in.RequestID, false, "email_unverified")
		return Outcome{Kind: OutcomeEmailUnverified, Email: flow.Email()}, nil

	case backend.LoginPasswordResetRequired:
		if err := flow.BlockPasswordReset(); err != nil {
			return Outcome{}, err
		}
		metrics.LoginOutcome(metrics.OutcomePasswordReset)
		s.record(ctx, audit.KindLogin, email, in.RequestID, false, "password_reset_required")
		return Outcome{Kind: OutcomePasswordResetRequired}, nil

	default:
		msg := backend.MsgLoginFailed
		if res.Failure != nil {
			msg = res.Failure.Message
		}
		if err := flow.Fail(msg); err != nil {
			return Outcome{}, err
		}
		metrics.LoginOutcome(metrics.OutcomeFailed)
		s.record(ctx, audit.KindLogin, email, in.RequestID, false, "rejected")
		return Outcome{Kind: OutcomeFailed, Message: flow.Message()}, nil
	}
}

// VerifyInput carries one MFA code submission.
type VerifyInput struct {
	ChallengeID    string
	Code           string
	RememberDevice bool
	Redirect       string
	RequestID      string
}

// VerifyMFA runs the nested challenge submission. A wrong code keeps the
// challenge alive for another attempt.
func (s *Service) VerifyMFA(ctx context.Context, in VerifyInput) (Outcome, error) {
	if !codePattern.MatchString(in.Code) {
		return Outcome{}, &backend.ValidationError{Fields: map[string]string{
			"code": "Enter the 6-digit code from your authenticator.",
		}}
	}

	ch, err := s.challenges.Get(ctx, in.ChallengeID)
	if err != nil {
		if errors.Is(err, ErrChallengeNotFound) {
			return Outcome{Kind: OutcomeFailed, Message: MsgChallengeExpired}, nil
		}
		return Outcome{}, err
	}

	flow := NewFlow()
	for _, step := range []func() error{
		flow.BeginSubmit,
		func() error { return flow.RequireMFA(ch.ID) },
		flow.BeginMFASubmit,
	} {
		if err := step(); err != nil {
			return Outcome{}, err
		}
	}

	res, err := s.backend.VerifyMFA(ctx, ch.UserID, in.Code)
	if err != nil {
		metrics.LoginOutcome(metrics.OutcomeNetworkError)
		s.record(ctx, audit.KindMFAVerify, ch.Email, in.RequestID, false, "network_error")
		return Outcome{}, err
	}

	if res.Kind == backend.LoginSuccess {
		if err := s.challenges.Delete(ctx, ch.ID); err != nil {
			s.logger.Warn("challenge cleanup failed", slog.Any("error", err))
		}
		sess, err := s.establish(ctx, res.Token, res.User, false)
		if err != nil {
			s.logger.Error("session establishment failed", slog.Any("error", err))
			metrics.LoginOutcome(metrics.OutcomeFailed)
			return Outcome{Kind: OutcomeFailed, Message: backend.MsgServerError}, nil
		}
		if err := flow.Succeed(SafeRedirect(in.Redirect, s.opts.DefaultRedirect)); err != nil {
			return Outcome{}, err
		}

		out := Outcome{
			Kind:             OutcomeAuthenticated,
			SessionID:        sess.ID,
			SessionExpiresAt: sess.ExpiresAt,
			Redirect:         flow.ConsumeRedirect(),
		}
		if in.RememberDevice && s.devices != nil {
			token, err := s.devices.Issue(ctx, ch.UserID)
			if err != nil {
				s.logger.Warn("device token issue failed", slog.Any("error", err))
			} else {
				out.DeviceUserID = ch.UserID
				out.DeviceToken = token
			}
		}
		metrics.LoginOutcome(metrics.OutcomeSuccess)
		s.record(ctx, audit.KindMFAVerify, ch.Email, in.RequestID, true, "")
		return out, nil
	}

	msg := backend.MsgInvalidCode
	if res.Failure != nil {
		msg = res.Failure.Message
	}
	if err := flow.RetryMFA(msg); err != nil {
		return Outcome{}, err
	}
	metrics.LoginOutcome(metrics.OutcomeFailed)
	s.record(ctx, audit.KindMFAVerify, ch.Email, in.RequestID, false, "invalid_code")
	return Outcome{
		Kind:        OutcomeMFAChallenge,
		ChallengeID: flow.ChallengeID(),
		Message:     flow.Message(),
	}, nil
}

// ResendVerification forwards a resend request for an unverified address.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	return s.backend.ResendVerification(ctx, email)
}

// Logout destroys the session and revokes any trusted-device token for the
// user. An explicit logout withdraws the consent the remember-device choice
// expressed.
func (s *Service) Logout(ctx context.Context, sessionID, requestID string) error {
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil && s.devices != nil && sess.User.ID != "" {
		if rerr := s.devices.Revoke(ctx, sess.User.ID); rerr != nil {
			s.logger.Warn("device trust revoke failed", slog.Any("error", rerr))
		}
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return err
	}
	s.record(ctx, audit.KindLogout, "", requestID, true, "")
	return nil
}

// establish writes the session and confirms it is readable before returning,
// so callers never race the store on the way to a redirect.
func (s *Service) establish(ctx context.Context, token string, user backend.User, remember bool) (session.Session, error) {
	now := time.Now().UTC()
	ttl := s.opts.SessionTTL
	if remember {
		ttl = s.opts.RememberTTL
	}
	sess := session.Session{
		ID:         uuid.NewString(),
		Token:      token,
		User:       user,
		RememberMe: remember,
		CreatedAt:  now,
		ExpiresAt:  session.TokenExpiry(token, ttl, now),
	}
	if err := s.sessions.Set(ctx, sess); err != nil {
		return session.Session{}, err
	}
	if err := session.WaitAuthenticated(ctx, s.sessions, sess.ID, s.opts.SessionPoll, s.opts.SessionWait); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *Service) record(ctx context.Context, kind, email, requestID string, success bool, reason string) {
	s.audit.Record(ctx, audit.Event{
		Kind:      kind,
		Email:     email,
		RequestID: requestID,
		Success:   success,
		Reason:    reason,
	})
}

func validateCredentials(email, password string) map[string]string {
	fields := make(map[string]string)
	if !emailPattern.MatchString(backend.NormalizeEmail(email)) {
		fields["email"] = "Enter a valid email address."
	}
	if password == "" {
		fields["password"] = "Password is required."
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

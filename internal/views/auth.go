package views

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/state"
)

// OTPLength is the number of digits in an emailed code.
const OTPLength = 6

// Login is the view-model of the login page.
type Login struct {
	api   AuthAPI
	store *state.Store

	mu     sync.Mutex
	busy   bool
	errMsg string
}

func NewLogin(api AuthAPI, store *state.Store) *Login {
	return &Login{api: api, store: store}
}

// Submit logs in and records the session. remember picks the durable
// persistence tier.
func (l *Login) Submit(ctx context.Context, email, password string, remember bool) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		l.setError(MsgLoginRequired)
		return invalid(MsgLoginRequired)
	}
	if !l.begin() {
		return ErrBusy
	}
	defer l.end()

	res, err := l.api.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		slog.Warn("Login failed", "email", email, "error", err)
		l.setError(MsgLoginFailed)
		return fmt.Errorf("login: %w", err)
	}

	l.store.LoginSuccess(res.Email, res.Token, remember)
	slog.Info("Logged in", "email", res.Email, "remember", remember)

	l.setError("")
	return nil
}

func (l *Login) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

func (l *Login) setError(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errMsg = msg
}

func (l *Login) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return false
	}
	l.busy = true
	return true
}

func (l *Login) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false
}

// Register is the view-model of the sign-up page.
type Register struct {
	api AuthAPI

	mu     sync.Mutex
	errMsg string
}

func NewRegister(api AuthAPI) *Register {
	return &Register{api: api}
}

// Submit creates the account. On success the caller sends the user to log in.
func (r *Register) Submit(ctx context.Context, reg models.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Name == "" || reg.Email == "" || reg.Password == "" {
		r.setError(MsgRegisterNeeded)
		return invalid(MsgRegisterNeeded)
	}

	if err := r.api.Register(ctx, reg); err != nil {
		slog.Warn("Registration failed", "email", reg.Email, "error", err)
		r.setError(MsgRegisterFailed)
		return fmt.Errorf("register: %w", err)
	}
	slog.Info("Registered", "email", reg.Email)

	r.setError("")
	return nil
}

func (r *Register) Error() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

func (r *Register) setError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errMsg = msg
}

// NoticeKind styles a Notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a banner message.
type Notice struct {
	Text string     `json:"text"`
	Kind NoticeKind `json:"kind"`
}

// PasswordReset is the view-model of the forgotten-password page.
type PasswordReset struct {
	api      AuthAPI
	throttle *resendThrottle

	mu     sync.Mutex
	notice Notice
}

func NewPasswordReset(api AuthAPI) *PasswordReset {
	return &PasswordReset{api: api, throttle: newResendThrottle()}
}

// SendOTP emails a reset code to email, at most once per ResendInterval.
func (p *PasswordReset) SendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		p.setNotice(NoticeError, MsgEmailRequired)
		return invalid(MsgEmailRequired)
	}

	c, wait := p.throttle.reserve()
	if c == nil {
		p.setNotice(NoticeError, fmt.Sprintf("Resend OTP in %ds", int(wait.Round(time.Second)/time.Second)))
		return ErrThrottled
	}

	if err := p.api.SendResetOTP(ctx, email); err != nil {
		p.throttle.release(c)
		slog.Warn("Failed to send reset OTP", "email", email, "error", err)
		p.setNotice(NoticeError, MsgOTPSendFailed)
		return fmt.Errorf("send reset otp: %w", err)
	}

	p.setNotice(NoticeSuccess, MsgOTPSent)
	return nil
}

// Reset sets a new password. On success the caller sends the user to log in.
func (p *PasswordReset) Reset(ctx context.Context, email, otp, password string) error {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if email == "" || password == "" || !validOTP(otp) {
		p.setNotice(NoticeError, MsgResetFields)
		return invalid(MsgResetFields)
	}

	err := p.api.ResetPassword(ctx, models.PasswordReset{Email: email, OTP: otp, Password: password})
	if err != nil {
		slog.Warn("Password reset failed", "email", email, "error", err)
		p.setNotice(NoticeError, MsgResetFailed)
		return fmt.Errorf("reset password: %w", err)
	}
	slog.Info("Password reset", "email", email)

	p.setNotice(NoticeSuccess, MsgResetDone)
	return nil
}

// ResendIn is how long until another reset code may be sent.
func (p *PasswordReset) ResendIn() time.Duration {
	return p.throttle.wait()
}

func (p *PasswordReset) Notice() Notice {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

func (p *PasswordReset) setNotice(kind NoticeKind, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = Notice{Text: text, Kind: kind}
}

func validOTP(s string) bool {
	if len(s) != OTPLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xNORAGAMIx/udhaari/internal/calculator"
	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// Profile is the view-model of the profile page. Apart from the account
// itself every section is fetched only when asked for, and failures are
// logged rather than shown.
type Profile struct {
	api      ProfileAPI
	throttle *resendThrottle

	mu       sync.Mutex
	profile  *models.Profile
	expenses []models.Expense
	sent     []models.Settlement
	received []models.Settlement
	summary  *models.SpendSummary
	loading  bool
	otpSent  bool

	expensesLoaded bool
	sentLoaded     bool
	receivedLoaded bool
}

func NewProfile(api ProfileAPI) *Profile {
	return &Profile{
		api:      api,
		throttle: newResendThrottle(),
		expenses: []models.Expense{},
		sent:     []models.Settlement{},
		received: []models.Settlement{},
	}
}

// Load fetches the account details.
func (p *Profile) Load(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	prof, err := p.api.Profile(ctx)
	if err != nil {
		slog.Warn("Failed to load profile", "error", err)
		return fmt.Errorf("load profile: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = &prof
	return nil
}

func (p *Profile) LoadExpenses(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	expenses, err := p.api.MyExpenses(ctx)
	if err != nil {
		slog.Warn("Failed to load expenses", "error", err)
		return fmt.Errorf("load expenses: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.expenses = nonNil(expenses)
	p.expensesLoaded = true
	return nil
}

func (p *Profile) LoadSentSettlements(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	sent, err := p.api.MySettlements(ctx)
	if err != nil {
		slog.Warn("Failed to load settlements", "error", err)
		return fmt.Errorf("load settlements: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nonNil(sent)
	p.sentLoaded = true
	return nil
}

func (p *Profile) LoadReceivedSettlements(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	received, err := p.api.ReceivedSettlements(ctx)
	if err != nil {
		slog.Warn("Failed to load received settlements", "error", err)
		return fmt.Errorf("load received settlements: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.received = nonNil(received)
	p.receivedLoaded = true
	return nil
}

func (p *Profile) LoadSpendSummary(ctx context.Context) error {
	p.setLoading(true)
	defer p.setLoading(false)

	summary, err := p.api.SpendSummary(ctx)
	if err != nil {
		slog.Warn("Failed to load spend summary", "error", err)
		return fmt.Errorf("load spend summary: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.summary = &summary
	return nil
}

// SendVerificationOTP emails a verification code, at most once per
// ResendInterval.
func (p *Profile) SendVerificationOTP(ctx context.Context) error {
	c, wait := p.throttle.reserve()
	if c == nil {
		slog.Info("Verification OTP throttled", "retry_in", wait.Round(time.Second))
		return ErrThrottled
	}

	if err := p.api.SendVerifyOTP(ctx); err != nil {
		p.throttle.release(c)
		slog.Error("Error sending OTP", "error", err)
		return fmt.Errorf("send verification otp: %w", err)
	}
	slog.Info("OTP sent to your email")

	p.mu.Lock()
	p.otpSent = true
	p.mu.Unlock()
	return nil
}

// VerifyOTP confirms the account. On success the local profile is marked
// verified without a re-fetch.
func (p *Profile) VerifyOTP(ctx context.Context, code string) error {
	if err := p.api.VerifyOTP(ctx, code); err != nil {
		slog.Error("OTP verification failed", "error", err)
		return fmt.Errorf("verify otp: %w", err)
	}
	slog.Info("Email verified successfully")

	p.mu.Lock()
	defer p.mu.Unlock()
	p.otpSent = false
	if p.profile != nil {
		p.profile.IsAccountVerified = true
	}
	return nil
}

// ResendIn is how long until another verification code may be sent.
func (p *Profile) ResendIn() time.Duration {
	return p.throttle.wait()
}

// Account returns the loaded profile, or false before Load succeeded.
func (p *Profile) Account() (models.Profile, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return models.Profile{}, false
	}
	return *p.profile, true
}

func (p *Profile) Expenses() []models.Expense {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Expense{}, p.expenses...)
}

func (p *Profile) SentSettlements() []models.Settlement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Settlement{}, p.sent...)
}

func (p *Profile) ReceivedSettlements() []models.Settlement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Settlement{}, p.received...)
}

// SpendSummary returns the summary, or false until it has been loaded.
func (p *Profile) SpendSummary() (models.SpendSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.summary == nil {
		return models.SpendSummary{}, false
	}
	return *p.summary, true
}

func (p *Profile) setLoading(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = v
}

// SummaryModel is the spend summary tab with its chart series.
type SummaryModel struct {
	TotalActualSpent decimal.Decimal            `json:"totalActualSpent"`
	TotalOwed        decimal.Decimal            `json:"totalOwed"`
	GroupWise        []calculator.GroupPoint    `json:"groupWise"`
	CategoryWise     []calculator.CategoryPoint `json:"categoryWise"`
}

// ProfileModel is the page as rendered. Sections that were never loaded are
// null.
type ProfileModel struct {
	Profile             *models.Profile     `json:"profile"`
	Expenses            []models.Expense    `json:"expenses"`
	SentSettlements     []models.Settlement `json:"sentSettlements"`
	ReceivedSettlements []models.Settlement `json:"receivedSettlements"`
	Summary             *SummaryModel       `json:"summary"`
	Loading             bool                `json:"loading"`
	OTPSent             bool                `json:"otpSent"`
	ResendInSeconds     int                 `json:"resendInSeconds"`
}

func (p *Profile) Model() ProfileModel {
	resend := int(p.ResendIn().Round(time.Second) / time.Second)

	p.mu.Lock()
	defer p.mu.Unlock()

	m := ProfileModel{
		Loading:         p.loading,
		OTPSent:         p.otpSent,
		ResendInSeconds: resend,
	}
	if p.profile != nil {
		prof := *p.profile
		m.Profile = &prof
	}
	if p.expensesLoaded {
		m.Expenses = append([]models.Expense{}, p.expenses...)
	}
	if p.sentLoaded {
		m.SentSettlements = append([]models.Settlement{}, p.sent...)
	}
	if p.receivedLoaded {
		m.ReceivedSettlements = append([]models.Settlement{}, p.received...)
	}
	if p.summary != nil {
		m.Summary = &SummaryModel{
			TotalActualSpent: p.summary.TotalActualSpent,
			TotalOwed:        calculator.TotalOwed(p.summary.GroupWise),
			GroupWise:        calculator.GroupSeries(*p.summary),
			CategoryWise:     calculator.CategorySeries(*p.summary),
		}
	}
	return m
}

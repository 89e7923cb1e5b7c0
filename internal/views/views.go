// Package views holds the page view-models. Each one owns a page's local
// state, talks to the backend through a narrow interface and exposes the
// user-facing message for the last failed action.
//
// Methods return errors for callers that branch on them; the Error string a
// page shows is kept separately, because the two differ: validation failures
// never reach the network, request failures show a fixed message per action,
// and some failures are only logged.
package views

import (
	"context"
	"errors"
	"fmt"

	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/state"
)

var (
	// ErrValidation means the input was rejected before any request.
	ErrValidation = errors.New("invalid input")

	// ErrBusy means another action on the same page is still running.
	ErrBusy = errors.New("another action is in progress")

	// ErrSettleNotAllowed means the current user owes nothing in the group.
	ErrSettleNotAllowed = errors.New("no balance to settle")

	// ErrThrottled means an OTP was requested again too soon.
	ErrThrottled = errors.New("please wait before requesting another code")

	// ErrSessionEnded means the user logged out or changed while a read was
	// in flight, so its result was discarded.
	ErrSessionEnded = errors.New("session ended during the request")
)

// User-facing messages.
const (
	MsgLoadGroup       = "Failed to load group data"
	MsgMemberRequired  = "Please enter an email to add."
	MsgAddMemberFailed = "Failed to add member. Make sure email is valid."
	MsgExpenseRequired = "All expense fields are required."
	MsgAddExpenseFail  = "Failed to add expense."
	MsgSettleRequired  = "Please select a user and amount to settle."
	MsgSettleFailed    = "Failed to settle balance."
	MsgSettleNotOwed   = "You don't owe anyone in this group."

	MsgLoadGroups      = "Could not load your udhaari groups. Internet chala gaya kya?"
	MsgGroupNameNeeded = "Group name is required. Naam toh do!"
	MsgCreateGroupFail = "Could not create group. Try again."
	MsgDeleteGroupFail = "Could not delete group. Try again."

	MsgLoginFailed    = "Galat email ya password. Dobara try karo!"
	MsgLoginRequired  = "Email and password are required."
	MsgRegisterFailed = "Oho! Email already registered lagta hai."
	MsgRegisterNeeded = "Name, email and password are required."

	MsgEmailRequired = "Please enter your email"
	MsgOTPSent       = "OTP sent successfully! Check your email."
	MsgOTPSendFailed = "Failed to send OTP. Please try again."
	MsgResetFields   = "Please fill all fields correctly"
	MsgResetDone     = "Password changed successfully!"
	MsgResetFailed   = "Failed to reset password. Please try again."
)

// SessionReader exposes the current session.
type SessionReader interface {
	Session() state.Session
}

// GroupAPI is the backend surface the group detail page uses.
type GroupAPI interface {
	Members(ctx context.Context, groupID string) ([]models.Member, error)
	Expenses(ctx context.Context, groupID string) ([]models.Expense, error)
	Balances(ctx context.Context, groupID string) ([]models.Balance, error)
	AddMember(ctx context.Context, groupID, email string) error
	AddExpense(ctx context.Context, groupID string, expense models.NewExpense) error
	Settle(ctx context.Context, groupID string, req models.SettleRequest) error
}

// GroupsAPI is the backend surface the group list page uses.
type GroupsAPI interface {
	MyGroups(ctx context.Context) ([]models.Group, error)
	CreateGroup(ctx context.Context, name string) error
	DeleteGroup(ctx context.Context, groupID string) error
}

// ProfileAPI is the backend surface the profile page uses.
type ProfileAPI interface {
	Profile(ctx context.Context) (models.Profile, error)
	MyExpenses(ctx context.Context) ([]models.Expense, error)
	MySettlements(ctx context.Context) ([]models.Settlement, error)
	ReceivedSettlements(ctx context.Context) ([]models.Settlement, error)
	SpendSummary(ctx context.Context) (models.SpendSummary, error)
	SendVerifyOTP(ctx context.Context) error
	VerifyOTP(ctx context.Context, otp string) error
}

// AuthAPI is the backend surface of the login, register and reset pages.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error)
	Register(ctx context.Context, reg models.Registration) error
	SendResetOTP(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req models.PasswordReset) error
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

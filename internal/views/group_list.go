package views

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xNORAGAMIx/udhaari/internal/api"
	"github.com/xNORAGAMIx/udhaari/internal/calculator"
	"github.com/xNORAGAMIx/udhaari/internal/models"
	"github.com/xNORAGAMIx/udhaari/internal/state"
)

// DefaultPageSize is the group list page size.
const DefaultPageSize = 9

// GroupList is the view-model of the groups page. The groups themselves live
// in the shared group cache; the list only adds paging and page-local state.
type GroupList struct {
	api      GroupsAPI
	store    *state.Store
	pageSize int

	mu      sync.Mutex
	page    int
	loading bool
	errMsg  string
}

func NewGroupList(api GroupsAPI, store *state.Store, pageSize int) *GroupList {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &GroupList{api: api, store: store, pageSize: pageSize, page: 1}
}

// Load fetches the user's groups into the group cache. The result is dropped
// if the session that asked for it has ended by the time it arrives.
func (l *GroupList) Load(ctx context.Context) error {
	session := l.store.Session()

	groups, err := l.api.MyGroups(ctx)
	if err != nil {
		slog.Warn("Failed to load groups", "error", err)
		l.fail(MsgLoadGroups)
		return fmt.Errorf("load groups: %w", err)
	}

	if !l.store.SetGroupsFor(session.Token, groups) {
		slog.Info("Dropped groups fetched for an ended session", "email", session.Email)
		return ErrSessionEnded
	}

	l.mu.Lock()
	l.errMsg = ""
	l.page = clampPage(l.page, l.totalPages(len(groups)))
	l.mu.Unlock()
	return nil
}

// Create makes a group, re-fetches the whole list and returns to page one.
func (l *GroupList) Create(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		l.fail(MsgGroupNameNeeded)
		return invalid(MsgGroupNameNeeded)
	}
	if !l.begin() {
		return ErrBusy
	}
	defer l.end()

	if err := l.api.CreateGroup(ctx, name); err != nil {
		slog.Warn("Failed to create group", "name", name, "error", err)
		msg := api.Message(err)
		if msg == "" {
			msg = MsgCreateGroupFail
		}
		l.fail(msg)
		return fmt.Errorf("create group: %w", err)
	}
	slog.Info("Group created", "name", name)

	if err := l.Load(ctx); err != nil {
		return err
	}
	l.SetPage(1)
	return nil
}

// Delete removes a group after confirm agrees. When the current page ends up
// empty the list steps back one page. It reports whether the group was
// deleted.
func (l *GroupList) Delete(ctx context.Context, groupID string, confirm func(models.Group) bool) (bool, error) {
	target, ok := l.find(groupID)
	if !ok {
		target = models.Group{ID: groupID}
	}
	if confirm != nil && !confirm(target) {
		return false, nil
	}
	if !l.begin() {
		return false, ErrBusy
	}
	defer l.end()

	if err := l.api.DeleteGroup(ctx, groupID); err != nil {
		slog.Warn("Failed to delete group", "group_id", groupID, "error", err)
		l.fail(MsgDeleteGroupFail)
		return false, fmt.Errorf("delete group: %w", err)
	}
	slog.Info("Group deleted", "group_id", groupID)

	if err := l.Load(ctx); err != nil {
		return true, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pageItems(l.sorted())) == 0 && l.page > 1 {
		l.page--
	}
	return true, nil
}

func (l *GroupList) find(groupID string) (models.Group, bool) {
	for _, g := range l.store.Groups() {
		if g.ID == groupID {
			return g, true
		}
	}
	return models.Group{}, false
}

// Page is the current one-based page.
func (l *GroupList) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// TotalPages is zero when there are no groups.
func (l *GroupList) TotalPages() int {
	return l.totalPages(len(l.store.Groups()))
}

func (l *GroupList) totalPages(n int) int {
	return (n + l.pageSize - 1) / l.pageSize
}

// SetPage moves to page n, clamped to the existing pages.
func (l *GroupList) SetPage(n int) {
	total := l.TotalPages()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = clampPage(n, total)
}

func clampPage(n, total int) int {
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Items is the current page, newest group first.
func (l *GroupList) Items() []models.Group {
	sorted := l.sorted()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageItems(sorted)
}

func (l *GroupList) sorted() []models.Group {
	groups := l.store.Groups()
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt.Time)
	})
	return groups
}

func (l *GroupList) pageItems(sorted []models.Group) []models.Group {
	start := (l.page - 1) * l.pageSize
	if start >= len(sorted) {
		return []models.Group{}
	}
	end := min(start+l.pageSize, len(sorted))
	return sorted[start:end]
}

func (l *GroupList) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

func (l *GroupList) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errMsg
}

// GroupCard is one tile of the groups page.
type GroupCard struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Created      string          `json:"created"`
	MemberCount  int             `json:"memberCount"`
	ExpenseTotal decimal.Decimal `json:"expenseTotal"`
	Members      []models.Member `json:"members"`
}

func NewGroupCard(g models.Group) GroupCard {
	return GroupCard{
		ID:           g.ID,
		Name:         g.Name,
		Created:      g.CreatedAt.Display(),
		MemberCount:  len(g.Members),
		ExpenseTotal: calculator.TotalExpenses(g.Expenses),
		Members:      g.Members,
	}
}

// GroupListModel is the page as rendered.
type GroupListModel struct {
	Groups     []GroupCard `json:"groups"`
	Page       int         `json:"page"`
	TotalPages int         `json:"totalPages"`
	Loading    bool        `json:"loading"`
	Error      string      `json:"error,omitempty"`
}

func (l *GroupList) Model() GroupListModel {
	items := l.Items()
	cards := make([]GroupCard, 0, len(items))
	for _, g := range items {
		cards = append(cards, NewGroupCard(g))
	}
	return GroupListModel{
		Groups:     cards,
		Page:       l.Page(),
		TotalPages: l.TotalPages(),
		Loading:    l.Loading(),
		Error:      l.Error(),
	}
}

func (l *GroupList) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loading {
		return false
	}
	l.loading = true
	return true
}

func (l *GroupList) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
}

func (l *GroupList) fail(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errMsg = msg
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/assistant"
	"github.com/mmynk/splitledger/internal/automation"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/replica"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

// DefaultCurrency is used when neither the request nor the group names one.
const DefaultCurrency = "USD"

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrInvalidSplits = errors.New("invalid splits")
)

var _ ledgerrpc.LedgerServiceHandler = (*Ledger)(nil)

// Ledger implements the Connect LedgerService on top of a replica.
// Every mutation goes through replica.Dispatch or Modify so it is persisted and
// broadcast to the other clients of the session.
type Ledger struct {
	replica  *replica.Replica
	advisor  *assistant.Advisor
	receipts *assistant.ReceiptReader
	notifier notify.Sender
	now      func() time.Time
	newID    func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

func WithAdvisor(a *assistant.Advisor) Option {
	return func(l *Ledger) { l.advisor = a }
}

func WithReceiptReader(r *assistant.ReceiptReader) Option {
	return func(l *Ledger) { l.receipts = r }
}

func WithNotifier(n notify.Sender) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// NewLedger creates the service. Collaborators that are not supplied fall
// back to offline implementations.
func NewLedger(r *replica.Replica, opts ...Option) *Ledger {
	l := &Ledger{
		replica: r,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.advisor == nil {
		l.advisor = assistant.NewAdvisor(nil, assistant.WithClock(l.now), assistant.WithIDs(l.newID))
	}
	if l.receipts == nil {
		l.receipts = assistant.NewReceiptReader(nil, nil)
	}
	if l.notifier == nil {
		l.notifier = notify.NewResend("", "")
	}
	return l
}

// AddGroup creates a new group. The current user is the only member when
// none are given.
func (s *Ledger) AddGroup(ctx context.Context, req *connect.Request[ledgerrpc.AddGroupRequest]) (*connect.Response[ledgerrpc.AddGroupResponse], error) {
	slog.Info("AddGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	now := s.now().UTC()
	members := dedupe(req.Msg.MemberIDs)
	if len(members) == 0 {
		members = []string{s.replica.Snapshot().CurrentUser.ID}
	}
	currency := req.Msg.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	group := models.Group{
		ID:          s.newID(),
		Name:        req.Msg.Name,
		Description: req.Msg.Description,
		CoverImage:  req.Msg.CoverImage,
		Currency:    currency,
		MemberIDs:   members,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.replica.Dispatch(ctx, ledger.AddGroup{Group: group})

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&ledgerrpc.AddGroupResponse{Group: group}), nil
}

// UpdateGroup merges the non-empty request fields into an existing group.
func (s *Ledger) UpdateGroup(ctx context.Context, req *connect.Request[ledgerrpc.UpdateGroupRequest]) (*connect.Response[ledgerrpc.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received", "group_id", req.Msg.GroupID)

	var group models.Group
	_, err := s.replica.Modify(ctx, func(state ledger.State) (ledger.Command, error) {
		g, ok := state.Group(req.Msg.GroupID)
		if !ok {
			return nil, groupNotFound(req.Msg.GroupID)
		}
		if req.Msg.Name != "" {
			g.Name = req.Msg.Name
		}
		if req.Msg.Description != "" {
			g.Description = req.Msg.Description
		}
		if req.Msg.CoverImage != "" {
			g.CoverImage = req.Msg.CoverImage
		}
		g.MemberIDs = dedupe(append(slices.Clone(g.MemberIDs), req.Msg.AddMemberIDs...))
		g.UpdatedAt = s.now().UTC()
		group = g
		return ledger.UpdateGroup{Group: g}, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Group updated", "group_id", group.ID, "members_count", len(group.MemberIDs))
	return connect.NewResponse(&ledgerrpc.UpdateGroupResponse{Group: group}), nil
}

// AddExpense records an expense. Splits are rejected unless they add up
// to the amount.
func (s *Ledger) AddExpense(ctx context.Context, req *connect.Request[ledgerrpc.AddExpenseRequest]) (*connect.Response[ledgerrpc.AddExpenseResponse], error) {
	msg := req.Msg
	slog.Info("AddExpense request received",
		"group_id", msg.GroupID,
		"amount", msg.Amount,
		"splits_count", len(msg.Splits),
		"percentages_count", len(msg.Percentages),
	)

	state := s.replica.Snapshot()
	payer := msg.PayerID
	if payer == "" {
		payer = state.CurrentUser.ID
	}

	var group *models.Group
	if msg.GroupID != "" {
		g, ok := state.Group(msg.GroupID)
		if !ok {
			return nil, groupNotFound(msg.GroupID)
		}
		group = &g
	}

	splits, err := buildSplits(msg, payer, group)
	if err != nil {
		slog.Warn("AddExpense rejected", "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	currency := msg.Currency
	if currency == "" && group != nil {
		currency = group.Currency
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	expense := models.Expense{
		ID:         s.newID(),
		GroupID:    msg.GroupID,
		PayerID:    payer,
		Title:      msg.Title,
		Amount:     msg.Amount,
		Currency:   currency,
		Category:   msg.Category,
		Notes:      msg.Notes,
		CreatedAt:  s.now().UTC(),
		Splits:     splits,
		ReceiptURL: msg.ReceiptURL,
		Tags:       msg.Tags,
		Location:   msg.Location,
	}
	s.replica.Dispatch(ctx, ledger.AddExpense{Expense: expense})

	slog.Info("Expense recorded", "expense_id", expense.ID, "splits_count", len(splits))
	return connect.NewResponse(&ledgerrpc.AddExpenseResponse{Expense: expense}), nil
}

func buildSplits(msg *ledgerrpc.AddExpenseRequest, payer string, group *models.Group) ([]models.ExpenseSplit, error) {
	switch {
	case len(msg.Splits) > 0:
		if err := calculator.ValidateSplits(msg.Amount, msg.Splits); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSplits, err)
		}
		return slices.Clone(msg.Splits), nil
	case len(msg.Percentages) > 0:
		order := make([]string, 0, len(msg.Percentages))
		for id := range msg.Percentages {
			order = append(order, id)
		}
		sort.Strings(order)
		splits, err := calculator.PercentageSplits(msg.Amount, msg.Percentages, order)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSplits, err)
		}
		return splits, nil
	default:
		participants := []string{payer}
		if group != nil && len(group.MemberIDs) > 0 {
			participants = group.MemberIDs
		}
		splits, err := calculator.EqualSplits(msg.Amount, participants)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSplits, err)
		}
		return splits, nil
	}
}

// UpdateProfile merges the non-empty request fields into the current user.
func (s *Ledger) UpdateProfile(ctx context.Context, req *connect.Request[ledgerrpc.UpdateProfileRequest]) (*connect.Response[ledgerrpc.UpdateProfileResponse], error) {
	slog.Info("UpdateProfile request received")

	next, _ := s.replica.Modify(ctx, func(state ledger.State) (ledger.Command, error) {
		user := state.CurrentUser
		if req.Msg.Name != "" {
			user.Name = req.Msg.Name
		}
		if req.Msg.Email != "" {
			user.Email = req.Msg.Email
		}
		if req.Msg.AvatarURL != "" {
			user.AvatarURL = req.Msg.AvatarURL
		}
		if req.Msg.PreferredLanguage != "" {
			user.PreferredLanguage = req.Msg.PreferredLanguage
		}
		if req.Msg.MonthlyBudget != nil {
			user.MonthlyBudget = *req.Msg.MonthlyBudget
		}
		return ledger.UpdateProfile{User: user}, nil
	})
	user := next.CurrentUser
	return connect.NewResponse(&ledgerrpc.UpdateProfileResponse{User: user}), nil
}

// OptimizeSettlements replaces the settlement list with the minimal
// transfer plan for all expenses, or one group's expenses.
func (s *Ledger) OptimizeSettlements(ctx context.Context, req *connect.Request[ledgerrpc.OptimizeSettlementsRequest]) (*connect.Response[ledgerrpc.OptimizeSettlementsResponse], error) {
	slog.Info("OptimizeSettlements request received", "group_id", req.Msg.GroupID)

	state := s.replica.Snapshot()
	expenses := state.Expenses
	if req.Msg.GroupID != "" {
		if _, ok := state.Group(req.Msg.GroupID); !ok {
			return nil, groupNotFound(req.Msg.GroupID)
		}
		expenses = calculator.ScopeToGroup(expenses, req.Msg.GroupID)
	}

	settlements := calculator.OptimizeSettlements(expenses)
	s.replica.Dispatch(ctx, ledger.SetSettlements{Settlements: settlements})

	slog.Info("Settlements optimized", "transfers", len(settlements))
	return connect.NewResponse(&ledgerrpc.OptimizeSettlementsResponse{Settlements: settlements}), nil
}

// RefreshInsights regenerates insights. The loading flag is local to this
// replica and is cleared even when the advisor falls back.
func (s *Ledger) RefreshInsights(ctx context.Context, req *connect.Request[ledgerrpc.RefreshInsightsRequest]) (*connect.Response[ledgerrpc.RefreshInsightsResponse], error) {
	slog.Info("RefreshInsights request received")

	state := s.replica.ApplyLocal(ctx, ledger.SetLoading{Loading: true})
	insights, notice := s.advisor.Insights(ctx, state.Groups, state.Expenses)
	s.replica.ApplyLocal(ctx, ledger.SetLoading{Loading: false})

	s.replica.Dispatch(ctx, ledger.SetInsights{Insights: insights})
	return connect.NewResponse(&ledgerrpc.RefreshInsightsResponse{
		Insights: insights,
		Notice:   string(notice),
	}), nil
}

// GenerateReport adds a report for all groups, or one group.
func (s *Ledger) GenerateReport(ctx context.Context, req *connect.Request[ledgerrpc.GenerateReportRequest]) (*connect.Response[ledgerrpc.GenerateReportResponse], error) {
	slog.Info("GenerateReport request received", "group_id", req.Msg.GroupID)

	state := s.replica.Snapshot()
	if req.Msg.GroupID != "" {
		if _, ok := state.Group(req.Msg.GroupID); !ok {
			return nil, groupNotFound(req.Msg.GroupID)
		}
	}

	report, notice := s.advisor.Report(ctx, req.Msg.GroupID, state.Groups, state.Expenses)
	s.replica.Dispatch(ctx, ledger.AddReport{Report: report})

	slog.Info("Report generated", "report_id", report.ID, "notice", notice)
	return connect.NewResponse(&ledgerrpc.GenerateReportResponse{
		Report: report,
		Notice: string(notice),
	}), nil
}

// Chat answers the conversation. Chat history is not part of the ledger.
func (s *Ledger) Chat(ctx context.Context, req *connect.Request[ledgerrpc.ChatRequest]) (*connect.Response[ledgerrpc.ChatResponse], error) {
	slog.Info("Chat request received", "messages_count", len(req.Msg.Messages))

	state := s.replica.Snapshot()
	reply, notice := s.advisor.Chat(ctx, req.Msg.Messages, state.Groups, state.Expenses)
	return connect.NewResponse(&ledgerrpc.ChatResponse{
		Message: reply,
		Notice:  string(notice),
	}), nil
}

// SendReminder emails a settle-up reminder.
func (s *Ledger) SendReminder(ctx context.Context, req *connect.Request[ledgerrpc.SendReminderRequest]) (*connect.Response[ledgerrpc.SendReminderResponse], error) {
	slog.Info("SendReminder request received", "to", req.Msg.To, "amount", req.Msg.Amount)

	d := s.notifier.SendReminder(ctx, notify.Reminder{
		To:     req.Msg.To,
		Amount: req.Msg.Amount,
		Note:   req.Msg.Note,
	})
	return connect.NewResponse(&ledgerrpc.SendReminderResponse{OK: d.OK, Delivered: d.Delivered}), nil
}

// ScanBudget replaces the budget alerts with this month's scan.
func (s *Ledger) ScanBudget(ctx context.Context, req *connect.Request[ledgerrpc.ScanBudgetRequest]) (*connect.Response[ledgerrpc.ScanBudgetResponse], error) {
	slog.Info("ScanBudget request received")

	state := s.replica.Snapshot()
	alerts := automation.ScanBudget(state.CurrentUser, state.Expenses, s.now(), s.newID)
	s.replica.Dispatch(ctx, ledger.SetAlerts{Alerts: alerts})

	slog.Info("Budget scanned", "alerts", len(alerts))
	return connect.NewResponse(&ledgerrpc.ScanBudgetResponse{Alerts: alerts}), nil
}

// ScanReceipt reads a receipt photo. Nothing is written to the ledger.
func (s *Ledger) ScanReceipt(ctx context.Context, req *connect.Request[ledgerrpc.ScanReceiptRequest]) (*connect.Response[ledgerrpc.ScanReceiptResponse], error) {
	slog.Info("ScanReceipt request received", "bytes", len(req.Msg.Image), "structured", req.Msg.Structured)

	resp := &ledgerrpc.ScanReceiptResponse{}
	if req.Msg.Structured {
		extraction, notice := s.receipts.Extract(ctx, req.Msg.Image, req.Msg.MediaType)
		resp.Notice = string(notice)
		if notice == "" {
			resp.Extraction = &extraction
		}
		return connect.NewResponse(resp), nil
	}

	text, notice := s.receipts.Read(ctx, req.Msg.Image, req.Msg.MediaType)
	resp.Text = text
	resp.Notice = string(notice)
	return connect.NewResponse(resp), nil
}

// GetSnapshot returns a copy of the replica's state.
func (s *Ledger) GetSnapshot(ctx context.Context, req *connect.Request[ledgerrpc.GetSnapshotRequest]) (*connect.Response[ledgerrpc.GetSnapshotResponse], error) {
	return connect.NewResponse(&ledgerrpc.GetSnapshotResponse{State: s.replica.Snapshot()}), nil
}

// GetSummary returns balances and spend analytics, optionally for one group.
func (s *Ledger) GetSummary(ctx context.Context, req *connect.Request[ledgerrpc.GetSummaryRequest]) (*connect.Response[ledgerrpc.GetSummaryResponse], error) {
	state := s.replica.Snapshot()
	expenses := state.Expenses
	groupCount := len(state.Groups)
	if req.Msg.GroupID != "" {
		if _, ok := state.Group(req.Msg.GroupID); !ok {
			return nil, groupNotFound(req.Msg.GroupID)
		}
		expenses = calculator.ScopeToGroup(expenses, req.Msg.GroupID)
		groupCount = 1
	}

	now := s.now()
	return connect.NewResponse(&ledgerrpc.GetSummaryResponse{
		TotalSpend:     calculator.TotalSpend(expenses),
		MonthlySpend:   calculator.MonthlySpend(expenses, now),
		ExpenseCount:   len(expenses),
		GroupCount:     groupCount,
		Balances:       calculator.NetBalances(expenses),
		MonthlyTotals:  calculator.MonthlyTotals(expenses),
		CategoryTotals: calculator.CategoryTotals(expenses, time.Time{}),
	}), nil
}

func groupNotFound(id string) error {
	return connect.NewError(connect.CodeNotFound, fmt.Errorf("%w: %s", ErrGroupNotFound, id))
}

// dedupe drops empty and repeated IDs, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

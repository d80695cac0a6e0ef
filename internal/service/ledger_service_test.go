package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/assistant"
	busmemory "github.com/mmynk/splitledger/internal/bus/memory"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/replica"
	storememory "github.com/mmynk/splitledger/internal/storage/memory"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
)

const testSession = "lisbon"

var testNow = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

// setupTestServer creates a test server backed by an in-memory replica
// joined to hub.
func setupTestServer(t *testing.T, hub *busmemory.Hub, opts ...Option) (*ledgerrpc.LedgerServiceClient, *replica.Replica) {
	t.Helper()

	endpoint := hub.Join(testSession)
	r, err := replica.New(context.Background(), replica.Options{
		Store:   storememory.New(nil),
		Bus:     endpoint,
		Session: testSession,
		Origin:  "server",
		Clock:   func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("failed to create replica: %v", err)
	}

	n := 0
	svc := NewLedger(r, append([]Option{
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string { n++; return fmt.Sprintf("id-%d", n) }),
	}, opts...)...)

	path, handler := ledgerrpc.NewLedgerServiceHandler(svc, connect.WithInterceptors(
		middleware.LoggingInterceptor(nil),
		middleware.ValidationInterceptor(middleware.NewValidator()),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		endpoint.Close()
	})

	return ledgerrpc.NewLedgerServiceClient(http.DefaultClient, server.URL), r
}

func newClient(t *testing.T) (*ledgerrpc.LedgerServiceClient, *replica.Replica) {
	t.Helper()
	return setupTestServer(t, busmemory.NewHub())
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("code: expected %v, got %v (%v)", want, got, err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.001
}

func addGroup(t *testing.T, client *ledgerrpc.LedgerServiceClient, name string, members ...string) models.Group {
	t.Helper()
	resp, err := client.AddGroup(context.Background(), connect.NewRequest(&ledgerrpc.AddGroupRequest{
		Name:      name,
		MemberIDs: members,
	}))
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	return resp.Msg.Group
}

func TestAddGroup(t *testing.T) {
	client, r := newClient(t)

	group := addGroup(t, client, "Roommates", "user_001", "user_002", "user_002", "user_003")

	if group.ID != "id-1" {
		t.Errorf("id: expected 'id-1', got '%s'", group.ID)
	}
	if group.Currency != DefaultCurrency {
		t.Errorf("currency: expected %s, got %s", DefaultCurrency, group.Currency)
	}
	if len(group.MemberIDs) != 3 {
		t.Errorf("members: expected 3 after dedupe, got %d", len(group.MemberIDs))
	}
	if !group.CreatedAt.Equal(testNow) {
		t.Errorf("createdAt: expected %v, got %v", testNow, group.CreatedAt)
	}

	state := r.Snapshot()
	if len(state.Groups) != 1 || state.Groups[0].ID != group.ID {
		t.Errorf("expected replica to hold the new group, got %+v", state.Groups)
	}
}

func TestAddGroup_DefaultsToCurrentUser(t *testing.T) {
	client, r := newClient(t)

	group := addGroup(t, client, "Solo")

	if len(group.MemberIDs) != 1 || group.MemberIDs[0] != r.Snapshot().CurrentUser.ID {
		t.Errorf("members: expected only the current user, got %v", group.MemberIDs)
	}
}

func TestAddGroup_Validation(t *testing.T) {
	client, _ := newClient(t)

	tests := []struct {
		name string
		req  *ledgerrpc.AddGroupRequest
	}{
		{"missing name", &ledgerrpc.AddGroupRequest{}},
		{"bad currency", &ledgerrpc.AddGroupRequest{Name: "Trip", Currency: "EURO"}},
		{"bad cover image", &ledgerrpc.AddGroupRequest{Name: "Trip", CoverImage: "not a url"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.AddGroup(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, connect.CodeInvalidArgument)
		})
	}
}

func TestUpdateGroup(t *testing.T) {
	client, r := newClient(t)
	group := addGroup(t, client, "Trip", "user_001", "user_002")

	resp, err := client.UpdateGroup(context.Background(), connect.NewRequest(&ledgerrpc.UpdateGroupRequest{
		GroupID:      group.ID,
		Name:         "Lisbon Trip",
		AddMemberIDs: []string{"user_002", "user_003"},
	}))
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}

	updated := resp.Msg.Group
	if updated.Name != "Lisbon Trip" {
		t.Errorf("name: expected 'Lisbon Trip', got '%s'", updated.Name)
	}
	want := []string{"user_001", "user_002", "user_003"}
	if fmt.Sprint(updated.MemberIDs) != fmt.Sprint(want) {
		t.Errorf("members: expected %v, got %v", want, updated.MemberIDs)
	}
	if updated.Currency != group.Currency {
		t.Errorf("currency changed: %s -> %s", group.Currency, updated.Currency)
	}

	stored, _ := r.Snapshot().Group(group.ID)
	if stored.Name != "Lisbon Trip" {
		t.Errorf("replica not updated: %+v", stored)
	}
}

func TestUpdateGroup_ConcurrentMembersAllKept(t *testing.T) {
	client, r := newClient(t)
	group := addGroup(t, client, "Trip", "user_001")

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.UpdateGroup(context.Background(), connect.NewRequest(&ledgerrpc.UpdateGroupRequest{
				GroupID:      group.ID,
				AddMemberIDs: []string{fmt.Sprintf("user_%03d", 100+i)},
			}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("UpdateGroup failed: %v", err)
		}
	}

	stored, _ := r.Snapshot().Group(group.ID)
	if len(stored.MemberIDs) != callers+1 {
		t.Errorf("members: expected %d, got %v", callers+1, stored.MemberIDs)
	}
}

func TestUpdateGroup_NotFound(t *testing.T) {
	client, _ := newClient(t)

	_, err := client.UpdateGroup(context.Background(), connect.NewRequest(&ledgerrpc.UpdateGroupRequest{
		GroupID: "missing",
		Name:    "Nope",
	}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestAddExpense_EqualSplitAcrossMembers(t *testing.T) {
	client, _ := newClient(t)
	group := addGroup(t, client, "Trip", "user_001", "user_002", "user_003")

	resp, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		GroupID:  group.ID,
		Title:    "Dinner",
		Amount:   100,
		Category: "Dining",
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	expense := resp.Msg.Expense
	if expense.PayerID != "user_001" {
		t.Errorf("payer: expected current user, got %s", expense.PayerID)
	}
	if len(expense.Splits) != 3 {
		t.Fatalf("splits: expected 3, got %d", len(expense.Splits))
	}
	if !almostEqual(expense.SplitTotal(), 100) {
		t.Errorf("split total: expected 100, got %.2f", expense.SplitTotal())
	}
	if !almostEqual(expense.Splits[0].Amount, 33.34) {
		t.Errorf("first split should absorb rounding: got %.2f", expense.Splits[0].Amount)
	}
}

func TestAddExpense_PersonalDefaults(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		Title:  "Coffee",
		Amount: 4.5,
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	expense := resp.Msg.Expense
	if !expense.IsPersonal() {
		t.Error("expected a personal expense")
	}
	if expense.Currency != DefaultCurrency {
		t.Errorf("currency: expected %s, got %s", DefaultCurrency, expense.Currency)
	}
	if len(expense.Splits) != 1 || expense.Splits[0].UserID != "user_001" || !almostEqual(expense.Splits[0].Amount, 4.5) {
		t.Errorf("expected the payer to carry the whole amount, got %+v", expense.Splits)
	}
}

func TestAddExpense_GroupCurrency(t *testing.T) {
	client, _ := newClient(t)
	resp, err := client.AddGroup(context.Background(), connect.NewRequest(&ledgerrpc.AddGroupRequest{
		Name:      "Lisbon",
		Currency:  "EUR",
		MemberIDs: []string{"user_001", "user_002"},
	}))
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}

	expResp, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		GroupID: resp.Msg.Group.ID,
		Title:   "Tram",
		Amount:  12,
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if expResp.Msg.Expense.Currency != "EUR" {
		t.Errorf("currency: expected EUR from group, got %s", expResp.Msg.Expense.Currency)
	}
}

func TestAddExpense_Percentages(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		Title:       "Taxi",
		Amount:      50,
		Percentages: map[string]float64{"user_002": 40, "user_001": 60},
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	splits := resp.Msg.Expense.Splits
	if len(splits) != 2 {
		t.Fatalf("splits: expected 2, got %d", len(splits))
	}
	if splits[0].UserID != "user_001" || !almostEqual(splits[0].Amount, 30) {
		t.Errorf("split 0: expected user_001 30.00, got %s %.2f", splits[0].UserID, splits[0].Amount)
	}
	if splits[1].UserID != "user_002" || !almostEqual(splits[1].Amount, 20) {
		t.Errorf("split 1: expected user_002 20.00, got %s %.2f", splits[1].UserID, splits[1].Amount)
	}
}

func TestAddExpense_Rejected(t *testing.T) {
	client, r := newClient(t)

	tests := []struct {
		name string
		req  *ledgerrpc.AddExpenseRequest
		code connect.Code
	}{
		{
			name: "splits do not add up",
			req: &ledgerrpc.AddExpenseRequest{Title: "Dinner", Amount: 100, Splits: []models.ExpenseSplit{
				{UserID: "user_001", Amount: 50},
				{UserID: "user_002", Amount: 40},
			}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "percentages do not add up",
			req:  &ledgerrpc.AddExpenseRequest{Title: "Dinner", Amount: 100, Percentages: map[string]float64{"user_001": 50}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "negative percentage",
			req:  &ledgerrpc.AddExpenseRequest{Title: "Dinner", Amount: 100, Percentages: map[string]float64{"user_001": 150, "user_002": -50}},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "splits and percentages together",
			req: &ledgerrpc.AddExpenseRequest{
				Title:       "Dinner",
				Amount:      100,
				Splits:      []models.ExpenseSplit{{UserID: "user_001", Amount: 100}},
				Percentages: map[string]float64{"user_001": 100},
			},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "non-positive amount",
			req:  &ledgerrpc.AddExpenseRequest{Title: "Dinner", Amount: 0},
			code: connect.CodeInvalidArgument,
		},
		{
			name: "unknown group",
			req:  &ledgerrpc.AddExpenseRequest{GroupID: "missing", Title: "Dinner", Amount: 10},
			code: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.AddExpense(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.code)
		})
	}

	if n := len(r.Snapshot().Expenses); n != 0 {
		t.Errorf("rejected expenses must not reach the ledger, got %d", n)
	}
}

func TestBuildSplits_WrapsErrInvalidSplits(t *testing.T) {
	_, err := buildSplits(&ledgerrpc.AddExpenseRequest{
		Amount: 10,
		Splits: []models.ExpenseSplit{{UserID: "a", Amount: 3}},
	}, "a", nil)
	if !errors.Is(err, ErrInvalidSplits) {
		t.Errorf("expected ErrInvalidSplits, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	client, r := newClient(t)
	budget := 900.0

	resp, err := client.UpdateProfile(context.Background(), connect.NewRequest(&ledgerrpc.UpdateProfileRequest{
		Name:          "Jordan A.",
		MonthlyBudget: &budget,
	}))
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	user := resp.Msg.User
	if user.Name != "Jordan A." || user.MonthlyBudget != 900 {
		t.Errorf("unexpected profile: %+v", user)
	}
	if user.Email != "jordan@example.com" {
		t.Errorf("email should be unchanged, got %s", user.Email)
	}
	if r.Snapshot().CurrentUser != user {
		t.Errorf("replica profile not updated: %+v", r.Snapshot().CurrentUser)
	}

	_, err = client.UpdateProfile(context.Background(), connect.NewRequest(&ledgerrpc.UpdateProfileRequest{Email: "nope"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestOptimizeSettlements(t *testing.T) {
	client, r := newClient(t)
	group := addGroup(t, client, "Trip", "user_001", "user_002")
	_, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		GroupID: group.ID,
		Title:   "Hotel",
		Amount:  100,
	}))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	resp, err := client.OptimizeSettlements(context.Background(), connect.NewRequest(&ledgerrpc.OptimizeSettlementsRequest{
		GroupID: group.ID,
	}))
	if err != nil {
		t.Fatalf("OptimizeSettlements failed: %v", err)
	}

	want := models.Settlement{From: "user_002", To: "user_001", Amount: 50, Currency: "USD"}
	if len(resp.Msg.Settlements) != 1 || resp.Msg.Settlements[0] != want {
		t.Fatalf("expected %+v, got %+v", want, resp.Msg.Settlements)
	}
	if got := r.Snapshot().Settlements; len(got) != 1 || got[0] != want {
		t.Errorf("replica settlements: expected %+v, got %+v", want, got)
	}

	_, err = client.OptimizeSettlements(context.Background(), connect.NewRequest(&ledgerrpc.OptimizeSettlementsRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestRefreshInsights_Offline(t *testing.T) {
	client, r := newClient(t)
	addGroup(t, client, "Trip", "user_001", "user_002")

	resp, err := client.RefreshInsights(context.Background(), connect.NewRequest(&ledgerrpc.RefreshInsightsRequest{}))
	if err != nil {
		t.Fatalf("RefreshInsights failed: %v", err)
	}

	if resp.Msg.Notice != string(assistant.NoticeOffline) {
		t.Errorf("notice: expected offline, got %q", resp.Msg.Notice)
	}
	if len(resp.Msg.Insights) == 0 {
		t.Error("expected a fallback insight")
	}

	state := r.Snapshot()
	if state.IsLoading {
		t.Error("loading flag should be cleared")
	}
	if len(state.Insights) != len(resp.Msg.Insights) {
		t.Errorf("replica insights: expected %d, got %d", len(resp.Msg.Insights), len(state.Insights))
	}
}

func TestGenerateReport(t *testing.T) {
	client, r := newClient(t)
	group := addGroup(t, client, "Trip", "user_001", "user_002")

	resp, err := client.GenerateReport(context.Background(), connect.NewRequest(&ledgerrpc.GenerateReportRequest{
		GroupID: group.ID,
	}))
	if err != nil {
		t.Fatalf("GenerateReport failed: %v", err)
	}

	if resp.Msg.Report.GroupID != group.ID {
		t.Errorf("report group: expected %s, got %s", group.ID, resp.Msg.Report.GroupID)
	}
	if resp.Msg.Notice == "" {
		t.Error("expected a fallback notice without an assistant")
	}
	if reports := r.Snapshot().Reports; len(reports) != 1 || reports[0].ID != resp.Msg.Report.ID {
		t.Errorf("report not stored: %+v", reports)
	}

	_, err = client.GenerateReport(context.Background(), connect.NewRequest(&ledgerrpc.GenerateReportRequest{GroupID: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestChat(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.Chat(context.Background(), connect.NewRequest(&ledgerrpc.ChatRequest{
		Messages: []models.AiMessage{{ID: "m1", Role: models.RoleUser, Content: "How am I doing?", CreatedAt: testNow}},
	}))
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Msg.Message.Role != models.RoleAssistant || resp.Msg.Message.Content == "" {
		t.Errorf("unexpected reply: %+v", resp.Msg.Message)
	}

	_, err = client.Chat(context.Background(), connect.NewRequest(&ledgerrpc.ChatRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestSendReminder_NotConfigured(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.SendReminder(context.Background(), connect.NewRequest(&ledgerrpc.SendReminderRequest{
		To:     "sam@example.com",
		Amount: 25,
	}))
	if err != nil {
		t.Fatalf("SendReminder failed: %v", err)
	}
	if !resp.Msg.OK || resp.Msg.Delivered {
		t.Errorf("expected ok but undelivered, got %+v", resp.Msg)
	}

	_, err = client.SendReminder(context.Background(), connect.NewRequest(&ledgerrpc.SendReminderRequest{To: "not-an-email", Amount: 25}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestScanBudget(t *testing.T) {
	client, r := newClient(t)
	budget := 100.0
	if _, err := client.UpdateProfile(context.Background(), connect.NewRequest(&ledgerrpc.UpdateProfileRequest{MonthlyBudget: &budget})); err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if _, err := client.AddExpense(context.Background(), connect.NewRequest(&ledgerrpc.AddExpenseRequest{
		Title:    "Groceries",
		Amount:   90,
		Category: "Groceries",
	})); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	resp, err := client.ScanBudget(context.Background(), connect.NewRequest(&ledgerrpc.ScanBudgetRequest{}))
	if err != nil {
		t.Fatalf("ScanBudget failed: %v", err)
	}

	if len(resp.Msg.Alerts) != 1 {
		t.Fatalf("alerts: expected 1, got %d", len(resp.Msg.Alerts))
	}
	if !almostEqual(resp.Msg.Alerts[0].ProjectedOverspend, 10) {
		t.Errorf("overspend: expected 10.00, got %.2f", resp.Msg.Alerts[0].ProjectedOverspend)
	}
	if len(r.Snapshot().BudgetAlerts) != 1 {
		t.Errorf("replica alerts not replaced: %+v", r.Snapshot().BudgetAlerts)
	}
}

func TestScanReceipt_UnsupportedImage(t *testing.T) {
	client, _ := newClient(t)

	resp, err := client.ScanReceipt(context.Background(), connect.NewRequest(&ledgerrpc.ScanReceiptRequest{
		Image: []byte("plain text, not a photo"),
	}))
	if err != nil {
		t.Fatalf("ScanReceipt failed: %v", err)
	}
	if resp.Msg.Notice != string(assistant.NoticeUnsupportedImage) {
		t.Errorf("notice: expected unsupported image, got %q", resp.Msg.Notice)
	}

	_, err = client.ScanReceipt(context.Background(), connect.NewRequest(&ledgerrpc.ScanReceiptRequest{}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

type cannedCompleter struct{ reply string }

func (c cannedCompleter) Complete(context.Context, assistant.Request) (string, error) {
	return c.reply, nil
}

func TestScanReceipt_Structured(t *testing.T) {
	reader := assistant.NewReceiptReader(cannedCompleter{
		reply: `{"merchant":"Rainbow Grocery","total":18.5,"currency":"USD","date":"2024-03-14","items":[],"notes":"paid by card"}`,
	}, nil)
	client, _ := setupTestServer(t, busmemory.NewHub(), WithReceiptReader(reader))

	resp, err := client.ScanReceipt(context.Background(), connect.NewRequest(&ledgerrpc.ScanReceiptRequest{
		Image:      []byte("\x89PNG\r\n\x1a\n0000"),
		Structured: true,
	}))
	if err != nil {
		t.Fatalf("ScanReceipt failed: %v", err)
	}
	if resp.Msg.Notice != "" {
		t.Fatalf("unexpected notice: %q", resp.Msg.Notice)
	}
	if resp.Msg.Extraction == nil || resp.Msg.Extraction.Merchant != "Rainbow Grocery" {
		t.Errorf("extraction: got %+v", resp.Msg.Extraction)
	}
	if resp.Msg.Text != "" {
		t.Errorf("text: structured scans carry no transcription, got %q", resp.Msg.Text)
	}
}

func TestGetSummary(t *testing.T) {
	client, _ := newClient(t)
	trip := addGroup(t, client, "Trip", "user_001", "user_002")
	for _, req := range []*ledgerrpc.AddExpenseRequest{
		{GroupID: trip.ID, Title: "Hotel", Amount: 200, Category: "Travel"},
		{GroupID: trip.ID, Title: "Dinner", Amount: 60, Category: "Dining"},
		{Title: "Coffee", Amount: 5, Category: "Dining"},
	} {
		if _, err := client.AddExpense(context.Background(), connect.NewRequest(req)); err != nil {
			t.Fatalf("AddExpense failed: %v", err)
		}
	}

	all, err := client.GetSummary(context.Background(), connect.NewRequest(&ledgerrpc.GetSummaryRequest{}))
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if all.Msg.ExpenseCount != 3 || !almostEqual(all.Msg.TotalSpend, 265) {
		t.Errorf("summary: expected 3 expenses totalling 265, got %d / %.2f", all.Msg.ExpenseCount, all.Msg.TotalSpend)
	}
	if !almostEqual(all.Msg.MonthlySpend, 265) {
		t.Errorf("monthly spend: expected 265, got %.2f", all.Msg.MonthlySpend)
	}
	if !almostEqual(all.Msg.CategoryTotals["Dining"], 65) {
		t.Errorf("dining: expected 65, got %.2f", all.Msg.CategoryTotals["Dining"])
	}

	scoped, err := client.GetSummary(context.Background(), connect.NewRequest(&ledgerrpc.GetSummaryRequest{GroupID: trip.ID}))
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if scoped.Msg.ExpenseCount != 2 || scoped.Msg.GroupCount != 1 {
		t.Errorf("scoped summary: got %d expenses in %d groups", scoped.Msg.ExpenseCount, scoped.Msg.GroupCount)
	}
	var net float64
	for _, b := range scoped.Msg.Balances {
		net += b.Net
	}
	if !almostEqual(net, 0) {
		t.Errorf("balances should net to zero, got %.2f", net)
	}
}

func TestMutationsReachPeers(t *testing.T) {
	hub := busmemory.NewHub()
	client, _ := setupTestServer(t, hub)

	peerEndpoint := hub.Join(testSession)
	t.Cleanup(func() { peerEndpoint.Close() })
	peer, err := replica.New(context.Background(), replica.Options{
		Store:   storememory.New(nil),
		Bus:     peerEndpoint,
		Session: testSession,
		Origin:  "laptop",
	})
	if err != nil {
		t.Fatalf("failed to create peer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- peer.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	select {
	case <-peer.Ready():
	case <-time.After(time.Second):
		t.Fatal("peer never subscribed")
	}

	group := addGroup(t, client, "Trip", "user_001", "user_002")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := peer.Snapshot().Group(group.ID); ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("peer never received the new group")
}

package ledgerrpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the ledger service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths, as the URL path an HTTP request is routed on.
const (
	LedgerServiceAddGroupProcedure            = "/" + LedgerServiceName + "/AddGroup"
	LedgerServiceUpdateGroupProcedure         = "/" + LedgerServiceName + "/UpdateGroup"
	LedgerServiceAddExpenseProcedure          = "/" + LedgerServiceName + "/AddExpense"
	LedgerServiceUpdateProfileProcedure       = "/" + LedgerServiceName + "/UpdateProfile"
	LedgerServiceOptimizeSettlementsProcedure = "/" + LedgerServiceName + "/OptimizeSettlements"
	LedgerServiceRefreshInsightsProcedure     = "/" + LedgerServiceName + "/RefreshInsights"
	LedgerServiceGenerateReportProcedure      = "/" + LedgerServiceName + "/GenerateReport"
	LedgerServiceChatProcedure                = "/" + LedgerServiceName + "/Chat"
	LedgerServiceSendReminderProcedure        = "/" + LedgerServiceName + "/SendReminder"
	LedgerServiceScanBudgetProcedure          = "/" + LedgerServiceName + "/ScanBudget"
	LedgerServiceScanReceiptProcedure         = "/" + LedgerServiceName + "/ScanReceipt"
	LedgerServiceGetSnapshotProcedure         = "/" + LedgerServiceName + "/GetSnapshot"
	LedgerServiceGetSummaryProcedure          = "/" + LedgerServiceName + "/GetSummary"
)

// LedgerServiceHandler is implemented by the ledger service.
type LedgerServiceHandler interface {
	// AddGroup creates a group and its membership.
	AddGroup(context.Context, *connect.Request[AddGroupRequest]) (*connect.Response[AddGroupResponse], error)
	// UpdateGroup renames a group or adds members.
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error)
	// AddExpense records an expense and its splits.
	AddExpense(context.Context, *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error)
	// UpdateProfile changes the current user's profile.
	UpdateProfile(context.Context, *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error)
	// OptimizeSettlements computes and publishes the minimal transfer plan.
	OptimizeSettlements(context.Context, *connect.Request[OptimizeSettlementsRequest]) (*connect.Response[OptimizeSettlementsResponse], error)
	// RefreshInsights regenerates spending insights.
	RefreshInsights(context.Context, *connect.Request[RefreshInsightsRequest]) (*connect.Response[RefreshInsightsResponse], error)
	// GenerateReport adds a spending report.
	GenerateReport(context.Context, *connect.Request[GenerateReportRequest]) (*connect.Response[GenerateReportResponse], error)
	// Chat answers the latest chat message.
	Chat(context.Context, *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error)
	// SendReminder emails a settle-up reminder.
	SendReminder(context.Context, *connect.Request[SendReminderRequest]) (*connect.Response[SendReminderResponse], error)
	// ScanBudget raises budget alerts for this month.
	ScanBudget(context.Context, *connect.Request[ScanBudgetRequest]) (*connect.Response[ScanBudgetResponse], error)
	// ScanReceipt reads text from a receipt photo.
	ScanReceipt(context.Context, *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error)
	// GetSnapshot returns the replica's current state.
	GetSnapshot(context.Context, *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error)
	// GetSummary returns balances and spend analytics.
	GetSummary(context.Context, *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc. It returns the
// path prefix to mount the handler on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	routes := map[string]http.Handler{
		LedgerServiceAddGroupProcedure:            connect.NewUnaryHandler(LedgerServiceAddGroupProcedure, svc.AddGroup, opts...),
		LedgerServiceUpdateGroupProcedure:         connect.NewUnaryHandler(LedgerServiceUpdateGroupProcedure, svc.UpdateGroup, opts...),
		LedgerServiceAddExpenseProcedure:          connect.NewUnaryHandler(LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...),
		LedgerServiceUpdateProfileProcedure:       connect.NewUnaryHandler(LedgerServiceUpdateProfileProcedure, svc.UpdateProfile, opts...),
		LedgerServiceOptimizeSettlementsProcedure: connect.NewUnaryHandler(LedgerServiceOptimizeSettlementsProcedure, svc.OptimizeSettlements, opts...),
		LedgerServiceRefreshInsightsProcedure:     connect.NewUnaryHandler(LedgerServiceRefreshInsightsProcedure, svc.RefreshInsights, opts...),
		LedgerServiceGenerateReportProcedure:      connect.NewUnaryHandler(LedgerServiceGenerateReportProcedure, svc.GenerateReport, opts...),
		LedgerServiceChatProcedure:                connect.NewUnaryHandler(LedgerServiceChatProcedure, svc.Chat, opts...),
		LedgerServiceSendReminderProcedure:        connect.NewUnaryHandler(LedgerServiceSendReminderProcedure, svc.SendReminder, opts...),
		LedgerServiceScanBudgetProcedure:          connect.NewUnaryHandler(LedgerServiceScanBudgetProcedure, svc.ScanBudget, opts...),
		LedgerServiceScanReceiptProcedure:         connect.NewUnaryHandler(LedgerServiceScanReceiptProcedure, svc.ScanReceipt, opts...),
		LedgerServiceGetSnapshotProcedure:         connect.NewUnaryHandler(LedgerServiceGetSnapshotProcedure, svc.GetSnapshot, opts...),
		LedgerServiceGetSummaryProcedure:          connect.NewUnaryHandler(LedgerServiceGetSummaryProcedure, svc.GetSummary, opts...),
	}
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// LedgerServiceClient calls a remote ledger service.
type LedgerServiceClient struct {
	addGroup            *connect.Client[AddGroupRequest, AddGroupResponse]
	updateGroup         *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	addExpense          *connect.Client[AddExpenseRequest, AddExpenseResponse]
	updateProfile       *connect.Client[UpdateProfileRequest, UpdateProfileResponse]
	optimizeSettlements *connect.Client[OptimizeSettlementsRequest, OptimizeSettlementsResponse]
	refreshInsights     *connect.Client[RefreshInsightsRequest, RefreshInsightsResponse]
	generateReport      *connect.Client[GenerateReportRequest, GenerateReportResponse]
	chat                *connect.Client[ChatRequest, ChatResponse]
	sendReminder        *connect.Client[SendReminderRequest, SendReminderResponse]
	scanBudget          *connect.Client[ScanBudgetRequest, ScanBudgetResponse]
	scanReceipt         *connect.Client[ScanReceiptRequest, ScanReceiptResponse]
	getSnapshot         *connect.Client[GetSnapshotRequest, GetSnapshotResponse]
	getSummary          *connect.Client[GetSummaryRequest, GetSummaryResponse]
}

// NewLedgerServiceClient creates a client for the service at baseURL
// (e.g. http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &LedgerServiceClient{
		addGroup:            connect.NewClient[AddGroupRequest, AddGroupResponse](httpClient, baseURL+LedgerServiceAddGroupProcedure, opts...),
		updateGroup:         connect.NewClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL+LedgerServiceUpdateGroupProcedure, opts...),
		addExpense:          connect.NewClient[AddExpenseRequest, AddExpenseResponse](httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		updateProfile:       connect.NewClient[UpdateProfileRequest, UpdateProfileResponse](httpClient, baseURL+LedgerServiceUpdateProfileProcedure, opts...),
		optimizeSettlements: connect.NewClient[OptimizeSettlementsRequest, OptimizeSettlementsResponse](httpClient, baseURL+LedgerServiceOptimizeSettlementsProcedure, opts...),
		refreshInsights:     connect.NewClient[RefreshInsightsRequest, RefreshInsightsResponse](httpClient, baseURL+LedgerServiceRefreshInsightsProcedure, opts...),
		generateReport:      connect.NewClient[GenerateReportRequest, GenerateReportResponse](httpClient, baseURL+LedgerServiceGenerateReportProcedure, opts...),
		chat:                connect.NewClient[ChatRequest, ChatResponse](httpClient, baseURL+LedgerServiceChatProcedure, opts...),
		sendReminder:        connect.NewClient[SendReminderRequest, SendReminderResponse](httpClient, baseURL+LedgerServiceSendReminderProcedure, opts...),
		scanBudget:          connect.NewClient[ScanBudgetRequest, ScanBudgetResponse](httpClient, baseURL+LedgerServiceScanBudgetProcedure, opts...),
		scanReceipt:         connect.NewClient[ScanReceiptRequest, ScanReceiptResponse](httpClient, baseURL+LedgerServiceScanReceiptProcedure, opts...),
		getSnapshot:         connect.NewClient[GetSnapshotRequest, GetSnapshotResponse](httpClient, baseURL+LedgerServiceGetSnapshotProcedure, opts...),
		getSummary:          connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+LedgerServiceGetSummaryProcedure, opts...),
	}
}

// AddGroup calls splitledger.v1.LedgerService.AddGroup.
func (c *LedgerServiceClient) AddGroup(ctx context.Context, req *connect.Request[AddGroupRequest]) (*connect.Response[AddGroupResponse], error) {
	return c.addGroup.CallUnary(ctx, req)
}

// UpdateGroup calls splitledger.v1.LedgerService.UpdateGroup.
func (c *LedgerServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

// AddExpense calls splitledger.v1.LedgerService.AddExpense.
func (c *LedgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[AddExpenseRequest]) (*connect.Response[AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

// UpdateProfile calls splitledger.v1.LedgerService.UpdateProfile.
func (c *LedgerServiceClient) UpdateProfile(ctx context.Context, req *connect.Request[UpdateProfileRequest]) (*connect.Response[UpdateProfileResponse], error) {
	return c.updateProfile.CallUnary(ctx, req)
}

// OptimizeSettlements calls splitledger.v1.LedgerService.OptimizeSettlements.
func (c *LedgerServiceClient) OptimizeSettlements(ctx context.Context, req *connect.Request[OptimizeSettlementsRequest]) (*connect.Response[OptimizeSettlementsResponse], error) {
	return c.optimizeSettlements.CallUnary(ctx, req)
}

// RefreshInsights calls splitledger.v1.LedgerService.RefreshInsights.
func (c *LedgerServiceClient) RefreshInsights(ctx context.Context, req *connect.Request[RefreshInsightsRequest]) (*connect.Response[RefreshInsightsResponse], error) {
	return c.refreshInsights.CallUnary(ctx, req)
}

// GenerateReport calls splitledger.v1.LedgerService.GenerateReport.
func (c *LedgerServiceClient) GenerateReport(ctx context.Context, req *connect.Request[GenerateReportRequest]) (*connect.Response[GenerateReportResponse], error) {
	return c.generateReport.CallUnary(ctx, req)
}

// Chat calls splitledger.v1.LedgerService.Chat.
func (c *LedgerServiceClient) Chat(ctx context.Context, req *connect.Request[ChatRequest]) (*connect.Response[ChatResponse], error) {
	return c.chat.CallUnary(ctx, req)
}

// SendReminder calls splitledger.v1.LedgerService.SendReminder.
func (c *LedgerServiceClient) SendReminder(ctx context.Context, req *connect.Request[SendReminderRequest]) (*connect.Response[SendReminderResponse], error) {
	return c.sendReminder.CallUnary(ctx, req)
}

// ScanBudget calls splitledger.v1.LedgerService.ScanBudget.
func (c *LedgerServiceClient) ScanBudget(ctx context.Context, req *connect.Request[ScanBudgetRequest]) (*connect.Response[ScanBudgetResponse], error) {
	return c.scanBudget.CallUnary(ctx, req)
}

// ScanReceipt calls splitledger.v1.LedgerService.ScanReceipt.
func (c *LedgerServiceClient) ScanReceipt(ctx context.Context, req *connect.Request[ScanReceiptRequest]) (*connect.Response[ScanReceiptResponse], error) {
	return c.scanReceipt.CallUnary(ctx, req)
}

// GetSnapshot calls splitledger.v1.LedgerService.GetSnapshot.
func (c *LedgerServiceClient) GetSnapshot(ctx context.Context, req *connect.Request[GetSnapshotRequest]) (*connect.Response[GetSnapshotResponse], error) {
	return c.getSnapshot.CallUnary(ctx, req)
}

// GetSummary calls splitledger.v1.LedgerService.GetSummary.
func (c *LedgerServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

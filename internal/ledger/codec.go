package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/mmynk/splitledger/internal/models"
)

// EncodeCommand splits cmd into its wire type and JSON payload.
// Payloads carry the bare value (a group, a list, a bool) with no wrapper.
func EncodeCommand(cmd Command) (CommandType, json.RawMessage, error) {
	var v any
	switch c := cmd.(type) {
	case Initialize:
		v = c.Patch
	case AddGroup:
		v = c.Group
	case UpdateGroup:
		v = c.Group
	case AddExpense:
		v = c.Expense
	case SetInsights:
		v = c.Insights
	case AddReport:
		v = c.Report
	case SetAlerts:
		v = c.Alerts
	case SetSettlements:
		v = c.Settlements
	case SetLoading:
		v = c.Loading
	case UpdateProfile:
		v = c.User
	case nil:
		return "", nil, fmt.Errorf("cannot encode nil command")
	default:
		return "", nil, fmt.Errorf("cannot encode command type %q", cmd.Type())
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode %s payload: %w", cmd.Type(), err)
	}
	return cmd.Type(), payload, nil
}

// DecodeCommand rebuilds a command from its wire form. Unrecognised types
// decode to Unknown without error; malformed payloads of known types fail.
func DecodeCommand(t CommandType, payload json.RawMessage) (Command, error) {
	switch t {
	case TypeInitialize:
		var p Patch
		return decodeInto(t, payload, &p, func() Command { return Initialize{Patch: p} })
	case TypeAddGroup:
		var g models.Group
		return decodeInto(t, payload, &g, func() Command { return AddGroup{Group: g} })
	case TypeUpdateGroup:
		var g models.Group
		return decodeInto(t, payload, &g, func() Command { return UpdateGroup{Group: g} })
	case TypeAddExpense:
		var e models.Expense
		return decodeInto(t, payload, &e, func() Command { return AddExpense{Expense: e} })
	case TypeSetInsights:
		var list []models.AiInsight
		return decodeInto(t, payload, &list, func() Command { return SetInsights{Insights: list} })
	case TypeAddReport:
		var r models.AutoReport
		return decodeInto(t, payload, &r, func() Command { return AddReport{Report: r} })
	case TypeSetAlerts:
		var list []models.BudgetAlert
		return decodeInto(t, payload, &list, func() Command { return SetAlerts{Alerts: list} })
	case TypeSetSettlements:
		var list []models.Settlement
		return decodeInto(t, payload, &list, func() Command { return SetSettlements{Settlements: list} })
	case TypeSetLoading:
		var b bool
		return decodeInto(t, payload, &b, func() Command { return SetLoading{Loading: b} })
	case TypeUpdateProfile:
		var u models.User
		return decodeInto(t, payload, &u, func() Command { return UpdateProfile{User: u} })
	default:
		return Unknown{Name: t}, nil
	}
}

func decodeInto(t CommandType, payload json.RawMessage, dst any, build func() Command) (Command, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty %s payload", t)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return build(), nil
}

package oracle

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *oraAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			trigger_name,
			table_name,
			trigger_type,
			triggering_event,
			trigger_body
		FROM user_triggers
		ORDER BY trigger_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []ir.Trigger
	for rows.Next() {
		var name, table, trigType, event, body string
		if err := rows.Scan(&name, &table, &trigType, &event, &body); err != nil {
			return nil, err
		}
		t := ir.Trigger{
			Schema: schema,
			Name:   ir.FoldName(name),
			Table:  ir.FoldName(table),
			Timing: triggerTiming(trigType),
			Events: triggerEvents(event),
			Scope:  ir.ScopeStatement,
			Body:   body,
		}
		if strings.Contains(strings.ToUpper(trigType), "EACH ROW") {
			t.Scope = ir.ScopeRow
		}
		t.Definition = renderTriggerDDL(&t)
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// triggerTiming maps user_triggers.trigger_type, which mixes timing and
// scope in one string ("BEFORE EACH ROW", "AFTER STATEMENT", "INSTEAD OF").
func triggerTiming(trigType string) ir.TriggerTiming {
	upper := strings.ToUpper(trigType)
	switch {
	case strings.HasPrefix(upper, "BEFORE"):
		return ir.TimingBefore
	case strings.HasPrefix(upper, "INSTEAD OF"):
		return ir.TimingInsteadOf
	default:
		return ir.TimingAfter
	}
}

func triggerEvents(event string) []ir.TriggerEvent {
	var out []ir.TriggerEvent
	for _, e := range strings.Split(strings.ToUpper(event), " OR ") {
		switch strings.TrimSpace(e) {
		case "INSERT":
			out = append(out, ir.EventInsert)
		case "UPDATE":
			out = append(out, ir.EventUpdate)
		case "DELETE":
			out = append(out, ir.EventDelete)
		}
	}
	return out
}

func renderTriggerDDL(t *ir.Trigger) string {
	events := make([]string, len(t.Events))
	for i, e := range t.Events {
		events[i] = strings.ToUpper(string(e))
	}
	timing := strings.ToUpper(string(t.Timing))
	if t.Timing == ir.TimingInsteadOf {
		timing = "INSTEAD OF"
	}
	scope := ""
	if t.Scope == ir.ScopeRow {
		scope = "\nFOR EACH ROW"
	}
	return fmt.Sprintf("CREATE OR REPLACE TRIGGER %s\n%s %s ON %s%s\n%s",
		quoteIdent(t.Name), timing, strings.Join(events, " OR "),
		quoteIdent(t.Table), scope, t.Body)
}

func (a *oraAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, "")
	if err != nil {
		return nil, err
	}
	folded := ir.FoldName(name)
	for i := range triggers {
		if triggers[i].Name == folded {
			return &triggers[i], nil
		}
	}
	return nil, fmt.Errorf("oracle: trigger %q not found", name)
}

func (a *oraAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitTriggers(triggers)
	return safe, nil
}

func (a *oraAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitTriggers(triggers)
	return skipped, nil
}

func (a *oraAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, trigger.Definition)
}

func (a *oraAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TRIGGER %s", quoteIdent(name)))
}

package mysql

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *myAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	// MySQL triggers fire on exactly one event, so no re-aggregation is
	// needed here.
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			trigger_name,
			event_object_table,
			action_timing,
			event_manipulation,
			action_statement
		FROM information_schema.triggers
		WHERE trigger_schema = DATABASE()
		ORDER BY trigger_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []ir.Trigger
	for rows.Next() {
		var name, table, timing, event, body string
		if err := rows.Scan(&name, &table, &timing, &event, &body); err != nil {
			return nil, err
		}
		t := ir.Trigger{
			Schema: schema,
			Name:   ir.FoldName(name),
			Table:  ir.FoldName(table),
			Timing: ir.TimingAfter,
			Events: []ir.TriggerEvent{ir.TriggerEvent(strings.ToLower(event))},
			Scope:  ir.ScopeRow, // MySQL triggers are always row-level
			Body:   body,
		}
		if strings.EqualFold(timing, "BEFORE") {
			t.Timing = ir.TimingBefore
		}
		t.Definition = fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW %s",
			quoteIdent(t.Name), strings.ToUpper(string(t.Timing)),
			strings.ToUpper(event), quoteIdent(t.Table), body)
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

func (a *myAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
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
	return nil, fmt.Errorf("mysql: trigger %q not found", name)
}

func (a *myAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitTriggers(triggers)
	return safe, nil
}

func (a *myAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitTriggers(triggers)
	return skipped, nil
}

func (a *myAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, definerRe.ReplaceAllString(trigger.Definition, ""))
}

func (a *myAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TRIGGER IF EXISTS %s", quoteIdent(name)))
}

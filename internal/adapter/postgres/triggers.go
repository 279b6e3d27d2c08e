package postgres

import (
	"context"
	"fmt"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

func (a *pgAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	if schema == "" {
		schema = "public"
	}
	// information_schema.triggers has one row per (trigger, event); the
	// events are re-aggregated here.
	rows, err := a.db.QueryContext(ctx, `
		SELECT
			trigger_name,
			event_object_table,
			action_timing,
			event_manipulation,
			action_orientation,
			action_statement
		FROM information_schema.triggers
		WHERE trigger_schema = $1
		ORDER BY trigger_name, event_manipulation
	`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*ir.Trigger{}
	var order []string
	for rows.Next() {
		var name, table, timing, event, orientation, statement string
		if err := rows.Scan(&name, &table, &timing, &event, &orientation, &statement); err != nil {
			return nil, err
		}
		t, ok := byName[name]
		if !ok {
			t = &ir.Trigger{
				Schema: schema,
				Name:   ir.FoldName(name),
				Table:  ir.FoldName(table),
				Timing: triggerTiming(timing),
				Scope:  ir.ScopeStatement,
				Body:   statement,
			}
			if strings.EqualFold(orientation, "ROW") {
				t.Scope = ir.ScopeRow
			}
			byName[name] = t
			order = append(order, name)
		}
		t.Events = append(t.Events, ir.TriggerEvent(strings.ToLower(event)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]ir.Trigger, 0, len(order))
	for _, name := range order {
		t := byName[name]
		if def, err := a.triggerDef(ctx, name); err == nil {
			t.Definition = def
		}
		out = append(out, *t)
	}
	return out, nil
}

func triggerTiming(s string) ir.TriggerTiming {
	switch strings.ToUpper(s) {
	case "BEFORE":
		return ir.TimingBefore
	case "INSTEAD OF":
		return ir.TimingInsteadOf
	default:
		return ir.TimingAfter
	}
}

func (a *pgAdapter) triggerDef(ctx context.Context, name string) (string, error) {
	var def string
	err := a.db.QueryRowContext(ctx, `
		SELECT pg_get_triggerdef(t.oid)
		FROM pg_trigger t
		WHERE t.tgname = $1 AND NOT t.tgisinternal
	`, name).Scan(&def)
	return def, err
}

func (a *pgAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, "public")
	if err != nil {
		return nil, err
	}
	folded := ir.FoldName(name)
	for i := range triggers {
		if triggers[i].Name == folded {
			return &triggers[i], nil
		}
	}
	return nil, fmt.Errorf("postgres: trigger %q not found", name)
}

func (a *pgAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitTriggers(triggers)
	return safe, nil
}

func (a *pgAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitTriggers(triggers)
	return skipped, nil
}

func (a *pgAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, trigger.Definition)
}

func (a *pgAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", quoteIdent(name), quoteIdent(table)))
}

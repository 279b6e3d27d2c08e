package sqlite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"saiql/internal/adapter"
	"saiql/internal/ir"
)

// triggerHeadRe picks timing, event, and table out of the stored CREATE
// TRIGGER text; sqlite_master keeps only the raw SQL.
var triggerHeadRe = regexp.MustCompile(
	`(?is)CREATE\s+TRIGGER\s+\S+\s+(BEFORE|AFTER|INSTEAD\s+OF)\s+(INSERT|UPDATE|DELETE)(?:\s+OF\s+[\w,\s]+?)?\s+ON\s+(\S+)`)

func (a *liteAdapter) ListTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT name, tbl_name, sql
		FROM sqlite_master
		WHERE type = 'trigger'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []ir.Trigger
	for rows.Next() {
		var name, table, def string
		if err := rows.Scan(&name, &table, &def); err != nil {
			return nil, err
		}
		t := ir.Trigger{
			Name:       ir.FoldName(name),
			Table:      ir.FoldName(table),
			Timing:     ir.TimingAfter, // SQLite default when omitted
			Scope:      ir.ScopeRow,
			Body:       triggerBody(def),
			Definition: def,
		}
		if m := triggerHeadRe.FindStringSubmatch(def); m != nil {
			switch strings.ToUpper(strings.Join(strings.Fields(m[1]), " ")) {
			case "BEFORE":
				t.Timing = ir.TimingBefore
			case "INSTEAD OF":
				t.Timing = ir.TimingInsteadOf
			}
			t.Events = []ir.TriggerEvent{ir.TriggerEvent(strings.ToLower(m[2]))}
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

// triggerBody extracts the BEGIN..END block from the full trigger text.
func triggerBody(def string) string {
	upper := strings.ToUpper(def)
	begin := strings.Index(upper, "BEGIN")
	if begin < 0 {
		return def
	}
	return strings.TrimSpace(def[begin:])
}

func (a *liteAdapter) TriggerDefinition(ctx context.Context, name string) (*ir.Trigger, error) {
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
	return nil, fmt.Errorf("sqlite: trigger %q not found", name)
}

func (a *liteAdapter) SafeTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	safe, _ := adapter.SplitTriggers(triggers)
	return safe, nil
}

func (a *liteAdapter) SkippedTriggers(ctx context.Context, schema string) ([]ir.Trigger, error) {
	triggers, err := a.ListTriggers(ctx, schema)
	if err != nil {
		return nil, err
	}
	_, skipped := adapter.SplitTriggers(triggers)
	return skipped, nil
}

func (a *liteAdapter) CreateTrigger(ctx context.Context, trigger *ir.Trigger) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify, trigger.Definition)
}

func (a *liteAdapter) DropTrigger(ctx context.Context, name, table string) adapter.ExecResult {
	return adapter.Exec(ctx, a.db, classify,
		fmt.Sprintf("DROP TRIGGER IF EXISTS %s", quoteIdent(name)))
}

package analyze

import (
	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver" // required to register TiDB parser driver implementations

	"saiql/internal/ir"
)

// analyzeViewAST classifies a MySQL-family view through TiDB's parser. The
// second return value is false when the text does not parse as a single
// SELECT, in which case the caller falls back to the textual scan.
func analyzeViewAST(name, definition string) (ViewAnalysis, bool) {
	body := createPrefixRe.ReplaceAllString(normalizeSQL(definition), "")

	p := parser.New()
	stmt, err := p.ParseOneStmt(body, "", "")
	if err != nil {
		return ViewAnalysis{}, false
	}

	if _, ok := stmt.(*ast.SetOprStmt); ok {
		return ViewAnalysis{Pattern: PatternUnsupported, Risk: ir.RiskCritical,
			Reasons: []ir.ReasonCode{ir.ReasonViewSetOperation}}, true
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return ViewAnalysis{}, false
	}

	if sel.With != nil {
		return unsupportedAST(ir.ReasonViewCTE, ir.RiskCritical), true
	}
	if sel.Distinct {
		return unsupportedAST(ir.ReasonViewDistinct, ir.RiskHigh), true
	}
	if sel.GroupBy != nil {
		return unsupportedAST(ir.ReasonViewGroupBy, ir.RiskHigh), true
	}
	if sel.Having != nil {
		return unsupportedAST(ir.ReasonViewHaving, ir.RiskHigh), true
	}
	if sel.OrderBy != nil {
		return unsupportedAST(ir.ReasonViewOrderBy, ir.RiskHigh), true
	}

	v := &selectVisitor{}
	sel.Accept(v)
	if v.window {
		return unsupportedAST(ir.ReasonViewWindowFunction, ir.RiskCritical), true
	}
	if v.subquery {
		return unsupportedAST(ir.ReasonViewSubquery, ir.RiskCritical), true
	}
	if v.aggregate {
		return unsupportedAST(ir.ReasonViewAggregate, ir.RiskHigh), true
	}

	for _, field := range sel.Fields.Fields {
		if field.WildCard != nil {
			continue
		}
		if _, ok := field.Expr.(*ast.ColumnNameExpr); !ok {
			return unsupportedAST(ir.ReasonViewComputedColumn, ir.RiskHigh), true
		}
	}

	tables, joinOK, outer := flattenJoin(sel.From)
	if outer {
		return unsupportedAST(ir.ReasonViewOuterJoin, ir.RiskHigh), true
	}
	switch {
	case len(tables) > 2:
		return unsupportedAST(ir.ReasonViewMultiTable, ir.RiskHigh), true
	case len(tables) == 2 && !joinOK:
		return unsupportedAST(ir.ReasonViewJoinCondition, ir.RiskHigh), true
	case len(tables) == 2:
		return ViewAnalysis{Pattern: PatternBasicJoin, Risk: ir.RiskMedium, Tables: tables}, true
	case sel.Where != nil:
		return ViewAnalysis{Pattern: PatternSelectWhere, Risk: ir.RiskLow, Tables: tables}, true
	default:
		return ViewAnalysis{Pattern: PatternSimpleSelect, Risk: ir.RiskSafe, Tables: tables}, true
	}
}

func unsupportedAST(reason ir.ReasonCode, risk ir.RiskLevel) ViewAnalysis {
	return ViewAnalysis{Pattern: PatternUnsupported, Risk: risk, Reasons: []ir.ReasonCode{reason}}
}

// selectVisitor walks the statement looking for constructs the whitelist
// rejects regardless of where they appear.
type selectVisitor struct {
	depth     int
	subquery  bool
	aggregate bool
	window    bool
}

func (v *selectVisitor) Enter(n ast.Node) (ast.Node, bool) {
	switch n.(type) {
	case *ast.SubqueryExpr:
		v.subquery = true
	case *ast.AggregateFuncExpr:
		v.aggregate = true
	case *ast.WindowFuncExpr:
		v.window = true
	case *ast.SelectStmt:
		v.depth++
		if v.depth > 1 {
			v.subquery = true
		}
	}
	return n, false
}

func (v *selectVisitor) Leave(n ast.Node) (ast.Node, bool) {
	if _, ok := n.(*ast.SelectStmt); ok {
		v.depth--
	}
	return n, true
}

// flattenJoin collects the table names under a FROM clause and verifies the
// join, when present, is an inner join on equality conditions only.
func flattenJoin(from *ast.TableRefsClause) (tables []string, joinOK bool, outer bool) {
	if from == nil {
		return nil, false, false
	}
	var walk func(node ast.ResultSetNode)
	joinOK = true
	walk = func(node ast.ResultSetNode) {
		switch n := node.(type) {
		case *ast.Join:
			if n.Tp == ast.LeftJoin || n.Tp == ast.RightJoin {
				outer = true
			}
			walk(n.Left)
			if n.Right != nil {
				walk(n.Right)
				if n.On == nil || !equalityOnly(n.On.Expr) {
					joinOK = false
				}
			}
		case *ast.TableSource:
			walk(n.Source)
		case *ast.TableName:
			tables = append(tables, ir.FoldName(n.Name.O))
		}
	}
	walk(from.TableRefs)
	if len(tables) < 2 {
		joinOK = false
	}
	return tables, joinOK, outer
}

// equalityOnly accepts col = col conditions joined by AND, nothing else.
func equalityOnly(expr ast.ExprNode) bool {
	switch e := expr.(type) {
	case *ast.BinaryOperationExpr:
		switch e.Op {
		case opcode.LogicAnd:
			return equalityOnly(e.L) && equalityOnly(e.R)
		case opcode.EQ:
			_, lok := e.L.(*ast.ColumnNameExpr)
			_, rok := e.R.(*ast.ColumnNameExpr)
			return lok && rok
		}
	case *ast.ParenthesesExpr:
		return equalityOnly(e.Expr)
	}
	return false
}

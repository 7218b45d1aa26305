package parser

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v5"

	"github.com/roach88/docsql/internal/ast"
)

type postgres struct{}

// Postgres returns the PostgreSQL dialect backed by the real PostgreSQL
// grammar. Unquoted identifiers arrive lower-cased; double-quoted tokens are
// identifiers, not strings.
func Postgres() Dialect {
	return postgres{}
}

func (postgres) Name() string {
	return DialectPostgres
}

func (postgres) Parse(sql string) (ast.Statement, error) {
	tree, err := pgquery.Parse(sql)
	if err != nil {
		return nil, err
	}
	stmts := tree.GetStmts()
	if len(stmts) != 1 {
		return nil, fmt.Errorf("expected exactly one statement, got %d", len(stmts))
	}
	return pgStatement(stmts[0].GetStmt())
}

func pgStatement(n *pgquery.Node) (ast.Statement, error) {
	if s := n.GetSelectStmt(); s != nil {
		return pgSelect(s)
	}
	if s := n.GetInsertStmt(); s != nil {
		return pgInsert(s)
	}
	if s := n.GetUpdateStmt(); s != nil {
		return pgUpdate(s)
	}
	if s := n.GetDeleteStmt(); s != nil {
		return pgDelete(s)
	}
	if s := n.GetCreateStmt(); s != nil {
		return pgCreate(s)
	}
	if s := n.GetDropStmt(); s != nil {
		return pgDrop(s)
	}
	if s := n.GetAlterTableStmt(); s != nil {
		return pgAlter(s)
	}
	return nil, unsupported("%s", pgKind(n))
}

func pgSelect(s *pgquery.SelectStmt) (*ast.Select, error) {
	if s.GetLarg() != nil || s.GetRarg() != nil {
		return nil, unsupported("set operation")
	}
	if len(s.GetValuesLists()) > 0 {
		return nil, unsupported("VALUES outside INSERT")
	}
	if s.GetWithClause() != nil {
		return nil, unsupported("WITH")
	}

	sel := &ast.Select{Distinct: len(s.GetDistinctClause()) > 0}

	for _, t := range s.GetTargetList() {
		rt := t.GetResTarget()
		if rt == nil {
			continue
		}
		if cr := rt.GetVal().GetColumnRef(); cr != nil && isStarRef(cr) {
			item := ast.SelectItem{Star: true}
			if fields := cr.GetFields(); len(fields) > 1 {
				item.StarTable = fields[len(fields)-2].GetString_().GetSval()
			}
			sel.Columns = append(sel.Columns, item)
			continue
		}
		sel.Columns = append(sel.Columns, ast.SelectItem{
			Expr:  pgExpr(rt.GetVal()),
			Alias: rt.GetName(),
		})
	}

	for i, f := range s.GetFromClause() {
		kind := ast.JoinCross
		if i == 0 {
			kind = ast.JoinNone
		}
		items, err := pgFrom(f, kind, nil)
		if err != nil {
			return nil, err
		}
		sel.From = append(sel.From, items...)
	}

	sel.Where = pgExpr(s.GetWhereClause())
	for _, g := range s.GetGroupClause() {
		sel.GroupBy = append(sel.GroupBy, pgExpr(g))
	}
	sel.Having = pgExpr(s.GetHavingClause())

	for _, o := range s.GetSortClause() {
		sb := o.GetSortBy()
		if sb == nil {
			continue
		}
		sel.OrderBy = append(sel.OrderBy, ast.OrderItem{
			Expr: pgExpr(sb.GetNode()),
			Desc: sb.GetSortbyDir() == pgquery.SortByDir_SORTBY_DESC,
		})
	}

	sel.Limit = pgExpr(s.GetLimitCount())
	sel.Offset = pgExpr(s.GetLimitOffset())
	return sel, nil
}

func isStarRef(cr *pgquery.ColumnRef) bool {
	fields := cr.GetFields()
	return len(fields) > 0 && fields[len(fields)-1].GetAStar() != nil
}

// pgFrom flattens a FROM entry. Nested joins unfold left-deep: the left arm
// inherits the caller's join kind, the right arm carries the join's own kind
// and condition.
func pgFrom(n *pgquery.Node, kind ast.JoinKind, on ast.Expr) ([]ast.FromItem, error) {
	if rv := n.GetRangeVar(); rv != nil {
		return []ast.FromItem{{
			Source: &ast.TableSource{Name: rv.GetRelname()},
			Alias:  rv.GetAlias().GetAliasname(),
			Join:   kind,
			On:     on,
		}}, nil
	}

	if rf := n.GetRangeFunction(); rf != nil {
		var call *ast.Func
		for _, fn := range rf.GetFunctions() {
			for _, item := range fn.GetList().GetItems() {
				if fc := item.GetFuncCall(); fc != nil {
					if f, ok := pgFunc(fc).(*ast.Func); ok {
						call = f
					}
					break
				}
			}
			if call != nil {
				break
			}
		}
		if call == nil {
			return nil, unsupported("table function")
		}
		return []ast.FromItem{{
			Source: &ast.FuncSource{Call: call},
			Alias:  rf.GetAlias().GetAliasname(),
			Join:   kind,
			On:     on,
		}}, nil
	}

	if je := n.GetJoinExpr(); je != nil {
		if je.GetIsNatural() || len(je.GetUsingClause()) > 0 {
			return nil, unsupported("JOIN without ON")
		}
		left, err := pgFrom(je.GetLarg(), kind, on)
		if err != nil {
			return nil, err
		}

		var joinKind ast.JoinKind
		switch je.GetJointype() {
		case pgquery.JoinType_JOIN_INNER:
			joinKind = ast.JoinInner
			if je.GetQuals() == nil {
				joinKind = ast.JoinCross
			}
		case pgquery.JoinType_JOIN_LEFT:
			joinKind = ast.JoinLeft
		case pgquery.JoinType_JOIN_RIGHT:
			joinKind = ast.JoinRight
		case pgquery.JoinType_JOIN_FULL:
			joinKind = ast.JoinFull
		default:
			return nil, unsupported("join type %s", je.GetJointype())
		}

		right, err := pgFrom(je.GetRarg(), joinKind, pgExpr(je.GetQuals()))
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}

	return nil, unsupported("FROM item %s", pgKind(n))
}

func pgInsert(s *pgquery.InsertStmt) (*ast.Insert, error) {
	ins := &ast.Insert{Table: s.GetRelation().GetRelname()}
	for _, c := range s.GetCols() {
		ins.Columns = append(ins.Columns, c.GetResTarget().GetName())
	}

	src := s.GetSelectStmt().GetSelectStmt()
	if src == nil {
		return nil, unsupported("INSERT without VALUES or SELECT")
	}
	if lists := src.GetValuesLists(); len(lists) > 0 {
		for _, l := range lists {
			var tuple []ast.Expr
			for _, item := range l.GetList().GetItems() {
				expr := pgExpr(item)
				if refersToColumn(expr) {
					// "Ann" in VALUES is a string to the MySQL grammar.
					return nil, fmt.Errorf("VALUES references column %s", ast.Format(expr))
				}
				tuple = append(tuple, expr)
			}
			ins.Rows = append(ins.Rows, tuple)
		}
		return ins, nil
	}

	sel, err := pgSelect(src)
	if err != nil {
		return nil, err
	}
	ins.Select = sel
	return ins, nil
}

// refersToColumn reports whether e contains a column reference. VALUES
// tuples are evaluated without a row, so a reference there is always a
// double-quoted value PostgreSQL read as an identifier.
func refersToColumn(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.ColumnRef:
		return true
	case *ast.Binary:
		return refersToColumn(e.Left) || refersToColumn(e.Right)
	case *ast.Unary:
		return refersToColumn(e.Expr)
	case *ast.Cast:
		return refersToColumn(e.Expr)
	case *ast.List:
		return slices.ContainsFunc(e.Items, refersToColumn)
	case *ast.Func:
		return slices.ContainsFunc(e.Args, refersToColumn)
	}
	return false
}

func pgUpdate(s *pgquery.UpdateStmt) (*ast.Update, error) {
	if len(s.GetFromClause()) > 0 {
		return nil, unsupported("UPDATE ... FROM")
	}
	up := &ast.Update{
		Table: s.GetRelation().GetRelname(),
		Where: pgExpr(s.GetWhereClause()),
	}
	for _, t := range s.GetTargetList() {
		rt := t.GetResTarget()
		if rt == nil {
			continue
		}
		up.Set = append(up.Set, ast.Assignment{Column: rt.GetName(), Value: pgExpr(rt.GetVal())})
	}
	return up, nil
}

func pgDelete(s *pgquery.DeleteStmt) (*ast.Delete, error) {
	if len(s.GetUsingClause()) > 0 {
		return nil, unsupported("DELETE ... USING")
	}
	return &ast.Delete{
		Table: s.GetRelation().GetRelname(),
		Where: pgExpr(s.GetWhereClause()),
	}, nil
}

func pgCreate(s *pgquery.CreateStmt) (*ast.CreateTable, error) {
	ct := &ast.CreateTable{
		Table:       s.GetRelation().GetRelname(),
		IfNotExists: s.GetIfNotExists(),
	}
	for _, elt := range s.GetTableElts() {
		if cd := elt.GetColumnDef(); cd != nil {
			ct.Columns = append(ct.Columns, pgColumnDef(cd))
			continue
		}
		if c := elt.GetConstraint(); c != nil {
			if tc, ok := pgTableConstraint(c); ok {
				ct.Constraints = append(ct.Constraints, tc)
			}
		}
	}
	return ct, nil
}

func pgColumnDef(cd *pgquery.ColumnDef) ast.ColumnDef {
	def := ast.ColumnDef{
		Name:     cd.GetColname(),
		DataType: pgTypeName(cd.GetTypeName()),
		NotNull:  cd.GetIsNotNull(),
	}
	if cd.GetRawDefault() != nil {
		def.Default = pgExpr(cd.GetRawDefault())
	}
	for _, n := range cd.GetConstraints() {
		c := n.GetConstraint()
		if c == nil {
			continue
		}
		switch c.GetContype() {
		case pgquery.ConstrType_CONSTR_PRIMARY:
			def.PrimaryKey = true
			def.NotNull = true
		case pgquery.ConstrType_CONSTR_NOTNULL:
			def.NotNull = true
		case pgquery.ConstrType_CONSTR_DEFAULT:
			def.Default = pgExpr(c.GetRawExpr())
		case pgquery.ConstrType_CONSTR_FOREIGN:
			def.References = &ast.Reference{
				Table:   c.GetPktable().GetRelname(),
				Columns: pgStrings(c.GetPkAttrs()),
			}
		}
	}
	return def
}

func pgTableConstraint(c *pgquery.Constraint) (ast.TableConstraint, bool) {
	switch c.GetContype() {
	case pgquery.ConstrType_CONSTR_PRIMARY:
		return ast.TableConstraint{
			Kind:    ast.ConstraintPrimaryKey,
			Columns: pgStrings(c.GetKeys()),
		}, true
	case pgquery.ConstrType_CONSTR_FOREIGN:
		return ast.TableConstraint{
			Kind:    ast.ConstraintForeignKey,
			Columns: pgStrings(c.GetFkAttrs()),
			References: &ast.Reference{
				Table:   c.GetPktable().GetRelname(),
				Columns: pgStrings(c.GetPkAttrs()),
			},
		}, true
	default:
		return ast.TableConstraint{}, false
	}
}

func pgDrop(s *pgquery.DropStmt) (*ast.DropTable, error) {
	if s.GetRemoveType() != pgquery.ObjectType_OBJECT_TABLE {
		return nil, unsupported("DROP %s", s.GetRemoveType())
	}
	drop := &ast.DropTable{IfExists: s.GetMissingOk()}
	for _, obj := range s.GetObjects() {
		names := pgStrings(obj.GetList().GetItems())
		if len(names) == 0 {
			continue
		}
		drop.Tables = append(drop.Tables, names[len(names)-1])
	}
	return drop, nil
}

func pgAlter(s *pgquery.AlterTableStmt) (*ast.AlterTable, error) {
	if s.GetObjtype() != pgquery.ObjectType_OBJECT_TABLE {
		return nil, unsupported("ALTER %s", s.GetObjtype())
	}
	alter := &ast.AlterTable{Table: s.GetRelation().GetRelname(), Action: ast.AlterOther}

	cmds := s.GetCmds()
	if len(cmds) != 1 {
		alter.Detail = fmt.Sprintf("%d alterations in one statement", len(cmds))
		return alter, nil
	}
	cmd := cmds[0].GetAlterTableCmd()
	if cmd.GetSubtype() != pgquery.AlterTableType_AT_AddColumn {
		alter.Detail = cmd.GetSubtype().String()
		return alter, nil
	}
	cd := cmd.GetDef().GetColumnDef()
	if cd == nil {
		alter.Detail = "ADD COLUMN without definition"
		return alter, nil
	}
	def := pgColumnDef(cd)
	alter.Action = ast.AlterAddColumn
	alter.Column = &def
	return alter, nil
}

// pgExpr translates a scalar expression. Constructs with no ast equivalent
// become *ast.Unsupported.
func pgExpr(n *pgquery.Node) ast.Expr {
	if n == nil || n.GetNode() == nil {
		return nil
	}

	if cr := n.GetColumnRef(); cr != nil {
		fields := pgStrings(cr.GetFields())
		switch len(fields) {
		case 0:
			return &ast.Unsupported{Kind: "ColumnRef"}
		case 1:
			return &ast.ColumnRef{Column: fields[0]}
		default:
			return &ast.ColumnRef{Table: fields[len(fields)-2], Column: fields[len(fields)-1]}
		}
	}

	if c := n.GetAConst(); c != nil {
		return pgConst(c)
	}

	if tc := n.GetTypeCast(); tc != nil {
		target := pgTypeName(tc.GetTypeName())
		inner := pgExpr(tc.GetArg())
		// 't'::bool is how older grammars spell TRUE.
		if lit, ok := inner.(*ast.Literal); ok && target == "bool" {
			if s, ok := lit.Value.(string); ok {
				return &ast.Literal{Value: s == "t" || strings.EqualFold(s, "true")}
			}
		}
		return &ast.Cast{Expr: inner, Type: target}
	}

	if ae := n.GetAExpr(); ae != nil {
		return pgAExpr(ae)
	}

	if be := n.GetBoolExpr(); be != nil {
		args := be.GetArgs()
		switch be.GetBoolop() {
		case pgquery.BoolExprType_NOT_EXPR:
			if len(args) == 0 {
				return &ast.Unsupported{Kind: "BoolExpr"}
			}
			return &ast.Unary{Op: ast.OpNot, Expr: pgExpr(args[0])}
		case pgquery.BoolExprType_AND_EXPR:
			return pgChain(ast.OpAnd, args)
		case pgquery.BoolExprType_OR_EXPR:
			return pgChain(ast.OpOr, args)
		}
		return &ast.Unsupported{Kind: "BoolExpr"}
	}

	if nt := n.GetNullTest(); nt != nil {
		op := ast.OpIs
		if nt.GetNulltesttype() == pgquery.NullTestType_IS_NOT_NULL {
			op = ast.OpIsNot
		}
		return &ast.Binary{Op: op, Left: pgExpr(nt.GetArg()), Right: ast.Null()}
	}

	if fc := n.GetFuncCall(); fc != nil {
		return pgFunc(fc)
	}

	if ce := n.GetCoalesceExpr(); ce != nil {
		f := &ast.Func{Name: "COALESCE"}
		for _, a := range ce.GetArgs() {
			f.Args = append(f.Args, pgExpr(a))
		}
		return f
	}

	if sv := n.GetSqlvalueFunction(); sv != nil {
		switch sv.GetOp() {
		case pgquery.SQLValueFunctionOp_SVFOP_CURRENT_DATE:
			return &ast.Func{Name: "CURRENT_DATE"}
		case pgquery.SQLValueFunctionOp_SVFOP_CURRENT_TIMESTAMP,
			pgquery.SQLValueFunctionOp_SVFOP_CURRENT_TIMESTAMP_N,
			pgquery.SQLValueFunctionOp_SVFOP_LOCALTIMESTAMP,
			pgquery.SQLValueFunctionOp_SVFOP_LOCALTIMESTAMP_N:
			return &ast.Func{Name: "CURRENT_TIMESTAMP"}
		}
		return &ast.Unsupported{Kind: sv.GetOp().String()}
	}

	if l := n.GetList(); l != nil {
		list := &ast.List{}
		for _, item := range l.GetItems() {
			list.Items = append(list.Items, pgExpr(item))
		}
		return list
	}

	if n.GetSetToDefault() != nil {
		return &ast.Unsupported{Kind: ast.KindDefault}
	}

	return &ast.Unsupported{Kind: pgKind(n)}
}

func pgConst(c *pgquery.A_Const) ast.Expr {
	if c.GetIsnull() {
		return ast.Null()
	}
	if v := c.GetIval(); v != nil {
		return &ast.Literal{Value: float64(v.GetIval())}
	}
	if v := c.GetFval(); v != nil {
		f, err := strconv.ParseFloat(v.GetFval(), 64)
		if err != nil {
			return &ast.Literal{Value: v.GetFval()}
		}
		return &ast.Literal{Value: f}
	}
	if v := c.GetBoolval(); v != nil {
		return &ast.Literal{Value: v.GetBoolval()}
	}
	if v := c.GetSval(); v != nil {
		return &ast.Literal{Value: v.GetSval()}
	}
	if v := c.GetBsval(); v != nil {
		return &ast.Literal{Value: v.GetBsval()}
	}
	// A bare A_Const with no value and Isnull unset: integer zero.
	return &ast.Literal{Value: float64(0)}
}

func pgAExpr(ae *pgquery.A_Expr) ast.Expr {
	names := pgStrings(ae.GetName())
	op := ""
	if len(names) > 0 {
		op = names[len(names)-1]
	}
	left := pgExpr(ae.GetLexpr())
	right := pgExpr(ae.GetRexpr())

	switch ae.GetKind() {
	case pgquery.A_Expr_Kind_AEXPR_OP:
		if ae.GetLexpr() == nil {
			switch op {
			case "-":
				if lit, ok := right.(*ast.Literal); ok {
					if f, ok := lit.Value.(float64); ok {
						return &ast.Literal{Value: -f}
					}
				}
				return &ast.Unary{Op: ast.OpNeg, Expr: right}
			case "+":
				return right
			}
			return &ast.Unsupported{Kind: "prefix operator " + op}
		}
		return &ast.Binary{Op: pgOperator(op), Left: left, Right: right}

	case pgquery.A_Expr_Kind_AEXPR_LIKE, pgquery.A_Expr_Kind_AEXPR_ILIKE:
		return &ast.Binary{Op: pgOperator(op), Left: left, Right: right}

	case pgquery.A_Expr_Kind_AEXPR_IN:
		list, ok := right.(*ast.List)
		if !ok {
			list = &ast.List{Items: []ast.Expr{right}}
		}
		if op == "<>" {
			return &ast.Binary{Op: ast.OpNotIn, Left: left, Right: list}
		}
		return &ast.Binary{Op: ast.OpIn, Left: left, Right: list}

	case pgquery.A_Expr_Kind_AEXPR_BETWEEN, pgquery.A_Expr_Kind_AEXPR_NOT_BETWEEN:
		list, ok := right.(*ast.List)
		if !ok || len(list.Items) != 2 {
			return &ast.Unsupported{Kind: "BETWEEN"}
		}
		return desugarBetween(left, list.Items[0], list.Items[1], ae.GetKind() == pgquery.A_Expr_Kind_AEXPR_NOT_BETWEEN)
	}

	return &ast.Unsupported{Kind: ae.GetKind().String()}
}

// pgOperator maps PostgreSQL operator spellings onto ast operators.
func pgOperator(op string) string {
	switch op {
	case "~~", "~~*":
		return ast.OpLike
	case "!~~", "!~~*":
		return ast.OpNotLike
	default:
		return op
	}
}

func pgChain(op string, args []*pgquery.Node) ast.Expr {
	if len(args) == 0 {
		return nil
	}
	out := pgExpr(args[0])
	for _, a := range args[1:] {
		out = &ast.Binary{Op: op, Left: out, Right: pgExpr(a)}
	}
	return out
}

func pgFunc(fc *pgquery.FuncCall) ast.Expr {
	if fc.GetOver() != nil {
		return &ast.Unsupported{Kind: "window function"}
	}
	names := pgStrings(fc.GetFuncname())
	if len(names) == 0 {
		return &ast.Unsupported{Kind: "FuncCall"}
	}
	f := &ast.Func{
		Name:     names[len(names)-1],
		Star:     fc.GetAggStar(),
		Distinct: fc.GetAggDistinct(),
	}
	for _, a := range fc.GetArgs() {
		f.Args = append(f.Args, pgExpr(a))
	}
	return f
}

// pgTypeName returns the last component of a qualified type name
// ("pg_catalog.int4" → "int4").
func pgTypeName(tn *pgquery.TypeName) string {
	names := pgStrings(tn.GetNames())
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}

func pgStrings(nodes []*pgquery.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if s := n.GetString_(); s != nil {
			out = append(out, s.GetSval())
		}
	}
	return out
}

// pgKind names a node's concrete type for diagnostics.
func pgKind(n *pgquery.Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n.GetNode()), "*pg_query.Node_")
}

package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xwb1989/sqlparser"

	"github.com/roach88/docsql/internal/ast"
)

// errAlterDetails is returned for ALTER TABLE: the MySQL grammar accepts the
// statement but drops the alteration, so there is nothing to translate.
var errAlterDetails = errors.New("ALTER TABLE details are not retained by the mysql grammar")

type mysql struct{}

// MySQL returns the MySQL dialect. Backticks quote identifiers and
// double-quoted tokens are strings.
func MySQL() Dialect {
	return mysql{}
}

func (mysql) Name() string {
	return DialectMySQL
}

func (mysql) Parse(sql string) (ast.Statement, error) {
	stmt, err := sqlparser.ParseStrictDDL(sql)
	if err != nil {
		return nil, err
	}

	switch s := stmt.(type) {
	case *sqlparser.Select:
		return myParseSelect(s)
	case *sqlparser.Insert:
		return myInsert(s)
	case *sqlparser.Update:
		return myUpdate(s)
	case *sqlparser.Delete:
		return myDelete(s)
	case *sqlparser.DDL:
		return myDDL(s)
	case *sqlparser.Union, *sqlparser.ParenSelect:
		return nil, unsupported("set operation")
	default:
		return nil, unsupported("%s", myKind(stmt))
	}
}

func myParseSelect(s *sqlparser.Select) (*ast.Select, error) {
	sel := &ast.Select{Distinct: s.Distinct != ""}

	for _, se := range s.SelectExprs {
		switch e := se.(type) {
		case *sqlparser.StarExpr:
			sel.Columns = append(sel.Columns, ast.SelectItem{
				Star:      true,
				StarTable: e.TableName.Name.String(),
			})
		case *sqlparser.AliasedExpr:
			sel.Columns = append(sel.Columns, ast.SelectItem{
				Expr:  myExpr(e.Expr),
				Alias: e.As.String(),
			})
		default:
			return nil, unsupported("select expression %s", myKind(se))
		}
	}

	for i, te := range s.From {
		kind := ast.JoinCross
		if i == 0 {
			kind = ast.JoinNone
		}
		items, err := myFrom(te, kind, nil)
		if err != nil {
			return nil, err
		}
		sel.From = append(sel.From, items...)
	}
	// "SELECT 1" parses with an implicit FROM dual.
	if len(sel.From) == 1 {
		if ts, ok := sel.From[0].Source.(*ast.TableSource); ok && strings.EqualFold(ts.Name, "dual") {
			sel.From = nil
		}
	}

	if s.Where != nil {
		sel.Where = myExpr(s.Where.Expr)
	}
	for _, g := range s.GroupBy {
		sel.GroupBy = append(sel.GroupBy, myExpr(g))
	}
	if s.Having != nil {
		sel.Having = myExpr(s.Having.Expr)
	}
	for _, o := range s.OrderBy {
		sel.OrderBy = append(sel.OrderBy, ast.OrderItem{
			Expr: myExpr(o.Expr),
			Desc: o.Direction == sqlparser.DescScr,
		})
	}
	if s.Limit != nil {
		sel.Limit = myExpr(s.Limit.Rowcount)
		sel.Offset = myExpr(s.Limit.Offset)
	}
	return sel, nil
}

func myFrom(te sqlparser.TableExpr, kind ast.JoinKind, on ast.Expr) ([]ast.FromItem, error) {
	switch t := te.(type) {
	case *sqlparser.AliasedTableExpr:
		name, ok := t.Expr.(sqlparser.TableName)
		if !ok {
			return nil, unsupported("subquery in FROM")
		}
		return []ast.FromItem{{
			Source: &ast.TableSource{Name: name.Name.String()},
			Alias:  t.As.String(),
			Join:   kind,
			On:     on,
		}}, nil

	case *sqlparser.ParenTableExpr:
		var out []ast.FromItem
		for i, inner := range t.Exprs {
			k := ast.JoinCross
			if i == 0 {
				k = kind
			}
			items, err := myFrom(inner, k, nil)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
		}
		if len(out) > 0 && on != nil {
			out[0].On = on
		}
		return out, nil

	case *sqlparser.JoinTableExpr:
		if t.Condition.Using != nil {
			return nil, unsupported("JOIN ... USING")
		}
		left, err := myFrom(t.LeftExpr, kind, on)
		if err != nil {
			return nil, err
		}

		var joinKind ast.JoinKind
		switch t.Join {
		case sqlparser.JoinStr, sqlparser.StraightJoinStr:
			joinKind = ast.JoinInner
			if t.Condition.On == nil {
				joinKind = ast.JoinCross
			}
		case sqlparser.LeftJoinStr:
			joinKind = ast.JoinLeft
		case sqlparser.RightJoinStr:
			joinKind = ast.JoinRight
		default:
			return nil, unsupported("%s", strings.ToUpper(t.Join))
		}

		right, err := myFrom(t.RightExpr, joinKind, myExpr(t.Condition.On))
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
	return nil, unsupported("FROM item %s", myKind(te))
}

func myInsert(s *sqlparser.Insert) (*ast.Insert, error) {
	if s.Action != sqlparser.InsertStr {
		return nil, unsupported("%s", strings.ToUpper(s.Action))
	}
	ins := &ast.Insert{Table: s.Table.Name.String()}
	for _, c := range s.Columns {
		ins.Columns = append(ins.Columns, c.String())
	}

	switch rows := s.Rows.(type) {
	case sqlparser.Values:
		for _, tuple := range rows {
			var exprs []ast.Expr
			for _, e := range tuple {
				exprs = append(exprs, myExpr(e))
			}
			ins.Rows = append(ins.Rows, exprs)
		}
	case *sqlparser.Select:
		sel, err := myParseSelect(rows)
		if err != nil {
			return nil, err
		}
		ins.Select = sel
	default:
		return nil, unsupported("INSERT source %s", myKind(rows))
	}
	return ins, nil
}

func myUpdate(s *sqlparser.Update) (*ast.Update, error) {
	table, err := mySingleTable(s.TableExprs)
	if err != nil {
		return nil, err
	}
	up := &ast.Update{Table: table}
	for _, ue := range s.Exprs {
		up.Set = append(up.Set, ast.Assignment{Column: ue.Name.Name.String(), Value: myExpr(ue.Expr)})
	}
	if s.Where != nil {
		up.Where = myExpr(s.Where.Expr)
	}
	return up, nil
}

func myDelete(s *sqlparser.Delete) (*ast.Delete, error) {
	table, err := mySingleTable(s.TableExprs)
	if err != nil {
		return nil, err
	}
	del := &ast.Delete{Table: table}
	if s.Where != nil {
		del.Where = myExpr(s.Where.Expr)
	}
	return del, nil
}

func mySingleTable(exprs sqlparser.TableExprs) (string, error) {
	if len(exprs) != 1 {
		return "", unsupported("multi-table mutation")
	}
	ate, ok := exprs[0].(*sqlparser.AliasedTableExpr)
	if !ok {
		return "", unsupported("multi-table mutation")
	}
	name, ok := ate.Expr.(sqlparser.TableName)
	if !ok {
		return "", unsupported("subquery target")
	}
	return name.Name.String(), nil
}

func myDDL(s *sqlparser.DDL) (ast.Statement, error) {
	switch s.Action {
	case sqlparser.CreateStr:
		if s.TableSpec == nil {
			return nil, unsupported("CREATE TABLE without columns")
		}
		ct := &ast.CreateTable{Table: s.NewName.Name.String()}
		for _, col := range s.TableSpec.Columns {
			def := ast.ColumnDef{
				Name:     col.Name.String(),
				DataType: strings.ToLower(col.Type.Type),
				NotNull:  bool(col.Type.NotNull),
			}
			// The primary-key flag is unexported; its rendering is not.
			if strings.Contains(sqlparser.String(&col.Type), "primary key") {
				def.PrimaryKey = true
				def.NotNull = true
			}
			if col.Type.Default != nil {
				def.Default = myExpr(col.Type.Default)
			}
			ct.Columns = append(ct.Columns, def)
		}
		for _, idx := range s.TableSpec.Indexes {
			if idx.Info == nil || !idx.Info.Primary {
				continue
			}
			tc := ast.TableConstraint{Kind: ast.ConstraintPrimaryKey}
			for _, c := range idx.Columns {
				tc.Columns = append(tc.Columns, c.Column.String())
			}
			ct.Constraints = append(ct.Constraints, tc)
		}
		return ct, nil

	case sqlparser.DropStr:
		return &ast.DropTable{Tables: []string{s.Table.Name.String()}, IfExists: s.IfExists}, nil

	case sqlparser.AlterStr:
		return nil, errAlterDetails
	}
	return nil, unsupported("%s TABLE", strings.ToUpper(s.Action))
}

// myExpr translates a scalar expression. Constructs with no ast equivalent
// become *ast.Unsupported.
func myExpr(e sqlparser.Expr) ast.Expr {
	switch x := e.(type) {
	case nil:
		return nil
	case *sqlparser.AndExpr:
		return &ast.Binary{Op: ast.OpAnd, Left: myExpr(x.Left), Right: myExpr(x.Right)}
	case *sqlparser.OrExpr:
		return &ast.Binary{Op: ast.OpOr, Left: myExpr(x.Left), Right: myExpr(x.Right)}
	case *sqlparser.NotExpr:
		return &ast.Unary{Op: ast.OpNot, Expr: myExpr(x.Expr)}
	case *sqlparser.ParenExpr:
		return myExpr(x.Expr)
	case *sqlparser.ComparisonExpr:
		return myComparison(x)
	case *sqlparser.RangeCond:
		return desugarBetween(myExpr(x.Left), myExpr(x.From), myExpr(x.To), x.Operator == sqlparser.NotBetweenStr)
	case *sqlparser.IsExpr:
		inner := myExpr(x.Expr)
		switch x.Operator {
		case sqlparser.IsNullStr:
			return &ast.Binary{Op: ast.OpIs, Left: inner, Right: ast.Null()}
		case sqlparser.IsNotNullStr:
			return &ast.Binary{Op: ast.OpIsNot, Left: inner, Right: ast.Null()}
		case sqlparser.IsTrueStr:
			return &ast.Binary{Op: ast.OpEq, Left: inner, Right: ast.Lit(true)}
		case sqlparser.IsFalseStr:
			return &ast.Binary{Op: ast.OpEq, Left: inner, Right: ast.Lit(false)}
		case sqlparser.IsNotTrueStr:
			return &ast.Unary{Op: ast.OpNot, Expr: &ast.Binary{Op: ast.OpEq, Left: inner, Right: ast.Lit(true)}}
		case sqlparser.IsNotFalseStr:
			return &ast.Unary{Op: ast.OpNot, Expr: &ast.Binary{Op: ast.OpEq, Left: inner, Right: ast.Lit(false)}}
		}
		return &ast.Unsupported{Kind: x.Operator}
	case *sqlparser.SQLVal:
		return mySQLVal(x)
	case *sqlparser.NullVal:
		return ast.Null()
	case sqlparser.BoolVal:
		return &ast.Literal{Value: bool(x)}
	case *sqlparser.ColName:
		return &ast.ColumnRef{Table: x.Qualifier.Name.String(), Column: x.Name.String()}
	case sqlparser.ValTuple:
		list := &ast.List{}
		for _, item := range x {
			list.Items = append(list.Items, myExpr(item))
		}
		return list
	case *sqlparser.BinaryExpr:
		op := x.Operator
		if op == sqlparser.IntDivStr {
			op = ast.OpDiv
		}
		return &ast.Binary{Op: op, Left: myExpr(x.Left), Right: myExpr(x.Right)}
	case *sqlparser.UnaryExpr:
		inner := myExpr(x.Expr)
		switch x.Operator {
		case sqlparser.UMinusStr:
			if lit, ok := inner.(*ast.Literal); ok {
				if f, ok := lit.Value.(float64); ok {
					return &ast.Literal{Value: -f}
				}
			}
			return &ast.Unary{Op: ast.OpNeg, Expr: inner}
		case sqlparser.UPlusStr:
			return inner
		case sqlparser.BangStr:
			return &ast.Unary{Op: ast.OpNot, Expr: inner}
		}
		return &ast.Unsupported{Kind: "unary " + strings.TrimSpace(x.Operator)}
	case *sqlparser.FuncExpr:
		f := &ast.Func{Name: x.Name.String(), Distinct: x.Distinct}
		for _, arg := range x.Exprs {
			switch a := arg.(type) {
			case *sqlparser.StarExpr:
				f.Star = true
			case *sqlparser.AliasedExpr:
				f.Args = append(f.Args, myExpr(a.Expr))
			}
		}
		return f
	case *sqlparser.ConvertExpr:
		target := ""
		if x.Type != nil {
			target = strings.ToLower(x.Type.Type)
		}
		return &ast.Cast{Expr: myExpr(x.Expr), Type: target}
	case *sqlparser.Default:
		return &ast.Unsupported{Kind: ast.KindDefault}
	}
	return &ast.Unsupported{Kind: myKind(e)}
}

func myComparison(x *sqlparser.ComparisonExpr) ast.Expr {
	left, right := myExpr(x.Left), myExpr(x.Right)
	switch x.Operator {
	case sqlparser.InStr, sqlparser.NotInStr:
		list, ok := right.(*ast.List)
		if !ok {
			list = &ast.List{Items: []ast.Expr{right}}
		}
		op := ast.OpIn
		if x.Operator == sqlparser.NotInStr {
			op = ast.OpNotIn
		}
		return &ast.Binary{Op: op, Left: left, Right: list}
	case sqlparser.LikeStr:
		return &ast.Binary{Op: ast.OpLike, Left: left, Right: right}
	case sqlparser.NotLikeStr:
		return &ast.Binary{Op: ast.OpNotLike, Left: left, Right: right}
	}
	return &ast.Binary{Op: strings.ToUpper(x.Operator), Left: left, Right: right}
}

func mySQLVal(v *sqlparser.SQLVal) ast.Expr {
	raw := string(v.Val)
	switch v.Type {
	case sqlparser.StrVal:
		return &ast.Literal{Value: raw}
	case sqlparser.IntVal, sqlparser.FloatVal:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &ast.Literal{Value: raw}
		}
		return &ast.Literal{Value: f}
	case sqlparser.HexNum:
		i, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return &ast.Literal{Value: raw}
		}
		return &ast.Literal{Value: float64(i)}
	case sqlparser.ValArg:
		// Column defaults reuse ValArg for NULL and CURRENT_TIMESTAMP.
		switch strings.ToLower(raw) {
		case "null":
			return ast.Null()
		case "current_timestamp":
			return &ast.Func{Name: "CURRENT_TIMESTAMP"}
		}
		return &ast.Unsupported{Kind: "bind variable"}
	default:
		return &ast.Literal{Value: raw}
	}
}

func myKind(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*sqlparser.")
}

package typereg

import "saiql/internal/ir"

// paramMode says how a parsed parenthesis list maps onto TypeInfo fields.
type paramMode int

const (
	paramsNone paramMode = iota
	paramsLength
	paramsPrecScale
	paramsPrecision
	paramsFixed
)

// parseRule is one row of a source-dialect lookup table. The key it sits
// under is the upper-cased base name with parenthesized arguments removed
// and trailing modifiers folded in (e.g. "TIMESTAMP WITH TIME ZONE").
type parseRule struct {
	kind      ir.TypeKind
	mode      paramMode
	precision int // paramsFixed only
	scale     int // paramsFixed only
}

func fixed(kind ir.TypeKind, p, s int) parseRule {
	return parseRule{kind: kind, mode: paramsFixed, precision: p, scale: s}
}

var postgresParse = map[string]parseRule{
	"SMALLINT":         {kind: ir.KindSmallInt},
	"INT2":             {kind: ir.KindSmallInt},
	"INTEGER":          {kind: ir.KindInteger},
	"INT":              {kind: ir.KindInteger},
	"INT4":             {kind: ir.KindInteger},
	"SERIAL":           {kind: ir.KindInteger},
	"BIGINT":           {kind: ir.KindBigInt},
	"INT8":             {kind: ir.KindBigInt},
	"BIGSERIAL":        {kind: ir.KindBigInt},
	"DECIMAL":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"NUMERIC":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"REAL":             {kind: ir.KindReal},
	"FLOAT4":           {kind: ir.KindReal},
	"DOUBLE PRECISION": {kind: ir.KindDouble},
	"FLOAT8":           {kind: ir.KindDouble},
	"CHAR":             {kind: ir.KindChar, mode: paramsLength},
	"CHARACTER":        {kind: ir.KindChar, mode: paramsLength},
	"BPCHAR":           {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":          {kind: ir.KindVarchar, mode: paramsLength},
	"CHARACTER VARYING": {kind: ir.KindVarchar, mode: paramsLength},
	"TEXT":             {kind: ir.KindText},
	"BYTEA":            {kind: ir.KindBytea},
	"DATE":             {kind: ir.KindDate},
	"TIME":             {kind: ir.KindTime, mode: paramsPrecision},
	"TIME WITHOUT TIME ZONE":      {kind: ir.KindTime, mode: paramsPrecision},
	"TIMESTAMP":                   {kind: ir.KindTimestamp, mode: paramsPrecision},
	"TIMESTAMP WITHOUT TIME ZONE": {kind: ir.KindTimestamp, mode: paramsPrecision},
	"TIMESTAMPTZ":                 {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"TIMESTAMP WITH TIME ZONE":    {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"BOOLEAN": {kind: ir.KindBoolean},
	"BOOL":    {kind: ir.KindBoolean},
	"UUID":    {kind: ir.KindUUID},
	"JSON":    {kind: ir.KindJSON},
	"JSONB":   {kind: ir.KindJSONB},
}

var mysqlParse = map[string]parseRule{
	"TINYINT":          fixed(ir.KindSmallInt, 0, 0),
	"TINYINT UNSIGNED": fixed(ir.KindSmallInt, 0, 0),
	"SMALLINT":         {kind: ir.KindSmallInt},
	"SMALLINT UNSIGNED": {kind: ir.KindInteger},
	"MEDIUMINT":        {kind: ir.KindInteger},
	"MEDIUMINT UNSIGNED": {kind: ir.KindInteger},
	"INT":              {kind: ir.KindInteger},
	"INTEGER":          {kind: ir.KindInteger},
	"INT UNSIGNED":     {kind: ir.KindBigInt},
	"INTEGER UNSIGNED": {kind: ir.KindBigInt},
	"BIGINT":           {kind: ir.KindBigInt},
	"BIGINT UNSIGNED":  fixed(ir.KindDecimal, 20, 0),
	"DECIMAL":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"NUMERIC":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"DEC":              {kind: ir.KindDecimal, mode: paramsPrecScale},
	"FLOAT":            {kind: ir.KindReal},
	"DOUBLE":           {kind: ir.KindDouble},
	"DOUBLE PRECISION": {kind: ir.KindDouble},
	"CHAR":             {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":          {kind: ir.KindVarchar, mode: paramsLength},
	"TINYTEXT":         {kind: ir.KindText},
	"TEXT":             {kind: ir.KindText},
	"MEDIUMTEXT":       {kind: ir.KindText},
	"LONGTEXT":         {kind: ir.KindText},
	"BINARY":           {kind: ir.KindBytea},
	"VARBINARY":        {kind: ir.KindBytea},
	"TINYBLOB":         {kind: ir.KindBytea},
	"BLOB":             {kind: ir.KindBytea},
	"MEDIUMBLOB":       {kind: ir.KindBytea},
	"LONGBLOB":         {kind: ir.KindBytea},
	"DATE":             {kind: ir.KindDate},
	"TIME":             {kind: ir.KindTime, mode: paramsPrecision},
	"DATETIME":         {kind: ir.KindTimestamp, mode: paramsPrecision},
	"TIMESTAMP":        {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"BOOLEAN":          {kind: ir.KindBoolean},
	"BOOL":             {kind: ir.KindBoolean},
	"UUID":             {kind: ir.KindUUID}, // MariaDB 10.7+
	"JSON":             {kind: ir.KindJSON},
}

var sqliteParse = map[string]parseRule{
	"INTEGER":          {kind: ir.KindInteger},
	"INT":              {kind: ir.KindInteger},
	"SMALLINT":         {kind: ir.KindSmallInt},
	"BIGINT":           {kind: ir.KindBigInt},
	"DECIMAL":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"NUMERIC":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"REAL":             {kind: ir.KindDouble},
	"FLOAT":            {kind: ir.KindReal},
	"DOUBLE":           {kind: ir.KindDouble},
	"DOUBLE PRECISION": {kind: ir.KindDouble},
	"CHAR":             {kind: ir.KindChar, mode: paramsLength},
	"CHARACTER":        {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":          {kind: ir.KindVarchar, mode: paramsLength},
	"TEXT":             {kind: ir.KindText},
	"CLOB":             {kind: ir.KindText},
	"BLOB":             {kind: ir.KindBytea},
	"DATE":             {kind: ir.KindDate},
	"TIME":             {kind: ir.KindTime},
	"DATETIME":         {kind: ir.KindTimestamp},
	"TIMESTAMP":        {kind: ir.KindTimestamp},
	"BOOLEAN":          {kind: ir.KindBoolean},
	"JSON":             {kind: ir.KindJSON},
}

var oracleParse = map[string]parseRule{
	"NUMBER":        {kind: ir.KindDecimal, mode: paramsPrecScale},
	"DECIMAL":       {kind: ir.KindDecimal, mode: paramsPrecScale},
	"NUMERIC":       {kind: ir.KindDecimal, mode: paramsPrecScale},
	"SMALLINT":      {kind: ir.KindSmallInt},
	"INT":           {kind: ir.KindInteger},
	"INTEGER":       {kind: ir.KindInteger},
	"BINARY_FLOAT":  {kind: ir.KindReal},
	"BINARY_DOUBLE": {kind: ir.KindDouble},
	"FLOAT":         {kind: ir.KindDouble, mode: paramsPrecision},
	"CHAR":          {kind: ir.KindChar, mode: paramsLength},
	"NCHAR":         {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":       {kind: ir.KindVarchar, mode: paramsLength},
	"VARCHAR2":      {kind: ir.KindVarchar, mode: paramsLength},
	"NVARCHAR2":     {kind: ir.KindVarchar, mode: paramsLength},
	"CLOB":          {kind: ir.KindText},
	"NCLOB":         {kind: ir.KindText},
	"LONG":          {kind: ir.KindText},
	"RAW":           {kind: ir.KindBytea, mode: paramsLength},
	"LONG RAW":      {kind: ir.KindBytea},
	"BLOB":          {kind: ir.KindBytea},
	"DATE":          {kind: ir.KindTimestamp}, // Oracle DATE carries time of day
	"TIMESTAMP":     {kind: ir.KindTimestamp, mode: paramsPrecision},
	"TIMESTAMP WITH TIME ZONE":       {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"TIMESTAMP WITH LOCAL TIME ZONE": {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"BOOLEAN": {kind: ir.KindBoolean}, // 23c
	"JSON":    {kind: ir.KindJSON},
}

var mssqlParse = map[string]parseRule{
	"TINYINT":          {kind: ir.KindSmallInt},
	"SMALLINT":         {kind: ir.KindSmallInt},
	"INT":              {kind: ir.KindInteger},
	"INTEGER":          {kind: ir.KindInteger},
	"BIGINT":           {kind: ir.KindBigInt},
	"DECIMAL":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"NUMERIC":          {kind: ir.KindDecimal, mode: paramsPrecScale},
	"MONEY":            fixed(ir.KindDecimal, 19, 4),
	"SMALLMONEY":       fixed(ir.KindDecimal, 10, 4),
	"REAL":             {kind: ir.KindReal},
	"FLOAT":            {kind: ir.KindDouble, mode: paramsPrecision},
	"CHAR":             {kind: ir.KindChar, mode: paramsLength},
	"NCHAR":            {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":          {kind: ir.KindVarchar, mode: paramsLength},
	"NVARCHAR":         {kind: ir.KindVarchar, mode: paramsLength},
	"TEXT":             {kind: ir.KindText},
	"NTEXT":            {kind: ir.KindText},
	"BINARY":           {kind: ir.KindBytea, mode: paramsLength},
	"VARBINARY":        {kind: ir.KindBytea, mode: paramsLength},
	"IMAGE":            {kind: ir.KindBytea},
	"DATE":             {kind: ir.KindDate},
	"TIME":             {kind: ir.KindTime, mode: paramsPrecision},
	"DATETIME":         {kind: ir.KindTimestamp},
	"SMALLDATETIME":    {kind: ir.KindTimestamp},
	"DATETIME2":        {kind: ir.KindTimestamp, mode: paramsPrecision},
	"DATETIMEOFFSET":   {kind: ir.KindTimestampTZ, mode: paramsPrecision},
	"BIT":              {kind: ir.KindBoolean},
	"UNIQUEIDENTIFIER": {kind: ir.KindUUID},
}

var hanaParse = map[string]parseRule{
	"TINYINT":    {kind: ir.KindSmallInt},
	"SMALLINT":   {kind: ir.KindSmallInt},
	"INTEGER":    {kind: ir.KindInteger},
	"INT":        {kind: ir.KindInteger},
	"BIGINT":     {kind: ir.KindBigInt},
	"DECIMAL":    {kind: ir.KindDecimal, mode: paramsPrecScale},
	"SMALLDECIMAL": {kind: ir.KindDecimal},
	"REAL":       {kind: ir.KindReal},
	"DOUBLE":     {kind: ir.KindDouble},
	"FLOAT":      {kind: ir.KindDouble, mode: paramsPrecision},
	"CHAR":       {kind: ir.KindChar, mode: paramsLength},
	"NCHAR":      {kind: ir.KindChar, mode: paramsLength},
	"VARCHAR":    {kind: ir.KindVarchar, mode: paramsLength},
	"NVARCHAR":   {kind: ir.KindVarchar, mode: paramsLength},
	"CLOB":       {kind: ir.KindText},
	"NCLOB":      {kind: ir.KindText},
	"TEXT":       {kind: ir.KindText},
	"VARBINARY":  {kind: ir.KindBytea, mode: paramsLength},
	"BLOB":       {kind: ir.KindBytea},
	"DATE":       {kind: ir.KindDate},
	"TIME":       {kind: ir.KindTime},
	"SECONDDATE": {kind: ir.KindTimestamp},
	"TIMESTAMP":  {kind: ir.KindTimestamp},
	"BOOLEAN":    {kind: ir.KindBoolean},
}

// dialectParse maps each dialect to its source lookup table. MariaDB shares
// the MySQL table.
var dialectParse = map[ir.Dialect]map[string]parseRule{
	ir.DialectPostgres: postgresParse,
	ir.DialectMySQL:    mysqlParse,
	ir.DialectMariaDB:  mysqlParse,
	ir.DialectSQLite:   sqliteParse,
	ir.DialectOracle:   oracleParse,
	ir.DialectMSSQL:    mssqlParse,
	ir.DialectHANA:     hanaParse,
}

// renderRule is the target-side base name for one IR kind, plus how the
// TypeInfo parameters are rendered after it.
type renderRule struct {
	base string
	mode paramMode
}

var postgresRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "smallint"},
	ir.KindInteger:     {base: "integer"},
	ir.KindBigInt:      {base: "bigint"},
	ir.KindDecimal:     {base: "numeric", mode: paramsPrecScale},
	ir.KindReal:        {base: "real"},
	ir.KindDouble:      {base: "double precision"},
	ir.KindChar:        {base: "char", mode: paramsLength},
	ir.KindVarchar:     {base: "varchar", mode: paramsLength},
	ir.KindText:        {base: "text"},
	ir.KindBytea:       {base: "bytea"},
	ir.KindDate:        {base: "date"},
	ir.KindTime:        {base: "time"},
	ir.KindTimestamp:   {base: "timestamp", mode: paramsPrecision},
	ir.KindTimestampTZ: {base: "timestamptz", mode: paramsPrecision},
	ir.KindBoolean:     {base: "boolean"},
	ir.KindUUID:        {base: "uuid"},
	ir.KindJSON:        {base: "json"},
	ir.KindJSONB:       {base: "jsonb"},
}

var mysqlRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "smallint"},
	ir.KindInteger:     {base: "int"},
	ir.KindBigInt:      {base: "bigint"},
	ir.KindDecimal:     {base: "decimal", mode: paramsPrecScale},
	ir.KindReal:        {base: "float"},
	ir.KindDouble:      {base: "double"},
	ir.KindChar:        {base: "char", mode: paramsLength},
	ir.KindVarchar:     {base: "varchar", mode: paramsLength},
	ir.KindText:        {base: "longtext"},
	ir.KindBytea:       {base: "longblob"},
	ir.KindDate:        {base: "date"},
	ir.KindTime:        {base: "time"},
	ir.KindTimestamp:   {base: "datetime", mode: paramsPrecision},
	ir.KindTimestampTZ: {base: "timestamp", mode: paramsPrecision},
	ir.KindBoolean:     {base: "tinyint(1)"},
	ir.KindUUID:        {base: "char(36)"},
	ir.KindJSON:        {base: "json"},
	ir.KindJSONB:       {base: "json"},
}

var sqliteRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "INTEGER"},
	ir.KindInteger:     {base: "INTEGER"},
	ir.KindBigInt:      {base: "INTEGER"},
	ir.KindDecimal:     {base: "NUMERIC"},
	ir.KindReal:        {base: "REAL"},
	ir.KindDouble:      {base: "REAL"},
	ir.KindChar:        {base: "TEXT"},
	ir.KindVarchar:     {base: "TEXT"},
	ir.KindText:        {base: "TEXT"},
	ir.KindBytea:       {base: "BLOB"},
	ir.KindDate:        {base: "TEXT"},
	ir.KindTime:        {base: "TEXT"},
	ir.KindTimestamp:   {base: "TEXT"},
	ir.KindTimestampTZ: {base: "TEXT"},
	ir.KindBoolean:     {base: "INTEGER"},
	ir.KindUUID:        {base: "TEXT"},
	ir.KindJSON:        {base: "TEXT"},
	ir.KindJSONB:       {base: "TEXT"},
}

var oracleRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "NUMBER(5)"},
	ir.KindInteger:     {base: "NUMBER(10)"},
	ir.KindBigInt:      {base: "NUMBER(19)"},
	ir.KindDecimal:     {base: "NUMBER", mode: paramsPrecScale},
	ir.KindReal:        {base: "BINARY_FLOAT"},
	ir.KindDouble:      {base: "BINARY_DOUBLE"},
	ir.KindChar:        {base: "CHAR", mode: paramsLength},
	ir.KindVarchar:     {base: "VARCHAR2", mode: paramsLength},
	ir.KindText:        {base: "CLOB"},
	ir.KindBytea:       {base: "BLOB"},
	ir.KindDate:        {base: "DATE"},
	ir.KindTime:        {base: "TIMESTAMP"},
	ir.KindTimestamp:   {base: "TIMESTAMP", mode: paramsPrecision},
	ir.KindTimestampTZ: {base: "TIMESTAMP WITH TIME ZONE"},
	ir.KindBoolean:     {base: "NUMBER(1)"},
	ir.KindUUID:        {base: "RAW(16)"},
	ir.KindJSON:        {base: "CLOB"},
	ir.KindJSONB:       {base: "CLOB"},
}

var mssqlRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "smallint"},
	ir.KindInteger:     {base: "int"},
	ir.KindBigInt:      {base: "bigint"},
	ir.KindDecimal:     {base: "decimal", mode: paramsPrecScale},
	ir.KindReal:        {base: "real"},
	ir.KindDouble:      {base: "float"},
	ir.KindChar:        {base: "char", mode: paramsLength},
	ir.KindVarchar:     {base: "varchar", mode: paramsLength},
	ir.KindText:        {base: "nvarchar(max)"},
	ir.KindBytea:       {base: "varbinary(max)"},
	ir.KindDate:        {base: "date"},
	ir.KindTime:        {base: "time"},
	ir.KindTimestamp:   {base: "datetime2", mode: paramsPrecision},
	ir.KindTimestampTZ: {base: "datetimeoffset", mode: paramsPrecision},
	ir.KindBoolean:     {base: "bit"},
	ir.KindUUID:        {base: "uniqueidentifier"},
	ir.KindJSON:        {base: "nvarchar(max)"},
	ir.KindJSONB:       {base: "nvarchar(max)"},
}

var hanaRender = map[ir.TypeKind]renderRule{
	ir.KindSmallInt:    {base: "SMALLINT"},
	ir.KindInteger:     {base: "INTEGER"},
	ir.KindBigInt:      {base: "BIGINT"},
	ir.KindDecimal:     {base: "DECIMAL", mode: paramsPrecScale},
	ir.KindReal:        {base: "REAL"},
	ir.KindDouble:      {base: "DOUBLE"},
	ir.KindChar:        {base: "NVARCHAR", mode: paramsLength},
	ir.KindVarchar:     {base: "NVARCHAR", mode: paramsLength},
	ir.KindText:        {base: "NCLOB"},
	ir.KindBytea:       {base: "BLOB"},
	ir.KindDate:        {base: "DATE"},
	ir.KindTime:        {base: "TIME"},
	ir.KindTimestamp:   {base: "TIMESTAMP"},
	ir.KindTimestampTZ: {base: "TIMESTAMP"},
	ir.KindBoolean:     {base: "BOOLEAN"},
	ir.KindUUID:        {base: "VARCHAR(36)"},
	ir.KindJSON:        {base: "NCLOB"},
	ir.KindJSONB:       {base: "NCLOB"},
}

var dialectRender = map[ir.Dialect]map[ir.TypeKind]renderRule{
	ir.DialectPostgres: postgresRender,
	ir.DialectMySQL:    mysqlRender,
	ir.DialectMariaDB:  mysqlRender,
	ir.DialectSQLite:   sqliteRender,
	ir.DialectOracle:   oracleRender,
	ir.DialectMSSQL:    mssqlRender,
	ir.DialectHANA:     hanaRender,
}

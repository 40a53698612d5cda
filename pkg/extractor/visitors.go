package extractor

import (
	"math"
	"strconv"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// visitor inspects one node kind and records what it finds.
type visitor func(w *walker, node *ts.Node)

// visitors maps node kinds to the rule that handles them. Kinds not listed
// are only descended into.
var visitors = map[string]visitor{
	"program":                        visitProgram,
	"function_declaration":           visitFunctionDeclaration,
	"generator_function_declaration": visitFunctionDeclaration,
	"variable_declarator":            visitVariableDeclarator,
	"pair":                           visitPair,
	"shorthand_property_identifier":  visitShorthandProperty,
	"call_expression":                visitCallExpression,
	"import_statement":               visitImportStatement,
	"export_specifier":               visitExportSpecifier,
}

var dataFetchingNames = map[string]func(f *DetectedFeatures){
	"getStaticProps":       func(f *DetectedFeatures) { f.HasGetStaticProps = true },
	"getServerSideProps":   func(f *DetectedFeatures) { f.HasGetServerSideProps = true },
	"getStaticPaths":       func(f *DetectedFeatures) { f.HasGetStaticPaths = true },
	"generateStaticParams": func(f *DetectedFeatures) { f.HasGenerateStaticParams = true },
	"generateMetadata":     func(f *DetectedFeatures) { f.HasGenerateMetadata = true },
}

var calleeNames = map[string]func(f *DetectedFeatures){
	"useEffect":       func(f *DetectedFeatures) { f.HasUseEffect = true },
	"useLayoutEffect": func(f *DetectedFeatures) { f.HasUseLayoutEffect = true },
	"useState":        func(f *DetectedFeatures) { f.HasUseState = true },
	"cookies":         func(f *DetectedFeatures) { f.UsesCookies = true },
	"headers":         func(f *DetectedFeatures) { f.UsesHeaders = true },
	"notFound":        func(f *DetectedFeatures) { f.UsesNotFound = true },
	"redirect":        func(f *DetectedFeatures) { f.UsesRedirect = true },
	"unstable_cache":  func(f *DetectedFeatures) { f.UsesUnstableCache = true },
}

// importedNames lists, per module specifier, the exports that mark a feature.
var importedNames = map[string]map[string]func(f *DetectedFeatures){
	"next/headers": {
		"cookies": func(f *DetectedFeatures) { f.UsesCookies = true },
		"headers": func(f *DetectedFeatures) { f.UsesHeaders = true },
	},
	"next/cookies": {
		"cookies": func(f *DetectedFeatures) { f.UsesCookies = true },
		"headers": func(f *DetectedFeatures) { f.UsesHeaders = true },
	},
	"next/navigation": {
		"notFound":        func(f *DetectedFeatures) { f.UsesNotFound = true },
		"redirect":        func(f *DetectedFeatures) { f.UsesRedirect = true },
		"useSearchParams": func(f *DetectedFeatures) { f.UsesSearchParams = true },
	},
}

var functionValueKinds = map[string]bool{
	"arrow_function":      true,
	"function_expression": true,
	"function":            true,
	"generator_function":  true,
}

// wrapperKinds do not change the value of the expression they wrap.
var wrapperKinds = map[string]bool{
	"parenthesized_expression": true,
	"as_expression":            true,
	"satisfies_expression":     true,
	"non_null_expression":      true,
}

type walker struct {
	source   []byte
	features *DetectedFeatures
}

// ExtractFeatures walks the tree once and returns the features it contains.
// A nil tree yields an all-default record.
func ExtractFeatures(tree *ts.Tree, source []byte) *DetectedFeatures {
	features := &DetectedFeatures{}
	if tree == nil {
		return features
	}

	w := &walker{source: source, features: features}
	cursor := tree.RootNode().Walk()
	defer cursor.Close()

	for {
		node := cursor.Node()
		if visit, ok := visitors[node.Kind()]; ok {
			visit(w, node)
		}

		if cursor.GotoFirstChild() {
			continue
		}
		for !cursor.GotoNextSibling() {
			if !cursor.GotoParent() {
				return features
			}
		}
	}
}

func (w *walker) text(node *ts.Node) string {
	return node.Utf8Text(w.source)
}

// visitProgram reads the directive prologue.
func visitProgram(w *walker, node *ts.Node) {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "comment", "hash_bang_line":
			continue
		case "expression_statement":
		default:
			return
		}

		expr := child.NamedChild(0)
		if expr == nil || expr.Kind() != "string" {
			return
		}
		if strings.EqualFold(strings.TrimSpace(w.stringValue(expr)), "use client") {
			w.features.IsClientComponent = true
		}
	}
}

func visitFunctionDeclaration(w *walker, node *ts.Node) {
	if name := node.ChildByFieldName("name"); name != nil {
		w.markDataFetching(w.text(name))
	}
}

func visitVariableDeclarator(w *walker, node *ts.Node) {
	name := node.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return
	}
	key := w.text(name)
	value := unwrap(node.ChildByFieldName("value"))

	if value != nil && functionValueKinds[value.Kind()] {
		w.markDataFetching(key)
	}
	w.applyKey(key, value)
}

func visitPair(w *walker, node *ts.Node) {
	key := w.propertyKey(node.ChildByFieldName("key"))
	if key == "" {
		return
	}
	w.applyKey(key, unwrap(node.ChildByFieldName("value")))
}

// visitShorthandProperty handles { revalidate } where the value is a binding
// we cannot evaluate.
func visitShorthandProperty(w *walker, node *ts.Node) {
	switch w.text(node) {
	case "revalidate":
		w.features.setRevalidate(Revalidate{Kind: RevalidateUnknown})
	case "metadata":
		w.features.HasMetadata = true
	}
}

func visitCallExpression(w *walker, node *ts.Node) {
	callee := unwrap(node.ChildByFieldName("function"))
	if callee == nil {
		return
	}

	switch callee.Kind() {
	case "identifier":
		name := w.text(callee)
		if mark, ok := calleeNames[name]; ok {
			mark(w.features)
		}
		if name == "fetch" {
			w.analyzeFetchOptions(node.ChildByFieldName("arguments"))
		}
	case "member_expression":
		object := unwrap(callee.ChildByFieldName("object"))
		if object != nil && object.Kind() == "identifier" && w.text(object) == "unstable_cache" {
			w.features.UsesUnstableCache = true
		}
	}
}

func visitImportStatement(w *walker, node *ts.Node) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	names, ok := importedNames[w.stringValue(source)]
	if !ok {
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		clause := node.NamedChild(i)
		if clause.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < clause.NamedChildCount(); j++ {
			named := clause.NamedChild(j)
			if named.Kind() != "named_imports" {
				continue
			}
			for k := uint(0); k < named.NamedChildCount(); k++ {
				spec := named.NamedChild(k)
				if spec.Kind() != "import_specifier" {
					continue
				}
				// The imported name, not the local alias.
				if mark, ok := names[w.identifierText(spec.ChildByFieldName("name"))]; ok {
					mark(w.features)
				}
			}
		}
	}
}

// visitExportSpecifier matches re-exported data fetching functions by the
// name they are exported under.
func visitExportSpecifier(w *walker, node *ts.Node) {
	exported := node.ChildByFieldName("alias")
	if exported == nil {
		exported = node.ChildByFieldName("name")
	}
	w.markDataFetching(w.identifierText(exported))
}

func (w *walker) markDataFetching(name string) {
	if mark, ok := dataFetchingNames[name]; ok {
		mark(w.features)
	}
}

// applyKey implements the key rules shared by declarators and object pairs.
// value is already unwrapped and may be nil.
func (w *walker) applyKey(key string, value *ts.Node) {
	f := w.features
	switch key {
	case "revalidate":
		f.setRevalidate(w.revalidateValue(value))
	case "runtime":
		if s, ok := w.stringLiteral(value); ok {
			f.setRuntime(s)
		}
	case "fetchCache":
		if s, ok := w.stringLiteral(value); ok {
			f.setFetchCache(s)
		}
	case "dynamic":
		if s, ok := w.stringLiteral(value); ok {
			f.setDynamic(s)
		}
	case "cache":
		if s, ok := w.stringLiteral(value); ok {
			switch s {
			case "no-store":
				f.HasFetchNoStore = true
			case "force-cache":
				f.HasFetchForceCache = true
			}
		}
	case "metadata":
		f.HasMetadata = true
	case "next":
		if value != nil && value.Kind() == "object" {
			w.analyzeObject(value)
		}
	}
}

func (w *walker) analyzeObject(object *ts.Node) {
	for i := uint(0); i < object.NamedChildCount(); i++ {
		prop := object.NamedChild(i)
		switch prop.Kind() {
		case "pair":
			visitPair(w, prop)
		case "shorthand_property_identifier":
			visitShorthandProperty(w, prop)
		}
	}
}

// analyzeFetchOptions inspects fetch(url, { ... }). Any other shape of the
// second argument is ignored.
func (w *walker) analyzeFetchOptions(args *ts.Node) {
	if args == nil {
		return
	}
	position := 0
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		if arg.Kind() == "comment" {
			continue
		}
		if position == 1 {
			if options := unwrap(arg); options != nil && options.Kind() == "object" {
				w.analyzeObject(options)
			}
			return
		}
		position++
	}
}

func (w *walker) revalidateValue(value *ts.Node) Revalidate {
	if value == nil {
		return Revalidate{Kind: RevalidateUnknown}
	}
	if value.Kind() == "false" {
		return Revalidate{Kind: RevalidateFalse}
	}
	if n, ok := w.numericValue(value); ok {
		return Revalidate{Kind: RevalidateSeconds, Seconds: n}
	}
	return Revalidate{Kind: RevalidateUnknown}
}

// numericValue evaluates number literals and constant arithmetic over them
// (60 * 60, -1). Non-finite results are rejected.
func (w *walker) numericValue(node *ts.Node) (float64, bool) {
	node = unwrap(node)
	if node == nil {
		return 0, false
	}

	switch node.Kind() {
	case "number":
		return parseNumber(w.text(node))
	case "unary_expression":
		op := node.ChildByFieldName("operator")
		v, ok := w.numericValue(node.ChildByFieldName("argument"))
		if !ok || op == nil {
			return 0, false
		}
		switch op.Kind() {
		case "-":
			return -v, true
		case "+":
			return v, true
		}
	case "binary_expression":
		op := node.ChildByFieldName("operator")
		left, lok := w.numericValue(node.ChildByFieldName("left"))
		right, rok := w.numericValue(node.ChildByFieldName("right"))
		if !lok || !rok || op == nil {
			return 0, false
		}
		var v float64
		switch op.Kind() {
		case "+":
			v = left + right
		case "-":
			v = left - right
		case "*":
			v = left * right
		case "/":
			v = left / right
		default:
			return 0, false
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// parseNumber reads a JavaScript numeric literal: separators, radix
// prefixes and BigInt suffixes included.
func parseNumber(text string) (float64, bool) {
	s := strings.ReplaceAll(text, "_", "")
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseInt(strings.TrimSuffix(lower, "n"), 0, 64)
		if err != nil {
			return 0, false
		}
		return float64(n), true
	}
	s = strings.TrimSuffix(s, "n")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func (w *walker) stringLiteral(node *ts.Node) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	return w.stringValue(node), true
}

// stringValue strips the quotes of a string node.
func (w *walker) stringValue(node *ts.Node) string {
	text := w.text(node)
	if len(text) >= 2 {
		return text[1 : len(text)-1]
	}
	return text
}

// identifierText returns the name of an identifier or string module export
// name ({ x as "GET" }).
func (w *walker) identifierText(node *ts.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "string" {
		return w.stringValue(node)
	}
	return w.text(node)
}

func (w *walker) propertyKey(key *ts.Node) string {
	if key == nil {
		return ""
	}
	switch key.Kind() {
	case "property_identifier", "identifier":
		return w.text(key)
	case "string":
		return w.stringValue(key)
	}
	return ""
}

func unwrap(node *ts.Node) *ts.Node {
	for node != nil && wrapperKinds[node.Kind()] {
		inner := node.NamedChild(0)
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

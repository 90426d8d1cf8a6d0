package parser

// Node type tables per grammar. Tree-sitter grammars name the same concept
// differently, so the program model builder asks these instead of matching
// node types itself.

// UnitNodeTypes returns the node types that declare a class-like unit.
func UnitNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"type_spec"}
	case LangRust:
		return []string{"struct_item", "impl_item", "trait_item"}
	case LangPython:
		return []string{"class_definition"}
	case LangTypeScript, LangJavaScript, LangTSX:
		return []string{"class_declaration", "class", "abstract_class_declaration", "interface_declaration"}
	case LangJava:
		return []string{"class_declaration", "interface_declaration", "enum_declaration", "record_declaration"}
	case LangCPP:
		return []string{"class_specifier", "struct_specifier"}
	case LangCSharp:
		return []string{"class_declaration", "interface_declaration", "struct_declaration", "record_declaration"}
	case LangRuby:
		return []string{"class", "module"}
	case LangPHP:
		return []string{"class_declaration", "interface_declaration", "trait_declaration"}
	default:
		return nil
	}
}

// MethodNodeTypes returns the node types of function members and of
// top-level functions.
func MethodNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangRust:
		return []string{"function_item", "function_signature_item"}
	case LangPython:
		return []string{"function_definition"}
	case LangTypeScript, LangJavaScript, LangTSX:
		return []string{"method_definition", "function_declaration", "abstract_method_signature", "method_signature"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration", "static_initializer", "compact_constructor_declaration"}
	case LangC, LangCPP:
		return []string{"function_definition"}
	case LangCSharp:
		return []string{"method_declaration", "constructor_declaration"}
	case LangRuby:
		return []string{"method", "singleton_method"}
	case LangPHP:
		return []string{"method_declaration", "function_definition"}
	default:
		return nil
	}
}

// FieldNodeTypes returns the node types that declare data members.
func FieldNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"field_declaration"}
	case LangRust:
		return []string{"field_declaration"}
	case LangJava:
		return []string{"field_declaration"}
	case LangTypeScript, LangJavaScript, LangTSX:
		return []string{"public_field_definition", "field_definition"}
	case LangPython:
		return []string{"assignment"}
	case LangCSharp:
		return []string{"field_declaration", "property_declaration"}
	case LangCPP:
		return []string{"field_declaration"}
	case LangRuby:
		return []string{"instance_variable"}
	case LangPHP:
		return []string{"property_declaration"}
	default:
		return nil
	}
}

// BlockNodeTypes are the containers whose named children are statements.
var BlockNodeTypes = set(
	"block", "statement_block", "compound_statement", "body_statement",
	"constructor_body", "switch_block_statement_group", "switch_section",
	"expression_case", "then", "do",
)

// BranchNodeTypes are named nodes adding one decision point each. Several
// grammars reuse the keyword as the node type ("if", "while"), so only named
// nodes may be matched against this table.
var BranchNodeTypes = set(
	"if_statement", "if_expression", "if", "elif_clause", "elsif",
	"if_modifier", "unless", "unless_modifier", "for_statement",
	"for_in_statement", "enhanced_for_statement", "foreach_statement",
	"for_expression", "for", "while_statement", "while_expression", "while",
	"while_modifier", "until", "do_statement", "loop_expression",
	"conditional_expression", "ternary_expression", "conditional",
)

// BranchOperators are the anonymous short-circuit operator tokens.
var BranchOperators = set("&&", "||", "and", "or")

// SwitchNodeTypes are multiway branches; their targets are counted by
// CaseNodeTypes children.
var SwitchNodeTypes = set(
	"switch_statement", "switch_expression", "expression_switch_statement",
	"type_switch_statement", "match_expression", "match_statement", "case",
)

// CaseNodeTypes are the labelled targets of a switch.
var CaseNodeTypes = set(
	"switch_label", "switch_section", "switch_case", "case_statement",
	"case_clause", "expression_case", "type_case", "match_arm", "when",
	"switch_rule",
)

// TrapNodeTypes are exception handler regions.
var TrapNodeTypes = set(
	"catch_clause", "except_clause", "rescue",
)

// CallNodeTypes invoke a function or method.
var CallNodeTypes = set(
	"method_invocation", "call_expression", "call", "invocation_expression",
	"member_call_expression", "function_call_expression",
	"scoped_call_expression",
)

// ClosureNodeTypes are anonymous functions nested in a method.
var ClosureNodeTypes = set(
	"lambda_expression", "lambda", "arrow_function", "function_expression",
	"func_literal", "closure_expression",
	"anonymous_function_creation_expression",
)

func set(types ...string) map[string]bool {
	m := make(map[string]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

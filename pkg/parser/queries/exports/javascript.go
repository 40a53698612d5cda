package exports

// JSQueries matches the names a JavaScript module exports.
//
// Captures:
//   - @export.name      - name of an exported declaration
//   - @export.local     - local name inside an export clause specifier
//   - @export.specifier - the whole specifier; its alias field, when
//     present, is the exported name
const JSQueries = `
; export function GET() {} / export async function POST() {}
(export_statement
  declaration: (function_declaration
    name: (identifier) @export.name))

; export function* stream() {}
(export_statement
  declaration: (generator_function_declaration
    name: (identifier) @export.name))

; export const GET = handler
(export_statement
  declaration: (lexical_declaration
    (variable_declarator
      name: (identifier) @export.name)))

; export var DELETE = handler
(export_statement
  declaration: (variable_declaration
    (variable_declarator
      name: (identifier) @export.name)))

; export { handler as GET, POST }
(export_specifier
  name: (_) @export.local) @export.specifier
`

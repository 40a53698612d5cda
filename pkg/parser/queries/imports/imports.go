package imports

// Queries matches module specifiers a file depends on, for both grammars.
//
// Captures:
//   - @import.source - specifier of an import statement
//   - @export.source - specifier of a re-export (export ... from '...')
const Queries = `
(import_statement
  source: (string (string_fragment) @import.source))

(export_statement
  source: (string (string_fragment) @export.source))
`

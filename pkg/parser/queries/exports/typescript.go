package exports

// TSQueries matches the names a TypeScript or TSX module exports. It extends
// JSQueries with overload signatures (export function GET(): Response;).
const TSQueries = JSQueries + `
(export_statement
  declaration: (function_signature
    name: (identifier) @export.name))
`

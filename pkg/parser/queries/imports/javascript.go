package imports

// JSQueries contains the tree-sitter query patterns used to build the
// named-export registry (pkg/exportindex) from a JavaScript file.
//
// Import statements are deliberately not captured here: C2/C3 (pkg/importstmt,
// pkg/importblock) parse and rewrite the buffer's own import block with
// regexes per spec, so this query only needs to answer one question about
// *other* files in the workspace — what does this file export, and under
// what name.
//
// Captures:
//   - @export.name / @export.reexport.name / @export.commonjs.name - named exports
//   - @export.default / @export.commonjs.default - default export markers
const JSQueries = `
; ===========================================================================
; EXPORT STATEMENTS (ES modules)
; ===========================================================================

; Named function export: export function foo() {}
(export_statement
  declaration: (function_declaration
    name: (identifier) @export.name
  ) @export.declaration
)

; Named class export: export class MyClass {}
(export_statement
  declaration: (class_declaration
    name: (identifier) @export.name
  ) @export.declaration
)

; Named variable export: export const foo = 1;
(export_statement
  declaration: (lexical_declaration
    (variable_declarator
      name: (identifier) @export.name
    )
  ) @export.declaration
)

; Default export with function: export default function() {}
(export_statement
  value: (function_expression) @export.declaration
) @export.default

; Default export with identifier: export default foo;
(export_statement
  value: (identifier) @export.default
)

; Export list names: export { foo, bar };
(export_specifier
  name: (identifier) @export.name
)

; Re-export names: export { foo, bar } from './other';
(export_statement
  (export_clause
    (export_specifier
      name: (identifier) @export.reexport.name
    )
  )
  source: (string)
)

; Re-export all: export * from './other';
(export_statement
  !declaration
  source: (string (string_fragment) @export.reexport.source)
)

; ===========================================================================
; COMMONJS EXPORTS
; ===========================================================================
; module.exports / exports.x assignments, so that projects still on
; CommonJS populate the same named-export registry as ES modules do.

; module.exports = value (default export)
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (identifier) @export.commonjs.default
)

; module.exports = { foo, bar } - shorthand properties
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (object
    (shorthand_property_identifier) @export.commonjs.name
  )
)

; module.exports = { foo: value } - full properties
(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (object
    (pair
      key: (property_identifier) @export.commonjs.name
    )
  )
)

; exports.foo = value
(assignment_expression
  left: (member_expression
    object: (identifier) @_exports (#eq? @_exports "exports")
    property: (property_identifier) @export.commonjs.name
  )
)

; module.exports.foo = value
(assignment_expression
  left: (member_expression
    object: (member_expression
      object: (identifier) @_module (#eq? @_module "module")
      property: (property_identifier) @_exports (#eq? @_exports "exports")
    )
    property: (property_identifier) @export.commonjs.name
  )
)
`

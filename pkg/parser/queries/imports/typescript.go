package imports

// TSQueries is JSQueries' counterpart for TypeScript/TSX source, adding the
// TypeScript-only export declaration kinds (interface, type alias, enum) on
// top of the ES-module and CommonJS export patterns. Like JSQueries, this
// deliberately only captures exports: the buffer's own import block is
// parsed and rewritten by pkg/importstmt/pkg/importblock per spec, not by
// this tree-sitter pass, which exists solely to populate pkg/exportindex's
// named-export registry for *other* files in the workspace.
//
// Captures:
//   - @export.name / @export.reexport.name / @export.commonjs.name - named exports
//   - @export.default / @export.commonjs.default - default export markers
const TSQueries = `
; ===========================================================================
; EXPORT STATEMENTS
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
    name: (type_identifier) @export.name
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

; TypeScript interface export: export interface User {}
(export_statement
  declaration: (interface_declaration
    name: (type_identifier) @export.name
  ) @export.declaration
)

; TypeScript type alias export: export type ID = string;
(export_statement
  declaration: (type_alias_declaration
    name: (type_identifier) @export.name
  ) @export.declaration
)

; TypeScript enum export: export enum Color {}
(export_statement
  declaration: (enum_declaration
    name: (identifier) @export.name
  ) @export.declaration
)

; ===========================================================================
; COMMONJS EXPORTS
; ===========================================================================
; TypeScript files compiled to CommonJS (or hand-written .ts using require)
; still populate the registry through the same module.exports/exports shapes.

(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (identifier) @export.commonjs.default
)

(assignment_expression
  left: (member_expression
    object: (identifier) @_module (#eq? @_module "module")
    property: (property_identifier) @_exports (#eq? @_exports "exports")
  )
  right: (object
    (shorthand_property_identifier) @export.commonjs.name
  )
)

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

(assignment_expression
  left: (member_expression
    object: (identifier) @_exports (#eq? @_exports "exports")
    property: (property_identifier) @export.commonjs.name
  )
)

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

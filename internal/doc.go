// Package internal contains the core implementation packages for quicksite.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - structure: Node model and the path-addressed structure editor
//   - nodepath: Parsing and resolving node paths such as "0.slots.body.1"
//   - renderer: Node rendering with tag, attribute and URL sanitization
//   - placeholder: Component placeholder substitution and slot filling
//   - callsyntax: Event handler call syntax and the function registry
//   - i18n: Translation catalogs, language tags and fallback lookup
//   - registry: Component loading, metadata and dependency graph
//   - project: On-disk layout, structure references and undo history
//   - audit: Post-render HTML audit for hazards and accessibility slips
//   - services: Render, check and init use cases shared by CLI and server
//   - server: Preview HTTP server, editor API and live reload
//   - watcher: Debounced file system monitoring
//   - config, logging, errors, validation, version: Ambient infrastructure
//
// # Rendering Pipeline
//
// A structure reference (page:<name>, menu, footer or component:<name>) is
// read by project, decoded by structure and walked by renderer. Components
// are resolved through registry and expanded by placeholder, text keys are
// looked up by i18n and event handlers are checked by callsyntax. Nodes
// that cannot be rendered become HTML comments and are reported as issues
// with their node path.
//
// # Security Considerations
//
//   - Tags, attributes and URL schemes are allowlisted in renderer
//   - Project paths are confined to the project root in project
//   - Server origins are validated before a WebSocket upgrade
//   - The editor API is disabled unless server.editor is set
package internal

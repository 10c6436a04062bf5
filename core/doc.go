// Package core provides the foundational domain types and contracts of
// schoolmesh:
//
//   - Household (the immutable context snapshot seeding a conversation)
//   - Session (conversation handle owning an append-only message history)
//   - Message / Part (the routed unit exchanged with capabilities)
//   - Reply / ReplyWriter / Final (fragment stream plus deferred transcript)
//   - Capability / Invocation / ToolContext (specialised agents and their scope)
//   - BulletinStore (school notices consumed by capabilities)
//
// Orchestration (routing, assembly, the turn driver) lives in the router,
// assembler and runner packages; this package keeps only small contracts.
package core

// Package protocol defines the wire vocabulary of the MIL web exchange
// protocol.
//
// The exchange server publishes named buffers (displays, images, arrays,
// message mailboxes) and groups of buffers. Clients mirror them over
// WebSocket connections, one connection per mirrored object.
//
// # Wire Format
//
// Control traffic is JSON carried in text frames. Every message has a
// numeric Command field that selects its shape:
//
//	{"Command":126,"ExchangeBufferId":"Display1"}
//
// Buffer payloads travel in binary frames that immediately follow an
// OBJECT_DATA message on the same connection. Mailboxes in text mode
// (MessageType == MailboxModeWebText) deliver their payload as the next
// text frame instead.
//
// # Handshake
//
//	Client                               Server
//	  │                                     │
//	  │──── APP_START (ClientVersion) ────>│
//	  │<─── CONNECTION_INFO (ServerVersion)─│
//	  │──── GET_OBJECT_LIST ──────────────>│
//	  │<─── OBJECT_LIST ────────────────────│
//
// A client must refuse to continue when ServerVersion differs from
// ClientVersion.
//
// # Object Lifecycle
//
//	Client (per object)                  Server
//	  │──── REQUEST_OBJECT_INFO ──────────>│
//	  │<─── OBJECT_INFO ────────────────────│
//	  │──── SET_PARAMETERS ───────────────>│
//	  │<─── OBJECT_CONNECTED ───────────────│
//	  │──── REQUEST_OBJECT_DATA ──────────>│
//	  │<─── OBJECT_DATA + binary frame ─────│
//
// # Constants
//
// Numeric constants (object types, hook types, info types, control and
// inquire types, display event codes, pixel formats) match the values
// used by the MIL library so that both ends agree on their meaning.
package protocol

package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// ClientErrorCount is the size of the client error table (E001-E015).
const ClientErrorCount = 15

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Client API Errors (E001-E015)
	// ============================================

	"E001": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be a MIL Application context.",
		Detail:   "The handle does not identify an application connection.",
	},
	"E002": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Invalid object type for EventId.",
		Detail:   "Hook information can only be read from the info passed to a hook handler.",
	},
	"E003": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be a MIL Display.",
	},
	"E004": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be DOM HTML5 canvas element.",
		Detail:   "A display can only be bound to a drawing surface.",
	},
	"E005": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be a MIL buffer.",
		Detail:   "Buffer operations accept image and array handles only.",
	},
	"E006": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be a MIL object.",
	},
	"E007": {
		Category: CategoryAPI,
		Message:  "Invalid parameter, Must be a MIL Message.",
	},
	"E008": {
		Category: CategoryAPI,
		Message:  "Error writing to read only message.",
		Detail:   "The mailbox was published without read/write access.",
	},
	"E009": {
		Category: CategoryAPI,
		Message:  "Message data must be an ArrayBuffer.",
		Detail:   "Messages are written as a byte slice or a string.",
	},
	"E010": {
		Category: CategoryAPI,
		Message:  "Unsupported control type.",
	},
	"E011": {
		Category: CategoryAPI,
		Message:  "Unsupported inquire type.",
	},
	"E012": {
		Category: CategoryAPI,
		Message:  "Invalid control type value.",
	},
	"E013": {
		Category: CategoryAPI,
		Message:  "Invalid hook type for group.",
		Detail:   "Groups accept UpdateEnd, ComponentAdd and ComponentRemove hooks only.",
	},
	"E014": {
		Category: CategoryAPI,
		Message:  "Unsupported control value.",
	},
	"E015": {
		Category: CategoryTransport,
		Message:  "Not connected yet",
		Detail:   "The object has no open connection to the server.",
	},

	// ============================================
	// Protocol / Transport Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryTransport,
		Message:  "WebSocket connection failed",
		Detail:   "Could not establish a WebSocket connection to the exchange server.",
	},
	"E061": {
		Category: CategoryProtocol,
		Message:  "Server protocol version mismatch.",
		Detail:   "The server reported a protocol version different from the client's.",
	},
	"E062": {
		Category: CategoryProtocol,
		Message:  "Invalid protocol message",
		Detail:   "A text frame could not be decoded.",
	},
	"E063": {
		Category: CategoryTransport,
		Message:  "Connection closed",
		Detail:   "The server closed the connection.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Invalid milweb.json",
		Detail:   "The configuration file could not be read.",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Missing server URL",
		Detail:   "No exchange server URL is configured.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Unknown record sink",
		Detail:   "The record sink must be \"bolt\" or \"s3\".",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Buffer not published",
		Detail:   "The server does not publish a buffer with this name.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "No config file found",
		Detail:   "No milweb.json found in the current directory.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Timed out waiting for the server",
	},
	"E143": {
		Category: CategoryCLI,
		Message:  "Cannot open record sink",
	},
	"E144": {
		Category: CategoryCLI,
		Message:  "Mailbox is read-only",
		Detail:   "The server does not accept messages on this mailbox.",
	},
	"E145": {
		Category: CategoryCLI,
		Message:  "Not a display",
		Detail:   "Input can only be replayed on an interactive display.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

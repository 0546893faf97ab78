// Package errors provides coded, structured errors for milweb.
//
// Every error the client reports to an application has a code. Codes
// E001 through E015 form the client error table; the number is also the
// value delivered to error hooks as the sub-code:
//
//	err := errors.Client(8)
//	fmt.Println(err.Message) // Error writing to read only message.
//
// # Error Categories
//
//   - api: invalid use of the client API (wrong object kind, bad value)
//   - protocol: wire protocol violations (version mismatch, bad message)
//   - transport: WebSocket failures
//   - config: configuration file problems
//   - cli: command line problems
//
// # Usage
//
//	err := errors.New("E120").
//	    WithDetail("Failed to parse milweb.json").
//	    WithSuggestion("Check that milweb.json is valid JSON")
//
//	fmt.Print(err.Format())
package errors

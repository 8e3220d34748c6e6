// Package api provides the workspace HTTP API: page and table CRUD, recorded
// turns, context assembly and an MCP endpoint.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DisableMCP mounts an empty MCP server at /mcp.
	DisableMCP bool
}

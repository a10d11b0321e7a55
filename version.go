package framegraph

// Version is the framegraph release, reported by the CLI and the MCP server.
const Version = "0.4.0"

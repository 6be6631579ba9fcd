// Package mcp declares the wire-level types and method names of the Model
// Context Protocol subset this server speaks: the initialize handshake, the
// tool catalog (tools/list, tools/call) and the resource catalog
// (resources/list, resources/read).
package mcp

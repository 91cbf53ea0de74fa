// Command contextify-gateway runs the MCP policy gateway and host described
// by this repository: it compiles a locally-described endpoint catalog into
// policy-governed tools, aggregates remote MCP upstreams into a namespaced
// catalog, and serves both behind one JSON-RPC 2.0 surface.
package main

import "github.com/atakanatali/contextify-gateway/cmd/contextify-gateway/cmd"

func main() {
	cmd.Execute()
}

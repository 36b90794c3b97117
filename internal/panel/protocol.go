// Package panel implements the JSON-RPC sidecar serving the lineage tree
// views to an editor. Requests and notifications travel over stdin/stdout
// with Content-Length framing; the host delivers all events on this single
// loop, so resolution never races with mutation.
package panel

import (
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/treeview"
)

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON-RPC error codes used by the panel.
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
)

// Panel method names. The panel/ namespace carries everything beyond the
// standard lifecycle.
const (
	MethodInitialize            = "initialize"
	MethodInitialized           = "initialized"
	MethodShutdown              = "shutdown"
	MethodExit                  = "exit"
	MethodActiveDocumentChanged = "panel/activeDocumentChanged"
	MethodManifestChanged       = "panel/manifestChanged"
	MethodGetChildren           = "panel/getChildren"
	MethodGetTreeItem           = "panel/getTreeItem"
	MethodDidChangeTreeData     = "panel/didChangeTreeData"
)

// InitializeParams is sent as the first request from the host.
type InitializeParams struct {
	ProcessID int    `json:"processId"`
	RootURI   string `json:"rootUri"`
}

// InitializeResult is the response to the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// ServerCapabilities advertises the registered tree views, one per
// relation, each an independently renderable view on the host side.
type ServerCapabilities struct {
	TreeViews []string `json:"treeViews"`
}

// ActiveDocumentChangedParams carries the newly focused document. An empty
// URI means no document has focus.
type ActiveDocumentChangedParams struct {
	URI string `json:"uri"`
}

// ManifestChangedParams is the manifest-change batch from the host's
// manifest subsystem.
type ManifestChangedParams struct {
	manifest.ChangeEvent
}

// GetChildrenParams requests the children of an item in one view. A nil
// Item addresses the root level.
type GetChildrenParams struct {
	View string                `json:"view"`
	Item *treeview.DisplayItem `json:"item,omitempty"`
}

// GetChildrenResult carries the resolved children. Items is always present,
// empty for every absent-context path.
type GetChildrenResult struct {
	Items []treeview.DisplayItem `json:"items"`
}

// GetTreeItemParams requests the renderable form of one item.
type GetTreeItemParams struct {
	View string               `json:"view"`
	Item treeview.DisplayItem `json:"item"`
}

// DidChangeTreeDataParams notifies the host that a view's tree is stale.
type DidChangeTreeDataParams struct {
	View string `json:"view"`
}

// URIToPath converts a file:// URI to a file system path.
func URIToPath(uri string) string {
	const prefix = "file://"
	if strings.HasPrefix(uri, prefix) {
		return uri[len(prefix):]
	}
	return uri
}

// PathToURI converts a file system path to a file:// URI.
func PathToURI(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	return "file://" + path
}

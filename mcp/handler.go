package mcp

import (
	"context"

	"github.com/viant/jsonrpc/transport"
	protoclient "github.com/viant/mcp-protocol/client"
	"github.com/viant/mcp-protocol/logger"
	protoserver "github.com/viant/mcp-protocol/server"
)

// Handler serves one MCP connection. Tool handlers resolve the session on
// every call, so a re-authentication mid-connection applies to the next call.
type Handler struct {
	*protoserver.DefaultHandler
	service *Service
}

// NewHandler returns the per-connection handler factory the server expects.
func NewHandler(service *Service) protoserver.NewHandler {
	return func(_ context.Context, notifier transport.Notifier, logger logger.Logger, clientOperation protoclient.Operations) (protoserver.Handler, error) {
		base := protoserver.NewDefaultHandler(notifier, logger, clientOperation)
		h := &Handler{DefaultHandler: base, service: service}
		if err := registerTools(base, h); err != nil {
			return nil, err
		}
		return h, nil
	}
}

// Command novac-lsp exposes the Nova checker over LSP, communicating
// on stdin/stdout.
package main

import (
	"context"
	"io"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/nova-lang/novac/internal/lspserver"
)

type stdinStdout struct {
	io.Reader
	io.Writer
}

func (stdinStdout) Close() error { return nil }

func main() {
	log, err := newFileLogger("/tmp/novac-lsp.log")
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	rwc := stdinStdout{Reader: os.Stdin, Writer: os.Stdout}
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))

	srv := lspserver.New(log)
	srv.DiagnosticCallback = func(uri string, diagnostics []protocol.Diagnostic) {
		err := conn.Notify(context.Background(), "textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
			URI:         protocol.DocumentURI(uri),
			Diagnostics: diagnostics,
		})
		if err != nil {
			log.Warn("failed to publish diagnostics", zap.Error(err))
		}
	}

	handler := protocol.ServerHandler(srv, nil)
	ctx := context.Background()
	conn.Go(ctx, handler)

	<-conn.Done()
	if err := conn.Err(); err != nil {
		log.Error("connection closed with error", zap.Error(err))
		os.Exit(1)
	}
}

// newFileLogger writes structured logs to path rather than stdout,
// which the LSP protocol stream already owns.
func newFileLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

package lspserver

import (
	"context"
	"testing"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

func TestInitialize(t *testing.T) {
	srv := New(zap.NewNop())

	result, err := srv.Initialize(context.Background(), &protocol.InitializeParams{})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if result.ServerInfo.Name != "novac-lsp" {
		t.Errorf("ServerInfo.Name = %s, want novac-lsp", result.ServerInfo.Name)
	}
	if !result.Capabilities.TextDocumentSync.(protocol.TextDocumentSyncOptions).OpenClose {
		t.Error("expected OpenClose sync to be enabled")
	}
}

func TestDidOpenCleanSourceHasNoDiagnostics(t *testing.T) {
	srv := New(zap.NewNop())

	var got []protocol.Diagnostic
	srv.DiagnosticCallback = func(uri string, diags []protocol.Diagnostic) { got = diags }

	err := srv.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  "file:///ok.nova",
			Text: `fn main() -> s32 { return 0; }`,
		},
	})
	if err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no diagnostics for clean source, got %v", got)
	}
}

func TestDidOpenReportsFirstError(t *testing.T) {
	srv := New(zap.NewNop())

	var got []protocol.Diagnostic
	srv.DiagnosticCallback = func(uri string, diags []protocol.Diagnostic) { got = diags }

	err := srv.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  "file:///bad.nova",
			Text: `fn main() -> s32 { return true; }`,
		},
	})
	if err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 diagnostic, got %d", len(got))
	}
	if got[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("expected an error-severity diagnostic, got %v", got[0].Severity)
	}
}

func TestDidChangeRepublishesDiagnostics(t *testing.T) {
	srv := New(zap.NewNop())

	var got []protocol.Diagnostic
	srv.DiagnosticCallback = func(uri string, diags []protocol.Diagnostic) { got = diags }

	uri := protocol.DocumentURI("file:///live.nova")
	if err := srv.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: `fn main() -> s32 { return true; }`},
	}); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected a diagnostic after DidOpen, got %d", len(got))
	}

	err := srv.DidChange(context.Background(), &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{
			{Text: `fn main() -> s32 { return 0; }`},
		},
	})
	if err != nil {
		t.Fatalf("DidChange failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected diagnostics to clear once the fix lands, got %v", got)
	}
}

func TestDidCloseForgetsDocument(t *testing.T) {
	srv := New(zap.NewNop())
	uri := protocol.DocumentURI("file:///gone.nova")

	if err := srv.DidOpen(context.Background(), &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: uri, Text: `fn main() -> s32 { return 0; }`},
	}); err != nil {
		t.Fatalf("DidOpen failed: %v", err)
	}
	if err := srv.DidClose(context.Background(), &protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: uri},
	}); err != nil {
		t.Fatalf("DidClose failed: %v", err)
	}
	if _, ok := srv.documents[string(uri)]; ok {
		t.Error("expected DidClose to remove the document")
	}
}

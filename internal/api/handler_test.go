package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/api/health", HandleHealth)
	app.Post("/api/convert", HandleConvert)
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}

	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestConvertEndpointRequiresFile(t *testing.T) {
	app := setupTestApp()

	req := httptest.NewRequest("POST", "/api/convert", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Should fail because no file in the body
	if resp.StatusCode == fiber.StatusOK {
		t.Error("expected non-200 for missing file")
	}
}

// postStatement uploads a statement as multipart form data and
// decodes the JSON response.
func postStatement(t *testing.T, app *fiber.App, filename string, content []byte, fields map[string]string) *ConvertResponse {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := app.Test(req, 30000)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body, _ := io.ReadAll(resp.Body)
	var result ConvertResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(body), err)
	}
	return &result
}

const sicoobUpload = `<OFX>
<STMTTRN>
<TRNTYPE>DEBIT</TRNTYPE>
<DTPOSTED>20250115120000</DTPOSTED>
<TRNAMT>-45.90</TRNAMT>
<MEMO>LOJA ABC 01/03 SAO PAULO</MEMO>
</STMTTRN>
</OFX>`

func TestConvertEndpoint_SicoobOFX(t *testing.T) {
	app := setupTestApp()

	result := postStatement(t, app, "extrato.ofx", []byte(sicoobUpload), map[string]string{"bank": "sicoob"})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Count != 1 {
		t.Fatalf("count: got %d, want 1", result.Count)
	}
	if result.Results[0].Record.Description != "LOJA ABC" {
		t.Errorf("description: got %q", result.Results[0].Record.Description)
	}
	if result.Total != "45.90" {
		t.Errorf("total: got %q, want 45.90", result.Total)
	}
	if result.CSV == "" {
		t.Error("expected inline CSV rendering")
	}
}

func TestConvertEndpoint_FormatOverrideStub(t *testing.T) {
	app := setupTestApp()

	// Caixa spreadsheet statements have no adapter yet; the override
	// must surface the not-implemented notice instead of failing.
	result := postStatement(t, app, "planilha.xlsx", []byte("conteudo"),
		map[string]string{"bank": "caixa", "format": "xlsx"})
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.Notice == "" {
		t.Error("expected a not-implemented notice")
	}
	if result.Count != 0 {
		t.Errorf("count: got %d, want 0", result.Count)
	}
}

func TestConvertEndpoint_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{"unknown bank", "extrato.ofx", map[string]string{"bank": "bradesco"}},
		{"missing bank", "extrato.ofx", map[string]string{}},
		{"wrong extension for ofx bank", "fatura.pdf", map[string]string{"bank": "sicoob"}},
		{"wrong extension for pdf bank", "extrato.ofx", map[string]string{"bank": "itau"}},
		{"unknown format override", "extrato.ofx", map[string]string{"bank": "sicoob", "format": "doc"}},
	}

	app := setupTestApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := postStatement(t, app, tt.filename, []byte(sicoobUpload), tt.fields)
			if result.Success {
				t.Error("expected failure response")
			}
			if result.Error == "" {
				t.Error("expected an error message")
			}
		})
	}
}

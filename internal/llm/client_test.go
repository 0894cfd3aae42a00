package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Chat(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		wantErr      bool
		want         string
	}{
		{
			name:         "Success",
			status:       http.StatusOK,
			responseBody: `{"message":{"role":"assistant","content":"{\"ok\":true}"}}`,
			wantErr:      false,
			want:         `{"ok":true}`,
		},
		{
			name:         "Server error",
			status:       http.StatusInternalServerError,
			responseBody: `{"error":"bad"}`,
			wantErr:      true,
		},
		{
			name:         "Model error in body",
			status:       http.StatusOK,
			responseBody: `{"message":{"role":"assistant","content":""},"error":"model not found"}`,
			wantErr:      true,
		},
		{
			name:         "Empty content",
			status:       http.StatusOK,
			responseBody: `{"message":{"role":"assistant","content":"  "}}`,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var gotRequest chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if err := json.NewDecoder(r.Body).Decode(&gotRequest); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)
			got, err := client.Chat(context.Background(), "llama3.1:8b", "be a dj", "plan a set")

			if (err != nil) != tt.wantErr {
				t.Fatalf("expected err=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Fatalf("expected content %q, got %q", tt.want, got)
			}
			if gotRequest.Model != "llama3.1:8b" {
				t.Fatalf("expected model llama3.1:8b, got %q", gotRequest.Model)
			}
			if gotRequest.Format != "json" {
				t.Fatalf("expected format json, got %q", gotRequest.Format)
			}
			if len(gotRequest.Messages) != 2 || gotRequest.Messages[0].Role != "system" {
				t.Fatalf("message layout mismatch: %+v", gotRequest.Messages)
			}
		})
	}
}

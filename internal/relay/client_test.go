package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSubmitSendsExpectedPayload(t *testing.T) {
	var captured map[string]string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":"true","message":"The form was submitted successfully."}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Email: "orders@lechic.example"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = client.Submit(context.Background(), Submission{
		Subject: "New order from Aline",
		Name:    "Aline",
		Phone:   "+250 788 123 456",
		Notes:   "No sugar",
		Message: "*Order*",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if path != "/ajax/orders@lechic.example" {
		t.Fatalf("path = %q", path)
	}
	want := map[string]string{
		"_subject": "New order from Aline",
		"name":     "Aline",
		"phone":    "+250 788 123 456",
		"notes":    "No sugar",
		"message":  "*Order*",
		"_captcha": "false",
	}
	for k, v := range want {
		if captured[k] != v {
			t.Fatalf("field %q = %q, want %q", k, captured[k], v)
		}
	}
}

func TestClientSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"blocked"}`))
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Email: "orders@lechic.example"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = client.Submit(context.Background(), Submission{Name: "Aline"})
	if !errors.Is(err, ErrRelayRejected) {
		t.Fatalf("err = %v, want ErrRelayRejected", err)
	}
}

func TestClientSubmitClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Email: "orders@lechic.example"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = client.Submit(context.Background(), Submission{Name: "Aline"})
	if !errors.Is(err, ErrRelayRejected) {
		t.Fatalf("err = %v, want ErrRelayRejected", err)
	}
}

func TestClientSubmitServerErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Email: "orders@lechic.example"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = client.Submit(context.Background(), Submission{Name: "Aline"})
	if !errors.Is(err, ErrRelayUnavailable) {
		t.Fatalf("err = %v, want ErrRelayUnavailable", err)
	}
}

func TestClientSubmitUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client, err := NewClient(ClientConfig{BaseURL: srv.URL, Email: "orders@lechic.example"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	err = client.Submit(context.Background(), Submission{Name: "Aline"})
	if !errors.Is(err, ErrRelayUnavailable) {
		t.Fatalf("err = %v, want ErrRelayUnavailable", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Email: "orders@lechic.example"}); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "https://relay.example"}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

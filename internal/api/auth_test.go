package api

import (
	"net/http"
	"testing"
)

func TestAuth_MissingKeyRejected(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{}))

	resp, err := http.Post(srv.URL+"/chat/message", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuth_WrongKeyRejected(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{}))

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/interactions", nil)
	req.Header.Set("X-API-Key", "wrong-key")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuth_QueryParamAccepted(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{}))

	resp, err := http.Get(srv.URL + "/interactions?api_key=" + testAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuth_UsageCounted(t *testing.T) {
	deps := testDeps(t, &fakeBackend{}, &fakeOllama{})
	srv := testServer(t, deps)

	for range 2 {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+"/interactions", "")
		resp.Body.Close()
	}

	// sha256("test-key")
	const keyHash = "62af8704764faf8ea82fc61ce9c4c3908b6cb97d463a634e9e587d7c885db0ef"
	n, err := deps.Store.APIUsageCount(keyHash, "/interactions")
	if err != nil {
		t.Fatalf("APIUsageCount: %v", err)
	}
	if n != 2 {
		t.Errorf("usage count = %d, want 2", n)
	}
}

func TestHealthIsPublic(t *testing.T) {
	srv := testServer(t, testDeps(t, &fakeBackend{}, &fakeOllama{running: true}))

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 without a key", resp.StatusCode)
	}
}

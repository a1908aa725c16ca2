package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

// TestSignupFlow exercises the public surface against a running instance.
// OTP 只会投递到邮箱，因此验证成功路径无法在这里覆盖，由单元测试覆盖。
func TestSignupFlow(t *testing.T) {
	baseURL := os.Getenv("INTEGRATION_BASE_URL")
	if baseURL == "" {
		t.Skip("INTEGRATION_BASE_URL not set; skipping integration test")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	email := fmt.Sprintf("it_%d@example.com", time.Now().UnixNano())

	// 1. Health
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health failed: status=%d", resp.StatusCode)
	}

	// 2. Signup
	signupReq := map[string]string{
		"name":     "Integration Tester",
		"bio":      "",
		"email":    email,
		"password": "Passw0rd!",
	}
	if err := postJSON(client, baseURL+"/auth/signup", signupReq, http.StatusOK); err != nil {
		t.Fatalf("signup failed: %v", err)
	}

	// 3. Duplicate signup while pending -> Conflict
	if err := postJSON(client, baseURL+"/auth/signup", signupReq, http.StatusConflict); err != nil {
		t.Fatalf("duplicate signup: %v", err)
	}

	// 4. Wrong OTP -> 400
	verifyReq := map[string]string{"email": email, "otp": "000000"}
	if err := postJSON(client, baseURL+"/auth/verify-email", verifyReq, http.StatusBadRequest); err != nil {
		t.Fatalf("verify with wrong otp: %v", err)
	}

	// 5. Login before verification -> 401 (user not committed yet)
	loginReq := map[string]string{"email": email, "password": "Passw0rd!"}
	if err := postJSON(client, baseURL+"/auth/login", loginReq, http.StatusUnauthorized); err != nil {
		t.Fatalf("login before verify: %v", err)
	}

	// 6. Profile without token -> 401
	resp, err = client.Get(baseURL + "/auth/profile")
	if err != nil {
		t.Fatalf("profile request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("profile without token: status=%d", resp.StatusCode)
	}

	// 7. Feed listing is public
	resp, err = client.Get(baseURL + "/posts/")
	if err != nil {
		t.Fatalf("list posts failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list posts: status=%d", resp.StatusCode)
	}
}

func postJSON(client *http.Client, url string, body interface{}, expectedStatus int) error {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != expectedStatus {
		return fmt.Errorf("unexpected status %d (want %d)", resp.StatusCode, expectedStatus)
	}
	return nil
}

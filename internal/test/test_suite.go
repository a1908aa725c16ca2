// Command-line smoke test that exercises the public auth surface and, given a
// bearer token, hammers the like/unlike endpoints concurrently to check the
// idempotent set semantics. Produces CSV + HTML reports.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"
)

var baseURL = "http://127.0.0.1:8080"

var client = &http.Client{Timeout: 10 * time.Second}

// likeResult 汇总一次点赞/取消点赞调用，方便折叠到报告内
type likeResult struct {
	Worker    int
	Action    string // "like" or "unlike"
	Code      int
	ErrMsg    string
	Timestamp time.Time
}

// ======================= 基本 HTTP helper =======================

// doPostJSON is a thin helper that serializes a JSON body and sends a POST request.
func doPostJSON(url string, body any, headers map[string]string) (int, []byte, error) {
	var buf []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = b
	}
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(buf))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, nil
}

func doAuthed(method, url, token string) (int, []byte, error) {
	req, _ := http.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, nil
}

// ======================= 基础功能连通性测试 =======================

// endpointSmokeTests exercises the unauthenticated surface with positive and negative cases.
func endpointSmokeTests() error {
	email := fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano()%1000000000)
	password := "SmokePwd123!"

	// Health endpoint.
	resp, err := client.Get(baseURL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health failed: err=%v", err)
	}
	resp.Body.Close()

	// Fresh signup should succeed and return an expiry.
	body := map[string]string{"name": "Smoke", "bio": "", "email": email, "password": password}
	if status, data, err := doPostJSON(baseURL+"/auth/signup", body, nil); err != nil || status != http.StatusOK {
		return fmt.Errorf("signup (new) failed: status=%d err=%v body=%s", status, err, string(data))
	}

	// Duplicate signup while pending should be rejected (409).
	if status, _, err := doPostJSON(baseURL+"/auth/signup", body, nil); err != nil || status != http.StatusConflict {
		return fmt.Errorf("signup (duplicate) expected 409, got %d err=%v", status, err)
	}

	// Wrong OTP should be rejected (400).
	verify := map[string]string{"email": email, "otp": "000000"}
	if status, _, err := doPostJSON(baseURL+"/auth/verify-email", verify, nil); err != nil || status != http.StatusBadRequest {
		return fmt.Errorf("verify (wrong otp) expected 400, got %d err=%v", status, err)
	}

	// Login before verification must be unauthorized.
	login := map[string]string{"email": email, "password": password}
	if status, _, err := doPostJSON(baseURL+"/auth/login", login, nil); err != nil || status != http.StatusUnauthorized {
		return fmt.Errorf("login (unverified) expected 401, got %d err=%v", status, err)
	}

	log.Println("endpoint smoke tests passed: health/signup/verify/login basic scenarios verified")
	return nil
}

// ======================= 并发点赞测试与报告生成 =======================

// concurrentLikeTest 用同一 token 并发 like/unlike 同一帖子，校验幂等集合语义
func concurrentLikeTest(token string, workers int, outCSV, outHTML string) error {
	// 建一条测试帖子
	req, _ := http.NewRequest("POST", baseURL+"/posts/", bytes.NewBufferString("content=smoke-post"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create post status %d body=%s", resp.StatusCode, string(data))
	}
	var post struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &post); err != nil {
		return fmt.Errorf("decode post: %w", err)
	}

	// 并发 like + unlike
	var wg sync.WaitGroup
	resCh := make(chan likeResult, workers*3)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for _, action := range []string{"like", "unlike", "like"} {
				status, _, err := doAuthed("POST", fmt.Sprintf("%s/posts/%s/%s", baseURL, post.ID, action), token)
				res := likeResult{Worker: worker, Action: action, Code: status, Timestamp: time.Now()}
				if err != nil {
					res.ErrMsg = err.Error()
				}
				resCh <- res
			}
		}(i)
	}
	wg.Wait()
	close(resCh)

	// 结束状态必须是「已点赞一次」：likes 集合里只有这个用户一条
	status, data, err := doAuthed("GET", baseURL+"/posts/", token)
	if err != nil || status != http.StatusOK {
		return fmt.Errorf("list posts after hammering: status=%d err=%v", status, err)
	}
	var posts []struct {
		ID    string   `json:"id"`
		Likes []string `json:"likes"`
	}
	if err := json.Unmarshal(data, &posts); err != nil {
		return fmt.Errorf("decode posts: %w", err)
	}
	for _, p := range posts {
		if p.ID == post.ID && len(p.Likes) > 1 {
			return fmt.Errorf("likes not idempotent: %d entries", len(p.Likes))
		}
	}

	// 写 CSV 报告
	csvFile, err := os.Create(outCSV)
	if err != nil {
		return err
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()
	_ = csvWriter.Write([]string{"Worker", "Action", "Code", "ErrMsg", "Timestamp"})

	var allResults []likeResult
	for r := range resCh {
		_ = csvWriter.Write([]string{fmt.Sprintf("%d", r.Worker), r.Action, fmt.Sprintf("%d", r.Code), r.ErrMsg, r.Timestamp.Format(time.RFC3339)})
		allResults = append(allResults, r)
	}
	csvWriter.Flush()

	// 生成简单 HTML 报告
	if err := writeHTMLReport(outHTML, allResults); err != nil {
		log.Printf("write HTML report error: %v", err)
	}

	// 清理测试帖子
	if status, _, err := doAuthed("DELETE", baseURL+"/posts/"+post.ID, token); err != nil || status != http.StatusOK {
		log.Printf("cleanup post failed: status=%d err=%v", status, err)
	}
	return nil
}

// writeHTMLReport renders a basic table so failures are easy to eyeball.
func writeHTMLReport(path string, results []likeResult) error {
	const tpl = `
<!doctype html>
<html>
<head><meta charset="utf-8"><title>Like Test Report</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align:left }
th { background: #f4f4f4; }
</style>
</head>
<body>
<h2>Like Test Report ({{ .GeneratedAt }})</h2>
<table>
<thead><tr><th>Worker</th><th>Action</th><th>Code</th><th>Error</th><th>Timestamp</th></tr></thead>
<tbody>
{{ range .Rows }}
<tr>
<td>{{ .Worker }}</td>
<td>{{ .Action }}</td>
<td>{{ .Code }}</td>
<td>{{ .ErrMsg }}</td>
<td>{{ .Timestamp }}</td>
</tr>
{{ end }}
</tbody>
</table>
</body>
</html>`

	data := struct {
		GeneratedAt string
		Rows        []likeResult
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Rows:        results,
	}

	t, err := template.New("report").Parse(tpl)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Execute(f, data)
}

// ======================= main =======================

func main() {
	if v := os.Getenv("SMOKE_BASE_URL"); v != "" {
		baseURL = v
	}

	if err := endpointSmokeTests(); err != nil {
		log.Fatalf("endpoint smoke tests failed: %v", err)
	}

	// 鉴权部分需要一个已验证账号的 token（OTP 走真实邮箱，这里无法自动完成）
	token := os.Getenv("SMOKE_TOKEN")
	if token == "" {
		log.Println("SMOKE_TOKEN not set; skipping authenticated feed tests")
		return
	}

	start := time.Now()
	if err := concurrentLikeTest(token, 5, "like_report.csv", "like_report.html"); err != nil {
		log.Fatalf("concurrent like test failed: %v", err)
	}
	log.Printf("concurrent like test finished in %s\n", time.Since(start))
	fmt.Println("All smoke tests completed successfully!")
}

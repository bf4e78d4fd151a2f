package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	baseURL  string
	stopApp  func()
	upstream *httptest.Server
)

var _ = BeforeSuite(func() {
	if u := os.Getenv("INTEGRATION_BASE_URL"); u != "" {
		baseURL = strings.TrimSuffix(u, "/")
		return
	}
	upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"userId":1,"id":1,"title":"integration todo","completed":false}`)
	}))
	var err error
	baseURL, stopApp, err = StartApp(upstream.URL)
	Expect(err).NotTo(HaveOccurred())
	Expect(baseURL).NotTo(BeEmpty())
})

var _ = AfterSuite(func() {
	if stopApp != nil {
		stopApp()
	}
	if upstream != nil {
		upstream.Close()
	}
})

func get(path string, header map[string]string) *http.Response {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	Expect(err).NotTo(HaveOccurred())
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(resp.Body.Close)
	return resp
}

func readBody(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}

var _ = Describe("Integration", func() {
	Describe("Unprotected endpoints", func() {
		It("GET /health returns 200 and status ok", func() {
			resp := get("/health", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var body map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["status"]).To(Equal("ok"))
			Expect(body).To(HaveKey("version"))
		})

		It("GET /health/ready returns 200 with the memory store", func() {
			Expect(get("/health/ready", nil).StatusCode).To(Equal(http.StatusOK))
		})

		It("GET /metrics returns Prometheus output", func() {
			resp := get("/metrics", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(ContainSubstring("macrofx_http_requests_total"))
		})

		It("GET /openapi.yaml returns YAML", func() {
			resp := get("/openapi.yaml", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/x-yaml"))
			Expect(readBody(resp)).To(ContainSubstring("openapi"))
		})

		It("GET /.well-known/hal returns a HAL document", func() {
			resp := get("/.well-known/hal", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/hal+json"))
		})

		It("unknown paths return 404", func() {
			Expect(get("/nope", nil).StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /ext", func() {
		It("rejects missing and unknown keys", func() {
			Expect(get("/ext", nil).StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(get("/ext", map[string]string{"X-Api-Key": "sk-wrong-key"}).StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("fetches through the pipeline then rate limits", func() {
			key := map[string]string{"X-Api-Key": IntegrationAPIKey}
			resp := get("/ext?id=1", key)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(readBody(resp)).To(Equal("<code>integration todo</code>"))

			Eventually(func() int {
				return get("/ext?id=1", key).StatusCode
			}).Should(Equal(http.StatusTooManyRequests))
		})
	})

	Describe("GET /admin", func() {
		It("returns 403 for a key without the admin role", func() {
			Expect(get("/admin", map[string]string{"X-Api-Key": IntegrationAPIKey}).StatusCode).To(Equal(http.StatusForbidden))
		})
	})
})

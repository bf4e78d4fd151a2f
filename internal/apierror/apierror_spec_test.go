package apierror

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Error", func() {
	It("implements error interface with message", func() {
		e := InvalidRequest("bad input")
		Expect(e.Error()).To(Equal("bad input"))
	})
})

var _ = Describe("Write", func() {
	It("writes JSON with status and envelope", func() {
		e := InvalidRequest("invalid JSON")
		rec := httptest.NewRecorder()
		Write(rec, e)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		var body struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		Expect(json.NewDecoder(rec.Body).Decode(&body)).NotTo(HaveOccurred())
		Expect(body.Error.Message).To(Equal("invalid JSON"))
		Expect(body.Error.Type).To(Equal(TypeInvalidRequest))
	})

	It("omits empty code and param", func() {
		rec := httptest.NewRecorder()
		Write(rec, NotFound())
		Expect(rec.Body.String()).NotTo(ContainSubstring(`"code"`))
		Expect(rec.Body.String()).NotTo(ContainSubstring(`"param"`))
	})
})

var _ = Describe("InvalidParam", func() {
	It("returns 400 with param set", func() {
		e := InvalidParam("title", "title is required")
		Expect(e.Status).To(Equal(http.StatusBadRequest))
		Expect(e.Param).To(Equal("title"))
	})
})

var _ = Describe("Constructors", func() {
	DescribeTable("map each failure kind to its status",
		func(e *Error, status int, typ string) {
			Expect(e.Status).To(Equal(status))
			Expect(e.Type).To(Equal(typ))
			Expect(e.Message).NotTo(BeEmpty())
		},
		Entry("unauthorized", Unauthorized(), http.StatusUnauthorized, TypeAuthentication),
		Entry("forbidden", Forbidden(), http.StatusForbidden, TypePermission),
		Entry("not found", NotFound(), http.StatusNotFound, TypeNotFound),
		Entry("duplicate", Duplicate(), http.StatusConflict, TypeConflict),
		Entry("rate limited", RateLimited(), http.StatusTooManyRequests, TypeRateLimit),
		Entry("upstream failed", UpstreamFailed(), http.StatusBadGateway, TypeUpstream),
		Entry("upstream timeout", UpstreamTimeout(), http.StatusGatewayTimeout, TypeTimeout),
		Entry("internal", Internal("boom"), http.StatusInternalServerError, TypeServer),
	)
})

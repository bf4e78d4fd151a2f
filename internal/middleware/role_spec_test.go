package middleware

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("UserFromKeyStore", func() {
	It("takes roles from the key store, not the request", func() {
		ks := newKeyStore("sk-admin admin", "sk-reader")
		h := Chain(okHandler,
			Auth(KeyStoreVerifier(ks)),
			WithUser(UserFromKeyStore(ks)),
			RequireRole("admin"))

		Expect(do(h, http.MethodGet, "/admin", map[string]string{HeaderAPIKey: "sk-admin"}).Code).
			To(Equal(http.StatusOK))
		Expect(do(h, http.MethodGet, "/admin", map[string]string{HeaderAPIKey: "sk-reader", HeaderRoles: "admin"}).Code).
			To(Equal(http.StatusForbidden))
	})
})

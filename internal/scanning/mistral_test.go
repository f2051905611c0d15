package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Mistral", func() {
	var (
		server  *ghttp.Server
		scanner *Mistral
		doc     *Document
		err     error
		sent    mistralOCRRequest
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		scanner, err = NewMistral(server.URL(), "test-key", "")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		doc, err = scanner.ScanDocument(context.Background(), []byte("img"), MimePNG)
	})

	recordRequest := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &sent)).To(Succeed())
	}

	When("the API returns pages", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/ocr"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.VerifyContentType("application/json"),
				recordRequest,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"model": "mistral-ocr-2505",
					"pages": []map[string]any{
						{"index": 0, "markdown": "| Bread | 1.200 |"},
					},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the pages", func() {
			Expect(doc.Model).To(Equal("mistral-ocr-2505"))
			Expect(doc.Pages).To(Equal([]Page{{Index: 0, Markdown: "| Bread | 1.200 |"}}))
		})

		It("should send the image as a data URL", func() {
			Expect(sent.Model).To(Equal("mistral-ocr-latest"))
			Expect(sent.Document.Type).To(Equal("image_url"))
			Expect(sent.Document.ImageURL).To(Equal("data:image/png;base64,aW1n"))
		})
	})

	When("the API returns no pages", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"model": "mistral-ocr-2505",
				"pages": []any{},
			}))
		})

		It("returns ErrNoPages", func() {
			Expect(err).To(MatchError(ErrNoPages))
			Expect(doc).To(BeNil())
		})
	})

	When("the API rejects the request", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusUnauthorized, map[string]any{
				"message": "Unauthorized",
			}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("status 401")))
			Expect(err).To(MatchError(ContainSubstring("Unauthorized")))
		})
	})

	When("the API returns invalid JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusOK, "not json"))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("decoding response")))
		})
	})
})

var _ = Describe("NewMistral", func() {
	It("requires an api key", func() {
		_, err := NewMistral("", "", "")
		Expect(err).To(MatchError("mistral api key is required"))
	})
})

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

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		scanner *Ollama
		doc     *Document
		err     error
		sent    ollamaChatRequest
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		scanner, err = NewOllama(server.URL(), "llava:1.6")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		doc, err = scanner.ScanDocument(context.Background(), []byte("img"), MimeJPEG)
	})

	recordRequest := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &sent)).To(Succeed())
	}

	When("the model answers with fenced markdown", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				recordRequest,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"model":   "llava:1.6",
					"message": map[string]any{"role": "assistant", "content": "```markdown\nTOTAL 5.000 TND\n```"},
					"done":    true,
				}),
			))
		})

		It("should return a single page without the fence", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Model).To(Equal("llava:1.6"))
			Expect(doc.Pages).To(Equal([]Page{{Index: 0, Markdown: "TOTAL 5.000 TND"}}))
		})

		It("should attach the image to the user message", func() {
			Expect(sent.Stream).To(BeFalse())
			Expect(sent.Messages).To(HaveLen(2))
			Expect(sent.Messages[1].Images).To(Equal([]string{"aW1n"}))
			Expect(sent.Messages[1].Content).To(Equal(transcriptionPrompt))
		})
	})

	When("the model answers with nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"message": map[string]any{"role": "assistant", "content": "  "},
				"done":    true,
			}))
		})

		It("returns ErrNoPages", func() {
			Expect(err).To(MatchError(ErrNoPages))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not found"))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("ollama API error (status 500): model not found")))
		})
	})
})

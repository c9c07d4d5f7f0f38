package scanning

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Gateway", func() {
	var (
		server  *ghttp.Server
		gateway *Gateway
		prompt  Prompt
		reply   string
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		prompt = Prompt{System: "sys", User: "describe"}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		var newErr error
		gateway, newErr = NewGateway(server.URL()+"/v1", "secret", "", 5*time.Second)
		Expect(newErr).NotTo(HaveOccurred())
		reply, err = gateway.Complete(context.Background(), prompt)
	})

	When("the call succeeds", func() {
		var received chatRequest

		BeforeEach(func() {
			prompt.Image = []byte{0x89, 'P', 'N', 'G'}
			prompt.ImageMIME = "image/png"
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer secret"),
				func(w http.ResponseWriter, r *http.Request) {
					Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"role": "assistant", "content": `{"items":[]}`}},
					},
				}),
			))
		})

		It("should return the first choice", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal(`{"items":[]}`))
		})

		It("should use the default model", func() {
			Expect(received.Model).To(Equal("google/gemini-2.5-flash"))
		})

		It("should send the system and user messages", func() {
			Expect(received.Messages).To(HaveLen(2))
			Expect(received.Messages[0].Role).To(Equal("system"))
			Expect(received.Messages[0].Content).To(Equal("sys"))

			parts, ok := received.Messages[1].Content.([]any)
			Expect(ok).To(BeTrue())
			Expect(parts).To(HaveLen(2))
			image := parts[1].(map[string]any)["image_url"].(map[string]any)
			Expect(strings.HasPrefix(image["url"].(string), "data:image/png;base64,")).To(BeTrue())
		})
	})

	When("there are no choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"choices": []any{}}))
		})

		It("should return an empty reply", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(BeEmpty())
		})
	})

	When("the gateway rate limits", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, "slow down"))
		})

		It("should return ErrRateLimited", func() {
			Expect(err).To(MatchError(ErrRateLimited))
		})
	})

	When("the gateway reports exhausted credits", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusPaymentRequired, "pay up"))
		})

		It("should return ErrCreditsExhausted", func() {
			Expect(err).To(MatchError(ErrCreditsExhausted))
		})
	})

	When("the gateway fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
		})

		It("should return a status error", func() {
			var statusErr *StatusError
			Expect(err).To(BeAssignableToTypeOf(statusErr))
			Expect(err.Error()).To(ContainSubstring("status 500"))
			Expect(IsQuotaError(err)).To(BeFalse())
		})
	})
})

var _ = Describe("Ollama", func() {
	var server *ghttp.Server

	BeforeEach(func() {
		server = ghttp.NewServer()
	})

	AfterEach(func() {
		server.Close()
	})

	It("should attach images to the user message", func() {
		var received ollamaChatRequest
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
			func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			},
			ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"message": map[string]any{"role": "assistant", "content": "[]"},
				"done":    true,
			}),
		))

		ollama, err := NewOllama(server.URL(), "llava")
		Expect(err).NotTo(HaveOccurred())

		reply, err := ollama.Complete(context.Background(), Prompt{System: "sys", User: "look", Image: []byte("img")})
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("[]"))
		Expect(received.Stream).To(BeFalse())
		Expect(received.Messages).To(HaveLen(2))
		Expect(received.Messages[1].Images).To(HaveLen(1))
	})

	It("should map a 429 to ErrRateLimited", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, "busy"))

		ollama, err := NewOllama(server.URL(), "")
		Expect(err).NotTo(HaveOccurred())

		_, err = ollama.Complete(context.Background(), Prompt{User: "look"})
		Expect(err).To(MatchError(ErrRateLimited))
	})
})

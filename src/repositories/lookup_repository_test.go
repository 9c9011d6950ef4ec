package repositories_test

import (
	"context"
	"log/slog"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"chatstatus/src/domain"
	"chatstatus/src/domain/entities"
	"chatstatus/src/infra/crmapi"
	"chatstatus/src/repositories"
	"chatstatus/src/test_artefacts/comparer"
	"chatstatus/src/test_artefacts/stubs"
)

var _ = Describe("LookupRepository", func() {
	var (
		server           *ghttp.Server
		lookupRepository *repositories.LookupRepository
		ctx              context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		client, err := crmapi.NewClient(logger, crmapi.Config{BaseURL: server.URL(), Token: "service-token"})
		Expect(err).NotTo(HaveOccurred())

		lookupRepository = repositories.NewLookupRepository(logger, client)
	})

	AfterEach(func() {
		server.Close()
	})

	Context("response shapes", func() {
		body := `{"id":"c1","numeroTelefone":"123"}`

		DescribeTable("normalizes every shape to the same list",
			func(response string) {
				// ARRANGE
				server.AppendHandlers(
					ghttp.CombineHandlers(
						ghttp.VerifyRequest(http.MethodGet, "/api/contatos", "telefone=123"),
						ghttp.RespondWith(http.StatusOK, `[`+body+`]`),
					),
					ghttp.CombineHandlers(
						ghttp.VerifyRequest(http.MethodGet, "/api/contatos", "telefone=123"),
						ghttp.RespondWith(http.StatusOK, response),
					),
				)

				// ACT
				reference, err := lookupRepository.Lookup(ctx, entities.EntityContact, "123")
				Expect(err).NotTo(HaveOccurred())
				result, err := lookupRepository.Lookup(ctx, entities.EntityContact, "123")

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).To(HaveLen(1))
				Expect(result).To(BeComparableTo(reference, comparer.Records()))
				Expect(result[0].ID).To(Equal("c1"))
				Expect(result[0].NumeroTelefone).To(Equal("123"))
			},
			Entry("bare array", `[`+body+`]`),
			Entry("data wrapped array", `{"data":[`+body+`]}`),
			Entry("single object", body),
			Entry("data wrapped object", `{"data":`+body+`}`),
		)

		DescribeTable("treats empty payloads as a legitimately empty list",
			func(response string) {
				// ARRANGE
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, response))

				// ACT
				result, err := lookupRepository.Lookup(ctx, entities.EntityTicket, "uuid-1")

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(result).NotTo(BeNil())
				Expect(result).To(BeEmpty())
			},
			Entry("empty array", `[]`),
			Entry("empty data", `{"data":[]}`),
			Entry("null data", `{"data":null}`),
			Entry("null body", `null`),
		)

		DescribeTable("reports unexpected shapes as malformed",
			func(response string) {
				// ARRANGE
				server.AppendHandlers(ghttp.RespondWith(http.StatusOK, response))

				// ACT
				result, err := lookupRepository.Lookup(ctx, entities.EntityTicket, "uuid-1")

				// ASSERT
				Expect(result).To(BeNil())
				Expect(err).To(MatchError(domain.ErrMalformedShape))
				Expect(domain.KindOf(err)).To(Equal(domain.KindMalformedShape))
			},
			Entry("object without id or data", `{"message":"ok"}`),
			Entry("plain string", `"ok"`),
			Entry("html error page", `<html></html>`),
			Entry("array of numbers", `[1,2]`),
			Entry("data as string", `{"data":"nope"}`),
		)
	})

	When("looking up a contact by phone", func() {
		It("keeps only strict phone matches", func() {
			// ARRANGE
			exact := stubs.NewContactStub().WithNumeroTelefone("5511999999999")
			partial := stubs.NewContactStub().WithNumeroTelefone("55119999999990")
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/api/contatos", "telefone=5511999999999"),
					ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
						"data": stubs.Payloads(partial, exact),
					}),
				),
			)

			// ACT
			result, err := lookupRepository.Lookup(ctx, entities.EntityContact, "5511999999999")

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0]).To(BeComparableTo(exact.Get(), comparer.RecordsIgnoringRaw()))
		})
	})

	When("looking up records keyed by contact", func() {
		It("queries by contato_id and accepts numeric ids and snake case", func() {
			// ARRANGE
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/api/orcamentos", "contato_id=uuid-1"),
					ghttp.VerifyHeaderKV("Authorization", "Bearer service-token"),
					ghttp.RespondWith(http.StatusOK, `[{"id":42,"contato_id":"uuid-1","status":"aprovado"}]`),
				),
			)

			// ACT
			result, err := lookupRepository.Lookup(ctx, entities.EntityBudget, "uuid-1")

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].ID).To(Equal("42"))
			Expect(result[0].ContatoID).To(Equal("uuid-1"))
			Expect(result[0].Status).To(Equal("aprovado"))
		})

		It("forwards the caller token instead of the service token", func() {
			// ARRANGE
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyHeaderKV("Authorization", "Bearer user-token"),
					ghttp.RespondWith(http.StatusOK, `[]`),
				),
			)

			// ACT
			_, err := lookupRepository.Lookup(crmapi.WithBearerToken(ctx, "user-token"), entities.EntityQueue, "uuid-1")

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Context("failures", func() {
		It("returns a non-success error for non 2xx responses", func() {
			// ARRANGE
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized, `{"error":"unauthorized"}`))

			// ACT
			result, err := lookupRepository.Lookup(ctx, entities.EntityContact, "123")

			// ASSERT
			Expect(result).To(BeNil())
			Expect(err).To(MatchError(domain.ErrNonSuccessStatus))

			var lookupErr *domain.LookupError
			Expect(err).To(BeAssignableToTypeOf(lookupErr))
			Expect(err.(*domain.LookupError).StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("returns a network failure when the backend is unreachable", func() {
			// ARRANGE
			server.Close()

			// ACT
			result, err := lookupRepository.Lookup(ctx, entities.EntityContact, "123")

			// ASSERT
			Expect(result).To(BeNil())
			Expect(err).To(MatchError(domain.ErrNetworkFailure))
		})
	})
})

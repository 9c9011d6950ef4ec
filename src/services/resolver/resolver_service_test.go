package resolver_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"chatstatus/src/domain"
	"chatstatus/src/services/resolver"
)

var _ = Describe("ResolverService", func() {
	var (
		server          *ghttp.Server
		resolverService *resolver.ResolverService
		ctx             context.Context
	)

	const chatID = "5511999999999@c.us"

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()
		resolverService = newResolverService(server)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("ResolveContactStatus", func() {
		It("uses the contact name and id", func() {
			// ARRANGE
			server.AppendHandlers(
				ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/api/contatos", "telefone=5511999999999"),
					ghttp.RespondWith(http.StatusOK, `{"id":"uuid-1","numeroTelefone":"5511999999999","nome":"Maria"}`),
				),
			)

			// ACT
			outcome := resolverService.ResolveContactStatus(ctx, chatID)

			// ASSERT
			Expect(outcome.Indicator).To(Equal(domain.IndicatorContact))
			Expect(outcome.Status.Exists).To(BeTrue())
			Expect(outcome.Status.Count).To(Equal(1))
			Expect(outcome.Status.Detail).To(Equal("Maria"))
			Expect(outcome.Status.ContatoID).To(Equal("uuid-1"))
		})

		It("keeps a network failure distinct from not found", func() {
			// ARRANGE
			server.Close()

			// ACT
			outcome := resolverService.ResolveContactStatus(ctx, chatID)

			// ASSERT
			Expect(outcome.Failed()).To(BeTrue())
			Expect(outcome.ErrorKind).To(Equal(domain.KindNetworkFailure))
			Expect(outcome.Status.Exists).To(BeFalse())
		})
	})

	Describe("Resolve", func() {
		It("dispatches by indicator kind", func() {
			// ARRANGE
			server.AppendHandlers(
				ghttp.RespondWith(http.StatusOK, `{"data":[{"id":"uuid-1","numeroTelefone":"5511999999999"}]}`),
				ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/api/tickets", "contato_id=uuid-1"),
					ghttp.RespondWith(http.StatusOK, `{"data":[{"id":"t1"},{"id":"t2"}]}`),
				),
			)

			// ACT
			outcome := resolverService.Resolve(ctx, domain.IndicatorTicket, chatID)

			// ASSERT
			Expect(outcome.Indicator).To(Equal(domain.IndicatorTicket))
			Expect(outcome.Status.Count).To(Equal(2))
			Expect(outcome.Cached).To(BeFalse())
		})

		It("fails unknown kinds without calling the backend", func() {
			outcome := resolverService.Resolve(ctx, domain.IndicatorKind("tags"), chatID)

			Expect(outcome.Failed()).To(BeTrue())
			Expect(outcome.Err).To(MatchError(domain.ErrUnknownIndicator))
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})

		It("returns not found for an absent identifier", func() {
			outcome := resolverService.Resolve(ctx, domain.IndicatorContact, "")

			Expect(outcome.Failed()).To(BeFalse())
			Expect(outcome.Status.Exists).To(BeFalse())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})

		It("reports a canceled context as canceled", func() {
			// ARRANGE
			canceledCtx, cancel := context.WithCancel(ctx)
			cancel()

			// ACT
			outcome := resolverService.Resolve(canceledCtx, domain.IndicatorContact, chatID)

			// ASSERT
			Expect(outcome.Canceled()).To(BeTrue())
			Expect(outcome.Status.Exists).To(BeFalse())
		})
	})

	Describe("ResolveAll", func() {
		It("resolves every indicator independently in header order", func() {
			// ARRANGE
			server.RouteToHandler(http.MethodGet, "/api/contatos",
				ghttp.RespondWith(http.StatusOK, `[{"id":"uuid-1","numeroTelefone":"5511999999999","nome":"Maria"}]`))
			server.RouteToHandler(http.MethodGet, "/api/kanban/quadros",
				ghttp.RespondWith(http.StatusOK, `[]`))
			server.RouteToHandler(http.MethodGet, "/api/filas",
				ghttp.RespondWith(http.StatusOK, `[{"id":"f1","nome":"Suporte"}]`))
			server.RouteToHandler(http.MethodGet, "/api/tickets",
				ghttp.RespondWith(http.StatusInternalServerError, ``))
			server.RouteToHandler(http.MethodGet, "/api/orcamentos",
				ghttp.RespondWith(http.StatusOK, `{"data":[{"id":"o1","status":"pendente"}]}`))
			server.RouteToHandler(http.MethodGet, "/api/agendamentos",
				ghttp.RespondWith(http.StatusOK, `{"data":[]}`))

			// ACT
			outcomes := resolverService.ResolveAll(ctx, chatID)

			// ASSERT
			Expect(outcomes).To(HaveLen(len(domain.AllIndicators)))
			for i, kind := range domain.AllIndicators {
				Expect(outcomes[i].Indicator).To(Equal(kind))
			}

			byKind := make(map[domain.IndicatorKind]resolver.Outcome, len(outcomes))
			for _, outcome := range outcomes {
				byKind[outcome.Indicator] = outcome
			}

			Expect(byKind[domain.IndicatorContact].Status.Detail).To(Equal("Maria"))
			Expect(byKind[domain.IndicatorKanban].Status.Exists).To(BeFalse())
			Expect(byKind[domain.IndicatorQueue].Status.Detail).To(Equal("Suporte"))
			Expect(byKind[domain.IndicatorTicket].Failed()).To(BeTrue())
			Expect(byKind[domain.IndicatorTicket].ErrorKind).To(Equal(domain.KindNonSuccessStatus))
			Expect(byKind[domain.IndicatorBudget].Status.Detail).To(Equal("1 orçamento (pendente: 1)"))
			Expect(byKind[domain.IndicatorAppointment].Failed()).To(BeFalse())
			Expect(byKind[domain.IndicatorAppointment].Status.Exists).To(BeFalse())
		})
	})
})

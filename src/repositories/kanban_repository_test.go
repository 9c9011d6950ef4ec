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
	"chatstatus/src/test_artefacts/stubs"
)

var _ = Describe("KanbanRepository", func() {
	var (
		server           *ghttp.Server
		kanbanRepository *repositories.KanbanRepository
		ctx              context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = ghttp.NewServer()

		logger := slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		client, err := crmapi.NewClient(logger, crmapi.Config{BaseURL: server.URL()})
		Expect(err).NotTo(HaveOccurred())

		kanbanRepository = repositories.NewKanbanRepository(logger, client)
	})

	AfterEach(func() {
		server.Close()
	})

	It("lists boards wrapped in data keeping the backend order", func() {
		// ARRANGE
		first := stubs.NewBoardStub().WithID("b1").WithNome("Vendas")
		second := stubs.NewBoardStub().WithID("b2").WithNome("Suporte")
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/api/kanban/quadros"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
					"data": []entities.Board{first.Summary(), second.Summary()},
				}),
			),
		)

		// ACT
		boards, err := kanbanRepository.ListBoards(ctx)

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(boards).To(Equal([]entities.Board{first.Summary(), second.Summary()}))
	})

	It("reads the card metadata of a board", func() {
		// ARRANGE
		board := stubs.NewBoardStub().WithID("b1").WithCard("5511999999999@c.us", "col-9")
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/api/kanban/b1/metadata"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, board.Metadata()),
			),
		)

		// ACT
		metadata, err := kanbanRepository.GetMetadata(ctx, "b1")

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(metadata.Cards).To(HaveKeyWithValue("5511999999999@c.us", entities.CardPlacement{ColunaID: "col-9"}))
	})

	It("returns an empty card map when the board has no metadata yet", func() {
		// ARRANGE
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{}`))

		// ACT
		metadata, err := kanbanRepository.GetMetadata(ctx, "b1")

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(metadata.Cards).NotTo(BeNil())
		Expect(metadata.Cards).To(BeEmpty())
	})

	It("reads the board detail with its columns", func() {
		// ARRANGE
		board := stubs.NewBoardStub().WithID("b2").WithColumn("col-9", "Em Andamento", "#3B82F6")
		server.AppendHandlers(
			ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodGet, "/api/kanban/quadros/b2"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{"data": board.Get()}),
			),
		)

		// ACT
		detail, err := kanbanRepository.GetBoard(ctx, "b2")

		// ASSERT
		Expect(err).NotTo(HaveOccurred())
		Expect(detail).To(Equal(board.Get()))
	})

	It("reports a list where an object was expected as malformed", func() {
		// ARRANGE
		server.AppendHandlers(ghttp.RespondWith(http.StatusOK, `[]`))

		// ACT
		_, err := kanbanRepository.GetBoard(ctx, "b2")

		// ASSERT
		Expect(err).To(MatchError(domain.ErrMalformedShape))
	})
})

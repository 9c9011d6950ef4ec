package indicators_test

import (
	"context"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatstatus/src/domain"
	"chatstatus/src/services/indicators"
	"chatstatus/src/services/resolver"
	"chatstatus/src/test_artefacts/stubs"
)

var _ = Describe("Indicator", func() {
	var (
		logger    *slog.Logger
		fake      *fakeResolver
		recorder  *snapshotRecorder
		indicator *indicators.Indicator
	)

	newIndicator := func(kind domain.IndicatorKind) *indicators.Indicator {
		created := indicators.NewIndicator(context.Background(), logger, kind, fake.Resolve, recorder.Record)
		DeferCleanup(created.Close)
		return created
	}

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(GinkgoWriter, nil))
		fake = newFakeResolver()
		recorder = &snapshotRecorder{}
	})

	Context("identifier changes", func() {
		BeforeEach(func() {
			indicator = newIndicator(domain.IndicatorTicket)
		})

		It("starts idle", func() {
			Expect(indicator.Snapshot().State).To(Equal(indicators.StateIdle))
			Expect(fake.CallCount()).To(BeZero())
		})

		It("resolves when the identifier is set", func() {
			// ACT
			triggered := indicator.SetIdentifier("5511999999999")

			// ASSERT
			Expect(triggered).To(BeTrue())
			Eventually(func() indicators.State { return indicator.Snapshot().State }).Should(Equal(indicators.StateResolved))
			Expect(indicator.Snapshot().Status.Detail).To(Equal("5511999999999"))
			Expect(recorder.States()).To(Equal([]indicators.State{indicators.StateLoading, indicators.StateResolved}))
		})

		It("re-resolves when the identifier changes", func() {
			// ARRANGE
			indicator.SetIdentifier("5511999999999")
			Eventually(fake.CallCount).Should(Equal(1))

			// ACT
			triggered := indicator.SetIdentifier("5511888888888")

			// ASSERT
			Expect(triggered).To(BeTrue())
			Eventually(fake.CallCount).Should(Equal(2))
			Expect(fake.ChatIDs()).To(Equal([]string{"5511999999999", "5511888888888"}))
			Eventually(func() string { return indicator.Snapshot().Status.Detail }).Should(Equal("5511888888888"))
		})

		It("does not re-resolve when the same identifier is set again", func() {
			// ARRANGE
			indicator.SetIdentifier("5511999999999")
			Eventually(fake.CallCount).Should(Equal(1))

			// ACT
			triggered := indicator.SetIdentifier("5511999999999")

			// ASSERT
			Expect(triggered).To(BeFalse())
			Consistently(fake.CallCount).Should(Equal(1))
		})

		It("goes back to idle when the identifier is cleared", func() {
			// ARRANGE
			indicator.SetIdentifier("5511999999999")
			Eventually(func() indicators.State { return indicator.Snapshot().State }).Should(Equal(indicators.StateResolved))

			// ACT
			indicator.SetIdentifier("")

			// ASSERT
			Expect(indicator.Snapshot().State).To(Equal(indicators.StateIdle))
			Expect(indicator.Snapshot().Status.Exists).To(BeFalse())
			Consistently(fake.CallCount).Should(Equal(1))
		})
	})

	Context("domain events", func() {
		BeforeEach(func() {
			indicator = newIndicator(domain.IndicatorTicket)
			indicator.SetIdentifier("5511999999999")
			Eventually(fake.CallCount).Should(Equal(1))
		})

		It("re-resolves on a matching event", func() {
			// ARRANGE
			event := stubs.NewEventStub(domain.EventTicketCreated).WithContatoID("5511999999999").Get()

			// ACT
			triggered := indicator.HandleEvent(event)

			// ASSERT
			Expect(triggered).To(BeTrue())
			Eventually(fake.CallCount).Should(Equal(2))
		})

		It("ignores an event for another identifier", func() {
			// ARRANGE
			event := stubs.NewEventStub(domain.EventTicketCreated).WithContatoID("5511888888888").Get()

			// ACT
			triggered := indicator.HandleEvent(event)

			// ASSERT
			Expect(triggered).To(BeFalse())
			Consistently(fake.CallCount).Should(Equal(1))
		})

		It("ignores an event type that does not affect the indicator", func() {
			// ARRANGE
			event := stubs.NewEventStub(domain.EventOrcamentoCreated).WithIdentifier("5511999999999").Get()

			// ACT
			triggered := indicator.HandleEvent(event)

			// ASSERT
			Expect(triggered).To(BeFalse())
			Consistently(fake.CallCount).Should(Equal(1))
		})

		It("matches the chat identifier with its transport suffix", func() {
			// ARRANGE
			event := stubs.NewEventStub(domain.EventTicketCreated).WithIdentifier("5511999999999@c.us").Get()

			// ACT
			triggered := indicator.HandleEvent(event)

			// ASSERT
			Expect(triggered).To(BeTrue())
			Eventually(fake.CallCount).Should(Equal(2))
		})

		It("re-resolves on contact creation", func() {
			event := stubs.NewEventStub(domain.EventContactCreated).WithIdentifier("5511999999999").Get()

			Expect(indicator.HandleEvent(event)).To(BeTrue())
			Eventually(fake.CallCount).Should(Equal(2))
		})
	})

	When("the last resolution learned the contact UUID", func() {
		It("matches events carrying that UUID", func() {
			// ARRANGE
			fake.outcome = func(kind domain.IndicatorKind, chatID string) resolver.Outcome {
				return resolver.Outcome{
					Indicator: kind,
					Status:    domain.ResolvedStatus{Exists: true, Count: 1, ContatoID: "uuid-1"},
				}
			}
			indicator = newIndicator(domain.IndicatorBudget)
			indicator.SetIdentifier("5511999999999@c.us")
			Eventually(func() indicators.State { return indicator.Snapshot().State }).Should(Equal(indicators.StateResolved))

			event := stubs.NewEventStub(domain.EventOrcamentoCreated).WithContatoID("uuid-1").Get()

			// ACT
			triggered := indicator.HandleEvent(event)

			// ASSERT
			Expect(triggered).To(BeTrue())
			Eventually(fake.CallCount).Should(Equal(2))
		})
	})

	When("the resolution fails", func() {
		It("ends in the failed state with a not found badge", func() {
			// ARRANGE
			fake.outcome = func(kind domain.IndicatorKind, chatID string) resolver.Outcome {
				return resolver.Outcome{
					Indicator: kind,
					Status:    domain.NotFoundStatus(),
					ErrorKind: domain.KindNetworkFailure,
					Err:       domain.ErrNetworkFailure,
				}
			}
			indicator = newIndicator(domain.IndicatorContact)

			// ACT
			indicator.SetIdentifier("5511999999999")

			// ASSERT
			Eventually(func() indicators.State { return indicator.Snapshot().State }).Should(Equal(indicators.StateFailed))
			Expect(indicator.Snapshot().ErrorKind).To(Equal(domain.KindNetworkFailure))
			Expect(indicator.Snapshot().Status.Exists).To(BeFalse())
		})
	})

	Context("concurrent resolutions", func() {
		It("drops a stale response that completes after a newer one", func() {
			// ARRANGE
			fake.blocking = true
			indicator = newIndicator(domain.IndicatorTicket)

			indicator.SetIdentifier("5511999999999")
			Eventually(fake.CallCount).Should(Equal(1))
			indicator.SetIdentifier("5511888888888")
			Eventually(fake.CallCount).Should(Equal(2))

			// ACT
			fake.Call(1).release <- resolver.Outcome{
				Indicator: domain.IndicatorTicket,
				Status:    domain.ResolvedStatus{Exists: true, Count: 3, Detail: "newer"},
			}
			Eventually(func() string { return indicator.Snapshot().Status.Detail }).Should(Equal("newer"))

			fake.Call(0).release <- resolver.Outcome{
				Indicator: domain.IndicatorTicket,
				Status:    domain.ResolvedStatus{Exists: true, Count: 1, Detail: "stale"},
			}

			// ASSERT
			Consistently(func() string { return indicator.Snapshot().Status.Detail }).Should(Equal("newer"))
			Expect(indicator.Snapshot().Seq).To(BeEquivalentTo(2))
		})

		It("leaves loading when the session context ends without close", func() {
			// ARRANGE
			fake.blocking = true
			fake.honorCancel = true
			sessionCtx, cancelSession := context.WithCancel(context.Background())
			indicator = indicators.NewIndicator(sessionCtx, logger, domain.IndicatorKanban, fake.Resolve, recorder.Record)
			DeferCleanup(indicator.Close)
			indicator.SetIdentifier("5511999999999@c.us")
			Eventually(fake.CallCount).Should(Equal(1))

			// ACT
			cancelSession()

			// ASSERT
			Eventually(func() indicators.State { return indicator.Snapshot().State }).Should(Equal(indicators.StateFailed))
			Expect(indicator.Snapshot().Status.Exists).To(BeFalse())
			Expect(indicator.Snapshot().ErrorKind).To(Equal(domain.KindNetworkFailure))
			Expect(recorder.States()).To(Equal([]indicators.State{indicators.StateLoading, indicators.StateFailed}))
		})

		It("cancels the in-flight resolution on close", func() {
			// ARRANGE
			fake.blocking = true
			fake.honorCancel = true
			indicator = indicators.NewIndicator(context.Background(), logger, domain.IndicatorKanban, fake.Resolve, recorder.Record)
			indicator.SetIdentifier("5511999999999@c.us")
			Eventually(fake.CallCount).Should(Equal(1))

			// ACT
			indicator.Close()

			// ASSERT
			Expect(indicator.Snapshot().State).To(Equal(indicators.StateLoading))
			Expect(indicator.SetIdentifier("5511888888888")).To(BeFalse())
			Expect(recorder.States()).To(Equal([]indicators.State{indicators.StateLoading}))
		})
	})
})

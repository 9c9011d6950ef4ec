package eventbus_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chatstatus/src/domain"
	"chatstatus/src/infra/eventbus"
)

var _ = Describe("Bus", func() {
	var bus *eventbus.Bus

	BeforeEach(func() {
		bus = eventbus.New()
	})

	It("delivers a published event to every subscriber", func() {
		// ARRANGE
		_, first, cancelFirst := bus.Subscribe(1)
		_, second, cancelSecond := bus.Subscribe(1)
		DeferCleanup(cancelFirst)
		DeferCleanup(cancelSecond)

		event := domain.DomainEvent{Type: domain.EventTicketCreated, Identifier: "5511999999999"}

		// ACT
		bus.Publish(event)

		// ASSERT
		Expect(first).To(Receive(Equal(event)))
		Expect(second).To(Receive(Equal(event)))
	})

	It("drops events for a full subscriber without blocking", func() {
		// ARRANGE
		_, ch, cancel := bus.Subscribe(1)
		DeferCleanup(cancel)

		// ACT
		bus.Publish(domain.DomainEvent{Type: domain.EventContactCreated, Identifier: "a"})
		bus.Publish(domain.DomainEvent{Type: domain.EventContactCreated, Identifier: "b"})

		// ASSERT
		Expect(ch).To(Receive(HaveField("Identifier", "a")))
		Expect(ch).NotTo(Receive())
		Expect(bus.Dropped()).To(BeEquivalentTo(1))
	})

	It("closes the channel on cancel and tolerates a second cancel", func() {
		// ARRANGE
		_, ch, cancel := bus.Subscribe(0)
		Expect(bus.Subscribers()).To(Equal(1))

		// ACT
		cancel()
		cancel()

		// ASSERT
		Expect(ch).To(BeClosed())
		Expect(bus.Subscribers()).To(Equal(0))
		Expect(func() { bus.Publish(domain.DomainEvent{Type: domain.EventContactCreated}) }).NotTo(Panic())
	})

	It("is safe to use as a nil bus", func() {
		var nilBus *eventbus.Bus

		_, ch, cancel := nilBus.Subscribe(1)
		cancel()

		Expect(ch).To(BeClosed())
		Expect(func() { nilBus.Publish(domain.DomainEvent{}) }).NotTo(Panic())
	})
})

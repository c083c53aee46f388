package bus_test

import (
	"fieldregistry-server/internal/registry/bus"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Invalidation Bus", func() {
	var b *bus.Bus

	BeforeEach(func() {
		b = bus.New()
	})

	Context("Publish", func() {
		It("delivers the event to every listener synchronously", func() {
			var first, second []bus.Event
			b.Subscribe(func(e bus.Event) { first = append(first, e) })
			b.Subscribe(func(e bus.Event) { second = append(second, e) })

			b.Publish("crm", "leads")

			Expect(first).To(HaveLen(1))
			Expect(second).To(HaveLen(1))
			Expect(first[0].Module).To(Equal("crm"))
			Expect(first[0].Entity).To(Equal("leads"))
		})

		It("is a no-op with no listeners", func() {
			Expect(func() { b.Publish("crm", "leads") }).NotTo(Panic())
		})

		When("a listener cancels itself mid-publish", func() {
			It("does not corrupt delivery to the remaining listeners", func() {
				var selfCount, otherCount int
				var selfSub *bus.Subscription
				selfSub = b.Subscribe(func(e bus.Event) {
					selfCount++
					selfSub.Cancel()
				})
				b.Subscribe(func(e bus.Event) { otherCount++ })

				b.Publish("crm", "leads")
				b.Publish("crm", "leads")

				Expect(selfCount).To(Equal(1))
				Expect(otherCount).To(Equal(2))
			})
		})

		When("a listener subscribes another listener mid-publish", func() {
			It("delivers to the new listener only on the next publish", func() {
				var lateCount int
				b.Subscribe(func(e bus.Event) {
					if lateCount == 0 {
						b.Subscribe(func(bus.Event) { lateCount++ })
					}
				})

				b.Publish("crm", "leads")
				Expect(lateCount).To(Equal(0))

				b.Publish("crm", "leads")
				Expect(lateCount).To(Equal(1))
			})
		})
	})

	Context("Cancel", func() {
		It("removes the listener", func() {
			var count int
			sub := b.Subscribe(func(bus.Event) { count++ })
			sub.Cancel()

			b.Publish("crm", "leads")

			Expect(count).To(BeZero())
			Expect(b.Len()).To(BeZero())
		})

		It("is idempotent and does not disturb other listeners", func() {
			var count int
			sub := b.Subscribe(func(bus.Event) {})
			b.Subscribe(func(bus.Event) { count++ })

			sub.Cancel()
			Expect(func() { sub.Cancel() }).NotTo(Panic())

			b.Publish("production", "work_orders")
			Expect(count).To(Equal(1))
		})
	})
})

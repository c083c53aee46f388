package async_test

import (
	"context"

	"fieldregistry-server/internal/infra/async"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Local Broker", func() {
	var broker *async.LocalBroker
	var topic async.BrokerTopicName
	var ctx context.Context

	BeforeEach(func() {
		broker = async.NewLocalBroker()
		topic = "registry_invalidation"
		ctx = context.TODO()
	})

	Context("Publish", func() {
		When("a topic has one subscription", func() {
			It("delivers the message to its receiver", func() {
				subscription, err := broker.Subscribe(topic)
				Expect(err).NotTo(HaveOccurred())

				broker.Publish(ctx, topic, async.BrokerMessage{
					Event: "config_updated",
					Value: "crm/leads",
				})

				Eventually(subscription.Receiver).Should(Receive(And(
					HaveField("Event", "config_updated"),
					HaveField("Value", "crm/leads"),
				)))
			})
		})

		When("a topic has multiple subscriptions", func() {
			It("delivers the message to every receiver", func() {
				first, _ := broker.Subscribe(topic)
				second, _ := broker.Subscribe(topic)

				broker.Publish(ctx, topic, async.BrokerMessage{Event: "config_updated"})

				Eventually(first.Receiver).Should(Receive())
				Eventually(second.Receiver).Should(Receive())
			})
		})

		When("the topic does not exist", func() {
			It("returns an error", func() {
				err := broker.Publish(ctx, "unknown", async.BrokerMessage{})

				Expect(err).To(MatchError(async.ErrTopicNotFound))
			})
		})
	})

	Context("Unsubscribe", func() {
		It("closes the receiver channel", func() {
			subscription, _ := broker.Subscribe(topic)

			err := broker.Unsubscribe(topic, subscription)

			Expect(err).NotTo(HaveOccurred())
			Eventually(subscription.Receiver).Should(BeClosed())
		})

		It("is safe to call twice", func() {
			subscription, _ := broker.Subscribe(topic)

			Expect(broker.Unsubscribe(topic, subscription)).To(Succeed())
			Expect(broker.Unsubscribe(topic, subscription)).To(Succeed())
		})

		When("the subscription is unknown", func() {
			It("returns an error", func() {
				broker.Subscribe(topic)

				err := broker.Unsubscribe(topic, async.Subscription{ID: "ghost"})

				Expect(err).To(MatchError(async.ErrSubscriptionNotFound))
			})
		})
	})

	Context("Stop", func() {
		It("closes every receiver", func() {
			subscription, _ := broker.Subscribe(topic)

			go broker.Stop()

			Eventually(subscription.Receiver).Should(BeClosed())
		})

		It("rejects new subscriptions afterwards", func() {
			broker.Stop()

			_, err := broker.Subscribe(topic)

			Expect(err).To(MatchError(async.ErrBrokerStopped))
		})
	})
})

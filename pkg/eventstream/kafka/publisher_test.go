package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/docrag/pkg/eventstream"
	"github.com/papercomputeco/docrag/pkg/eventstream/kafka"
	docraglogger "github.com/papercomputeco/docrag/pkg/logger"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer    *recordingWriter
		publisher *kafka.Publisher
	)

	BeforeEach(func() {
		writer = &recordingWriter{}
		publisher = kafka.NewPublisherWithWriter(writer, "docrag.documents", docraglogger.Nop())
	})

	It("writes the event keyed by document id", func() {
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentIngested, "alice",
			eventstream.DocumentMeta{ID: "doc-1", Filename: "notes.txt", ChunkCount: 2})
		Expect(publisher.PublishDocument(context.Background(), event)).To(Succeed())

		Expect(writer.messages).To(HaveLen(1))
		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("doc-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeDocumentIngested)}))

		var decoded eventstream.DocumentEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.Owner).To(Equal("alice"))
		Expect(decoded.Document.ChunkCount).To(Equal(2))
		Expect(decoded.EventID).To(HavePrefix("evt_"))
	})

	It("rejects nil events", func() {
		Expect(publisher.PublishDocument(context.Background(), nil)).To(MatchError(eventstream.ErrNilDocumentEvent))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker down")
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, "alice", eventstream.DocumentMeta{ID: "doc-1"})
		err := publisher.PublishDocument(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(publisher.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	It("requires brokers and a topic", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"}, docraglogger.Nop())
		Expect(err).To(HaveOccurred())
		_, err = kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}}, docraglogger.Nop())
		Expect(err).To(HaveOccurred())
	})
})

package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("stamps new events", func() {
		event := eventstream.NewDocumentEvent(eventstream.EventTypeDocumentIngested, "alice",
			eventstream.DocumentMeta{ID: "doc-1", Filename: "a.txt"})
		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventID).To(HavePrefix("evt_"))
		Expect(event.EmittedAt).To(BeTemporally("~", time.Now(), time.Minute))
	})

	It("marshals with expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewDocumentEvent(eventstream.EventTypeDocumentDeleted, "bob",
			eventstream.DocumentMeta{ID: "doc-2"}))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("owner"))
		Expect(got).To(HaveKey("document"))
	})
})

package config

const (
	defaultStorageDriver = "sqlite"
	defaultAPIListen     = ":8000"
	defaultOwner         = "demo-user"

	defaultChunkSize    = 800
	defaultChunkOverlap = 200

	defaultEmbeddingProvider = "auto"
	defaultLLMProvider       = "auto"

	defaultVectorProvider   = "sqlite"
	defaultVectorCollection = "documents"

	defaultTopK         = 4
	defaultSnippetChars = 400

	defaultNumWorkers = 3
	defaultQueueSize  = 256

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "docrag.documents"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		API: APIConfig{
			Listen:       defaultAPIListen,
			DefaultOwner: defaultOwner,
			CORSOrigins:  "*",
		},
		Chunking: ChunkingConfig{
			Size:    defaultChunkSize,
			Overlap: defaultChunkOverlap,
		},
		Embedding: EmbeddingConfig{
			Provider: defaultEmbeddingProvider,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Query: QueryConfig{
			TopK:         defaultTopK,
			SnippetChars: defaultSnippetChars,
		},
		Worker: WorkerConfig{
			NumWorkers: defaultNumWorkers,
			QueueSize:  defaultQueueSize,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}

package store

// cachedRecord is one KCC record row with its embedding serialized as
// JSON, mirroring how it is stored in SQLite.
type cachedRecord struct {
	ID         int64
	QueryText  string
	AnswerText string
	Embedding  []float32
}

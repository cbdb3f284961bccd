package domain

// Metric is the vector similarity function of a collection.
type Metric string

// MetricCosine is the only metric the pipeline uses; scores are cosine similarities.
const MetricCosine Metric = "cosine"

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "my_multilingual_docs"

// DefaultSource is the payload source recorded for uploads that do not name one.
const DefaultSource = "uploaded"

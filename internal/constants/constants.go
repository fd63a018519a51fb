// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Face matching constants
const (
	// MatchThreshold is the maximum Euclidean distance between two descriptors
	// for them to be considered the same person. The comparison is strict (<).
	// This is the recognition model's calibrated cutoff and must not be
	// re-derived; it is tied to the extractor's embedding space.
	MatchThreshold = 0.5

	// DescriptorDim is the dimensionality of face descriptors produced by the
	// extractor. Vectors of any other length are rejected at the adapter boundary.
	DescriptorDim = 128
)

// Background processing constants
const (
	// QueueBreather is the idle delay between extraction tasks. It gives the
	// garbage collector room to reclaim the previous image buffer before the
	// next memory-heavy extraction starts.
	QueueBreather = 300 * time.Millisecond

	// ExtractionTimeout bounds a single extraction call. A task that exceeds
	// it is marked failed so a hung extractor cannot stall the worker forever.
	ExtractionTimeout = 2 * time.Minute
)

// Expiry sweep constants
const (
	// ReapInterval is how often the expiry reaper sweeps for expired events.
	ReapInterval = 24 * time.Hour
)

// Upload constants
const (
	// MaxUploadSize is the maximum total size of a multipart upload request.
	MaxUploadSize = 50 << 20 // 50 MB
)

// HNSW index constants
const (
	// HNSWMinPhotos is the event size above which selfie matching builds an
	// HNSW candidate index instead of scanning every descriptor linearly.
	HNSWMinPhotos = 200

	// HNSWMaxNeighbors is the M parameter of the HNSW graph.
	HNSWMaxNeighbors = 16

	// HNSWSearchLimit is how many nearest descriptors to pull from the index
	// before applying the exact threshold test.
	HNSWSearchLimit = 64
)

package domain

// VariantTask asks the worker to derive named variants from a stored
// photo. The worker reads the object at Path and runs every preset in
// Presets against the same source bytes.
type VariantTask struct {
	ID      string   `json:"id"`
	PhotoID string   `json:"photo_id"`
	OwnerID string   `json:"owner_id"`
	Path    string   `json:"path"`
	Presets []string `json:"presets"`
}

const (
	KafkaTopicVariants = "photo-variants"
	KafkaGroupID       = "photo-variants-group"
)

const (
	PathPrefixUsers    = "users/"
	PathPrefixVariants = "variants/"
)

const (
	// DefaultMaxUploadSize is the orchestrator's admission ceiling.
	DefaultMaxUploadSize = 8 << 20

	// DefaultVariantPresets are generated for every uploaded photo.
	DefaultPresetAvatar    = "avatar"
	DefaultPresetThumbnail = "thumbnail"
	DefaultPresetStandard  = "standard"
)

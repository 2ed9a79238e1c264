package domain

// ClientOptions tunes pre-upload compression. Zero values mean
// "use the engine default" for every field.
type ClientOptions struct {
	// MaxSizeMB is the target upper bound on the output size.
	MaxSizeMB float64
	// MaxWidthOrHeight caps the longest edge in pixels.
	MaxWidthOrHeight int
	// InitialQuality is the starting encode quality hint in (0, 1].
	InitialQuality float64
	// AlwaysKeepResolution disables any downscaling.
	AlwaysKeepResolution bool
	// PreserveMetadata keeps EXIF data when the codec supports it.
	PreserveMetadata bool
}

// FitMode relates an image's natural dimensions to a target box.
type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitFill    FitMode = "fill"
	FitInside  FitMode = "inside"
	FitOutside FitMode = "outside"
)

// ServerOptions tunes buffer transcoding on the server side.
type ServerOptions struct {
	// Width and Height form the target bounding box; either may be zero.
	Width  int
	Height int
	// Quality is the encode quality (1-100). Zero means the default (85).
	Quality int
	// Format selects the output codec. Empty keeps the detected source
	// format when it is jpeg or png.
	Format ImageFormat
	// Fit controls how the box constrains the image. Empty means inside.
	Fit FitMode
	// AllowEnlargement permits upscaling beyond the source dimensions.
	// The zero value keeps the source size as the ceiling.
	AllowEnlargement bool
}

// CompressionPreset pairs client- and server-side parameters for one
// named use case. Presets are defined once and never mutated.
type CompressionPreset struct {
	Name        string
	Description string
	Client      ClientOptions
	Server      ServerOptions
}

// File is an in-memory image file as handled by the client engine.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload size in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// CompressionResult is the outcome of a single client-side compression.
type CompressionResult struct {
	OriginalSize     int64
	CompressedSize   int64
	CompressionRatio int
	File             File
	// DataURL is a base64 preview of the compressed payload.
	DataURL string
}

// ProgressStatus is the lifecycle of a single client compression call.
type ProgressStatus string

const (
	ProgressIdle        ProgressStatus = "idle"
	ProgressCompressing ProgressStatus = "compressing"
	ProgressUploading   ProgressStatus = "uploading"
	ProgressCompleted   ProgressStatus = "completed"
	ProgressError       ProgressStatus = "error"
)

// UploadProgress is the transient status of an in-flight operation.
type UploadProgress struct {
	Loaded     int64
	Total      int64
	Percentage int
	Status     ProgressStatus
}

// FileValidation is the result of pre-compression admission checks.
type FileValidation struct {
	IsValid bool
	Error   string
}

// OutputInfo describes the transcoded payload produced by the server engine.
type OutputInfo struct {
	Format ImageFormat
	Width  int
	Height int
	Size   int
}

// ServerResult is the outcome of a single server-side transcode.
type ServerResult struct {
	Buffer           []byte
	Info             OutputInfo
	OriginalSize     int
	CompressedSize   int
	CompressionRatio int
}

// PresetResult is a ServerResult plus the preset that produced it.
type PresetResult struct {
	ServerResult
	Preset *CompressionPreset
}

// ImageMetadata is the raw decode-and-inspect result.
type ImageMetadata struct {
	Format      ImageFormat
	Width       int
	Height      int
	Size        int
	HasAlpha    bool
	Orientation int
}

// ValidationReport wraps metadata with a validity verdict. Decode
// failures are captured in Error instead of being returned as errors.
type ValidationReport struct {
	IsValid bool
	Format  ImageFormat
	Width   int
	Height  int
	Size    int
	Error   string
}

// WebOptions tunes OptimizeForWeb. Zero values take the documented
// defaults: 1920x1080, quality 85, format auto.
type WebOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   int
	// Format may be "auto", "jpeg", "webp" or "avif". Auto always
	// selects webp.
	Format string
}

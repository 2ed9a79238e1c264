package dto

type ValidationResponse struct {
	IsValid bool   `json:"is_valid"`
	Format  string `json:"format,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Size    int    `json:"size"`
	Error   string `json:"error,omitempty"`
}

type MetadataResponse struct {
	Format      string `json:"format"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int    `json:"size"`
	HasAlpha    bool   `json:"has_alpha"`
	Orientation int    `json:"orientation"`
}

type PresetInfo struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxSizeMB   float64 `json:"max_size_mb"`
	MaxEdge     int     `json:"max_edge"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Quality     int     `json:"quality"`
	Format      string  `json:"format"`
	Fit         string  `json:"fit"`
	MaxFileSize string  `json:"max_file_size,omitempty"`
}

type PresetsResponse struct {
	Presets []PresetInfo `json:"presets"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

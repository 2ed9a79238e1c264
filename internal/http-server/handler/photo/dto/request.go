package dto

type UploadRequest struct {
	OwnerID string `validate:"required"`
	Preset  string `validate:"omitempty,alphanum"`
}

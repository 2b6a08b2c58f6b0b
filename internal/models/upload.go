package models

// ResourceType mirrors the media kinds the upload endpoint accepts.
type ResourceType string

const (
	ResourceTypeAuto  ResourceType = "auto"
	ResourceTypeImage ResourceType = "image"
	ResourceTypeVideo ResourceType = "video"
	ResourceTypeRaw   ResourceType = "raw"
)

// UploadRequest is the JSON body of POST /api/upload.
type UploadRequest struct {
	Base64Data   string       `json:"base64Data"`
	Folder       string       `json:"folder"`
	PublicID     string       `json:"publicId,omitempty"`
	ResourceType ResourceType `json:"resourceType,omitempty"`
}

// UploadResult is returned after the object has been stored.
type UploadResult struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
}

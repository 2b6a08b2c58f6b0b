package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"campusconnect/connect/internal/config"
	"campusconnect/connect/internal/models"
	"campusconnect/connect/internal/storage"
)

// Folder kinds below the upload root.
const (
	FolderAvatars     = "avatars"
	FolderMarketplace = "marketplace"
	FolderProjects    = "projects"
)

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// IThumbnailEnqueuer schedules thumbnail generation for a stored image.
type IThumbnailEnqueuer interface {
	EnqueueThumbnail(ctx context.Context, key string) error
}

// IUploadService stores base64 media on behalf of a user.
type IUploadService interface {
	Upload(ctx context.Context, callerID string, req models.UploadRequest) (*models.UploadResult, error)
}

type uploadService struct {
	cfg        *config.Config
	store      storage.IObjectStorage
	projects   IProjectService
	thumbnails IThumbnailEnqueuer
	logger     *zap.Logger
}

// NewUploadService creates the upload service. store may be nil when object
// storage is not configured; uploads then fail with ErrStorageUnavailable.
// thumbnails may be nil to disable thumbnail generation.
func NewUploadService(cfg *config.Config, store storage.IObjectStorage, projects IProjectService, thumbnails IThumbnailEnqueuer, logger *zap.Logger) IUploadService {
	return &uploadService{
		cfg:        cfg,
		store:      store,
		projects:   projects,
		thumbnails: thumbnails,
		logger:     logger,
	}
}

// Upload validates the payload, checks the folder policy and stores the
// object. Payload errors are reported before folder errors.
func (s *uploadService) Upload(ctx context.Context, callerID string, req models.UploadRequest) (*models.UploadResult, error) {
	if req.Base64Data == "" {
		return nil, fmt.Errorf("%w: base64Data is required", ErrInvalidUpload)
	}
	if req.Folder == "" {
		return nil, fmt.Errorf("%w: folder is required", ErrInvalidUpload)
	}
	resourceType := req.ResourceType
	if resourceType == "" {
		resourceType = models.ResourceTypeAuto
	}
	switch resourceType {
	case models.ResourceTypeAuto, models.ResourceTypeImage, models.ResourceTypeVideo, models.ResourceTypeRaw:
	default:
		return nil, fmt.Errorf("%w: unknown resourceType %q", ErrInvalidUpload, req.ResourceType)
	}
	if len(req.Base64Data) > s.cfg.UploadMaxBase64Bytes {
		return nil, fmt.Errorf("%w: %d bytes of base64 exceeds %d", ErrPayloadTooLarge, len(req.Base64Data), s.cfg.UploadMaxBase64Bytes)
	}

	data, declaredType, err := decodePayload(req.Base64Data)
	if err != nil {
		return nil, err
	}

	publicID := req.PublicID
	if publicID == "" {
		publicID = uuid.NewString()
	} else if !validPublicID(publicID) {
		return nil, fmt.Errorf("%w: invalid publicId", ErrInvalidUpload)
	}

	folder, kind, err := s.authorizeFolder(ctx, req.Folder, callerID)
	if err != nil {
		return nil, err
	}

	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	contentType := declaredType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if resourceType == models.ResourceTypeAuto {
		resourceType = resourceTypeOf(contentType)
	}
	format := formatOf(contentType)

	key := folder + "/" + publicID
	if format != "" {
		key += "." + format
	}

	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		s.logger.Error("upload to object storage failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	s.logger.Info("media uploaded",
		zap.String("user_id", callerID),
		zap.String("key", key),
		zap.Int("bytes", len(data)))

	if kind == FolderMarketplace && resourceType == models.ResourceTypeImage && s.thumbnails != nil {
		if err := s.thumbnails.EnqueueThumbnail(ctx, key); err != nil {
			s.logger.Warn("failed to enqueue thumbnail", zap.String("key", key), zap.Error(err))
		}
	}

	return &models.UploadResult{
		URL:      s.store.PublicURL(key),
		PublicID: folder + "/" + publicID,
		Format:   format,
		Bytes:    len(data),
	}, nil
}

// authorizeFolder checks that callerID may write into folder and returns the
// cleaned folder and its kind. Avatar and marketplace folders are namespaced
// by user id; project folders must belong to a project the caller owns.
func (s *uploadService) authorizeFolder(ctx context.Context, folder, callerID string) (string, string, error) {
	folder = strings.Trim(folder, "/")
	segments := strings.Split(folder, "/")
	for _, seg := range segments {
		if !segmentPattern.MatchString(seg) {
			return "", "", fmt.Errorf("%w: %s", ErrFolderForbidden, folder)
		}
	}
	if len(segments) < 3 || segments[0] != s.cfg.UploadFolderRoot {
		return "", "", fmt.Errorf("%w: %s", ErrFolderForbidden, folder)
	}

	kind, owner := segments[1], segments[2]
	switch kind {
	case FolderAvatars, FolderMarketplace:
		if owner != callerID {
			return "", "", fmt.Errorf("%w: %s", ErrFolderForbidden, folder)
		}
	case FolderProjects:
		owns, err := s.projects.IsOwner(ctx, owner, callerID)
		if err != nil {
			return "", "", err
		}
		if !owns {
			return "", "", fmt.Errorf("%w: %s", ErrFolderForbidden, folder)
		}
	default:
		return "", "", fmt.Errorf("%w: %s", ErrFolderForbidden, folder)
	}
	return folder, kind, nil
}

// decodePayload accepts raw base64 or a data URI and returns the bytes plus
// the MIME type the data URI declared, if any.
func decodePayload(raw string) ([]byte, string, error) {
	var declared string
	if strings.HasPrefix(raw, "data:") {
		header, body, ok := strings.Cut(raw, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", fmt.Errorf("%w: malformed data URI", ErrInvalidUpload)
		}
		declared = strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
		raw = body
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: base64Data is not valid base64", ErrInvalidUpload)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidUpload)
	}
	if declared != "" {
		if _, _, err := mime.ParseMediaType(declared); err != nil {
			return nil, "", fmt.Errorf("%w: invalid media type %q", ErrInvalidUpload, declared)
		}
	}
	return data, declared, nil
}

func validPublicID(id string) bool {
	for _, seg := range strings.Split(id, "/") {
		if !segmentPattern.MatchString(seg) {
			return false
		}
	}
	return true
}

func resourceTypeOf(contentType string) models.ResourceType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return models.ResourceTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return models.ResourceTypeVideo
	}
	return models.ResourceTypeRaw
}

// formatOf derives the file format from a MIME type, e.g. image/jpeg -> jpg.
func formatOf(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mediaType {
	case "image/jpeg":
		return "jpg"
	case "image/svg+xml":
		return "svg"
	case "text/plain":
		return "txt"
	case "application/octet-stream":
		return ""
	}
	_, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return ""
	}
	return path.Base(sub)
}
